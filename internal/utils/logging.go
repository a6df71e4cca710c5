package utils

import (
	"os"

	"go.uber.org/zap"
)

var Logger *zap.Logger

// InitLogger builds the process-wide logger. LOG_MODE=development switches
// to the console encoder for local runs.
func InitLogger() {
	var (
		logger *zap.Logger
		err    error
	)
	if os.Getenv("LOG_MODE") == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	Logger = logger.With(zap.String("service", "interview"))
}

func GetLogger() *zap.Logger {
	if Logger == nil {
		InitLogger()
	}
	return Logger
}
