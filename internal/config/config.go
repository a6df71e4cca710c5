package config

import (
	"errors"
	"os"
)

// app config loaded from environment variables
type Config struct {
	Port       string
	DBDriver   string // "postgres" or "sqlite"
	DBDsn      string
	RedisAddr  string // empty disables the event mirror
	AIProvider string
	JWTSecret  string
}

// loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Port:       getEnvOrDefault("PORT", "8080"),
		DBDriver:   getEnvOrDefault("DB_DRIVER", "sqlite"),
		DBDsn:      getEnvOrDefault("DB_DSN", "interview.db"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		AIProvider: getEnvOrDefault("AI_PROVIDER", "gemini"),
		JWTSecret:  getEnvOrDefault("JWT_SECRET", "dev-secret-change-me"),
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.DBDriver != "postgres" && config.DBDriver != "sqlite" {
		return errors.New("unsupported DB driver: " + config.DBDriver + ". Currently supported: postgres, sqlite")
	}
	// Provider-specific validation happens when the provider is constructed.
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
