package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"interview/internal/config"
	"interview/internal/handlers"
	"interview/internal/hub"
	"interview/internal/metrics"
	"interview/internal/oracle"
	_ "interview/internal/oracle/gemini"
	_ "interview/internal/oracle/static"
	"interview/internal/routers"
	"interview/internal/session_management"
	"interview/internal/store"
	"interview/internal/utils"
)

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DBDriver == "postgres" {
		return gorm.Open(postgres.Open(cfg.DBDsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(cfg.DBDsn), &gorm.Config{})
}

func main() {
	utils.InitLogger()
	logger := utils.GetLogger()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("provider", cfg.AIProvider),
		zap.String("db_driver", cfg.DBDriver))

	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := store.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	st := store.New(db)

	orc, err := oracle.NewProvider(cfg.AIProvider)
	if err != nil {
		logger.Fatal("Failed to initialize question provider", zap.Error(err))
	}
	logger.Info("Question provider ready", zap.String("provider", orc.ProviderName()))

	eventHub := hub.NewHub(logger)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		eventHub.AttachRedis(rdb)
		logger.Info("Redis event mirror enabled", zap.String("addr", cfg.RedisAddr))
	}

	manager := session_management.NewInterviewManager(st, orc, eventHub, logger)

	// Resolve deadlines that expired while the process was down, then keep
	// sweeping for drift.
	manager.Reconcile()
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 1m", manager.Reconcile); err != nil {
		logger.Fatal("Failed to schedule reconciliation sweep", zap.Error(err))
	}
	scheduler.Start()

	candidateHandler := handlers.NewCandidateHandler(manager, logger)
	interviewHandler := handlers.NewInterviewHandler(manager, []byte(cfg.JWTSecret), logger)
	wsHandler := handlers.NewWSHandler(manager, eventHub, logger)
	healthHandler := handlers.NewHealthHandler()

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	router.Use(metrics.Middleware)

	routers.HealthRoutes(router, healthHandler)
	routers.InterviewRoutes(router, candidateHandler, interviewHandler, wsHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Interview service starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("Interview service shutting down...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("Interview service exited")
}
