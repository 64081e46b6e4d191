package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/rental-yield/internal/cache"
	"github.com/Dan9191/rental-yield/internal/calculator"
	"github.com/Dan9191/rental-yield/internal/config"
	"github.com/Dan9191/rental-yield/internal/handler"
	"github.com/Dan9191/rental-yield/internal/integrations/bcch"
	"github.com/Dan9191/rental-yield/internal/integrations/sii"
	"github.com/Dan9191/rental-yield/internal/integrations/webhook"
	"github.com/Dan9191/rental-yield/internal/logger"
	"github.com/Dan9191/rental-yield/internal/middleware"
	"github.com/Dan9191/rental-yield/internal/models"
	"github.com/Dan9191/rental-yield/internal/notify"
	"github.com/Dan9191/rental-yield/internal/repository"
	"github.com/Dan9191/rental-yield/internal/service"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	started := time.Now()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Error loading .env file")
	}

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile, cfg.LogMaxAgeDays)
	if err != nil {
		logrus.Fatalf("Failed to configure logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	repo, closeRepo, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeRepo()

	// Notifications
	var sub notify.Subscriber = notify.NewLogSubscriber(log)
	if cfg.EmailEnabled() {
		sub = notify.Fanout{sub, notify.NewEmailSubscriber(cfg, log)}
	}
	bus := notify.NewBus(sub, 64, log)
	go bus.Run(ctx)

	// Initialize layers
	calc := calculator.NewCalculator(cfg.Plans)
	analyses := service.NewAnalysisService(
		repo,
		cache.New[models.SavedAnalysis](cache.WithTTL(cfg.CacheTTL)),
		bus,
		log,
		func() []models.SavedAnalysis { return service.ExampleAnalyses(started, calc) },
	)
	rates := service.NewRateService(
		cache.New[models.UFRate](),
		cfg.UFRateTTL,
		log,
		bcch.NewClient(cfg, log),
		sii.NewScraper(cfg, log),
	)
	proposals := service.NewProposalService(analyses, webhook.NewClient(cfg, log), bus, log)
	auth := service.NewAuthService(cfg, log)
	h := handler.NewHandler(calc, analyses, rates, proposals, auth, log)

	// UF refresh job
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.UFRefreshSpec, func() {
		rate := rates.Refresh(ctx)
		log.WithField("source", rate.Source).Infof("UF rate refreshed: %.2f", rate.Value)
	}); err != nil {
		log.Fatalf("Invalid UF_REFRESH_SPEC %q: %v", cfg.UFRefreshSpec, err)
	}
	scheduler.Start()

	// Setup router
	r := mux.NewRouter()
	h.Register(r, middleware.AuthMiddleware(cfg))

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}
	go func() {
		log.Infof("Starting server on %s (storage: %s)", addr, cfg.StorageDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	<-scheduler.Stop().Done()
	bus.Close()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logrus.Logger) (repository.Storage, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		return repository.NewMemoryRepository(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	repo := repository.NewPostgresRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("Connected to PostgreSQL")
	return repo, func() { db.Close() }, nil
}
