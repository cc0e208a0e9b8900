package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-reporter/internal/api"
	"crypto-reporter/internal/config"
	"crypto-reporter/internal/database"
	"crypto-reporter/internal/logger"
	"crypto-reporter/internal/report"
	"crypto-reporter/internal/scheduler"
	"crypto-reporter/internal/services/coingecko"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	memoryRecorderSize = 288 // one day of 5 minute cycles
	shutdownTimeout    = 10 * time.Second
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if envErr != nil {
		zlog.Debug("No .env file found, using environment variables")
	}
	zlog.Infow("Crypto reporter starting",
		"endpoint", cfg.CoinGecko.BaseURL,
		"report", cfg.ReportPath,
		"interval", cfg.Interval,
		"schedule", cfg.Schedule,
	)

	var recorder database.Recorder = database.NewMemoryRecorder(memoryRecorderSize)
	if cfg.DatabaseURL != "" {
		db, err := database.Initialize(cfg.DatabaseURL, zlog)
		if err != nil {
			zlog.Fatalf("Failed to connect to database: %v", err)
		}
		recorder = database.NewGormRecorder(db)
	}

	client := coingecko.NewClient(cfg.CoinGecko, zlog)
	sched, err := scheduler.New(cfg, client, report.NewWriter(), recorder, zlog)
	if err != nil {
		zlog.Fatalf("Failed to create scheduler: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPAddr != "" {
		if cfg.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.NewRouter(sched, recorder),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			zlog.Infof("Status API listening on %s", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zlog.Errorf("Status API stopped: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zlog.Warnf("Status API shutdown: %v", err)
			}
		}()
	}

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zlog.Errorf("Scheduler exited: %v", err)
	}
	zlog.Info("Shutting down")
}
