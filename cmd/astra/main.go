package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/astra-labs/astra/internal/api"
	"github.com/astra-labs/astra/internal/auth"
	"github.com/astra-labs/astra/internal/config"
	"github.com/astra-labs/astra/internal/docstore"
	"github.com/astra-labs/astra/internal/events"
	"github.com/astra-labs/astra/internal/gemini"
	"github.com/astra-labs/astra/internal/history"
	"github.com/astra-labs/astra/internal/prefs"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// A .env file is optional; real deployments set the environment.
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("astra starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	store, err := docstore.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("database connected")

	// Gemini client
	if cfg.GeminiAPIKey == "" {
		slog.Error("GEMINI_API_KEY is required")
		os.Exit(1)
	}
	llm := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	if cfg.GeminiBaseURL != "" {
		llm.SetBaseURL(cfg.GeminiBaseURL)
	}
	slog.Info("gemini client ready", "model", cfg.GeminiModel)

	// Auth
	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	verifier := auth.NewVerifier(cfg.JWTSecret)

	// Preferences
	prefStore, err := prefs.Open(cfg.PrefsDBPath)
	if err != nil {
		slog.Error("failed to open preferences store", "error", err)
		os.Exit(1)
	}
	defer prefStore.Close()

	// Event publisher (optional — Astra works without NATS, just no
	// activity stream)
	var pub *events.Publisher
	if cfg.NatsURL != "" {
		pub, err = events.NewPublisher(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured — running without activity events")
	}

	adapter := history.New(store, cfg.HistoryLimit, slog.Default())

	srv := api.NewServer(cfg.Port, adapter, llm, pub, prefStore, verifier, slog.Default())
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("astra ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	cancel()
	slog.Info("astra stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
