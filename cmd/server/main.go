// Riddler - A2A riddle agent server
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

	"github.com/ashureev/riddler/internal/agent"
	"github.com/ashureev/riddler/internal/api"
	"github.com/ashureev/riddler/internal/config"
	"github.com/ashureev/riddler/internal/intent"
	"github.com/ashureev/riddler/internal/metrics"
	"github.com/ashureev/riddler/internal/middleware"
	"github.com/ashureev/riddler/internal/provider"
	"github.com/ashureev/riddler/internal/session"
	"github.com/ashureev/riddler/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "version", cfg.Version, "store", cfg.Store.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	sessions, err := store.New(ctx, cfg.Store)
	if err != nil {
		slog.Error("Failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	if err := sessions.Ping(ctx); err != nil {
		slog.Error("Session store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Session store connected", "backend", cfg.Store.Backend)

	riddles := provider.FromConfig(ctx, cfg.Provider, logger)

	conversationLogger, err := agent.NewConversationLogger(agent.ConversationLogConfig{
		Enabled:       cfg.ConversationLog.Enabled,
		Dir:           cfg.ConversationLog.Dir,
		GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
		GlobalPath:    cfg.ConversationLog.GlobalPath,
		QueueSize:     cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}

	// Initialize handlers.
	classifier := intent.NewClassifier(intent.Config{
		HintAliases:     cfg.Intent.HintAliases,
		AnswerAliases:   cfg.Intent.AnswerAliases,
		StrictNewRiddle: cfg.Intent.StrictNewRiddle,
	})
	controller := session.NewController(sessions, riddles, logger)
	agentHandler := agent.NewHandler(classifier, controller, conversationLogger, cfg, logger)
	defer agentHandler.Close()
	healthHandler := api.NewHealthHandler(cfg.Version, sessions)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	healthHandler.RegisterHealth(r)
	r.Handle("/metrics", promhttp.Handler())
	agentHandler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Provider.Timeout*time.Duration(len(riddles.Upstreams())+1) + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start session sweeper.
	sweeperDone := store.StartSweeper(ctx, sessions, cfg.Store.SweepInterval, cfg.Store.SessionTTL, func(removed int64) {
		metrics.SessionsPurgedTotal.Add(float64(removed))
	})

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	<-sweeperDone

	slog.Info("Server stopped successfully")
}
