// Package main is the entry point for the AstroDesk API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"astrodesk/internal/ai"
	"astrodesk/internal/astro"
	"astrodesk/internal/config"
	"astrodesk/internal/database"
	"astrodesk/internal/handlers"
	"astrodesk/internal/interpret"
	"astrodesk/internal/router"
	"astrodesk/internal/session"
	"astrodesk/internal/store"
)

func main() {
	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"cache_enabled", cfg.CacheEnabled,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions + interpretation cache).
	valkeyClient, err := database.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Initialize session store backed by Valkey.
	sessionStore := session.NewStore(valkeyClient)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	subjectStore := store.NewSubjectStore(db)
	chartStore := store.NewChartStore(db)
	interpStore := store.NewInterpretationStore(db)
	invalidationLog := store.NewInvalidationLogStore(db)

	// Interpretation cache: Valkey-backed with TTL expiry, behind the
	// global enable switch.
	cache := interpret.NewCache(
		interpret.NewValkeyBackend(valkeyClient, cfg.CacheTTL),
		cfg.CacheEnabled,
	)

	// Admission control: two sliding-window tiers.
	limiter := interpret.NewLimiter(map[interpret.Tier]interpret.TierConfig{
		interpret.TierStandard: {Limit: cfg.StandardLimit, Window: cfg.StandardWindow},
		interpret.TierStrict:   {Limit: cfg.StrictLimit, Window: cfg.StrictWindow},
	})
	defer limiter.Stop()

	interpService := interpret.NewService(cache, limiter)

	// Chart computation engine.
	engine := astro.NewEngine()

	// Initialize the AI provider registry with all configured providers.
	aiRegistry := ai.NewRegistry(cfg.AIProvider, map[string]ai.ProviderConfig{
		"openai": {APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL},
		"gemini": {APIKey: cfg.GeminiKey, Model: cfg.GeminiModel, BaseURL: cfg.GeminiBaseURL},
		"claude": {APIKey: cfg.ClaudeKey, Model: cfg.ClaudeModel, BaseURL: cfg.ClaudeBaseURL},
	})

	slog.Info("ai providers initialized",
		"active", aiRegistry.ActiveName(),
		"available", aiRegistry.Available(),
	)

	// Create handler groups with their dependencies.
	authHandlers := handlers.NewAuth(sessionStore, userStore)
	subjectHandlers := handlers.NewSubjects(subjectStore)
	chartHandlers := handlers.NewCharts(chartStore, subjectStore)
	interpHandlers := handlers.NewInterpretations(
		interpService, engine, aiRegistry,
		chartStore, subjectStore, interpStore, invalidationLog,
	)

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, limiter, authHandlers, subjectHandlers, chartHandlers, interpHandlers)

	// Create the HTTP server with sensible timeouts.
	// WriteTimeout must accommodate interpretation endpoints that wait on
	// LLM responses (typically 10-30s, up to 60s for long charts).
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
