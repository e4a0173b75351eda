package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"omniauthor.ai/cmd/server/llm"
)

const (
	serviceName        = "omniauthor-api"
	defaultProjectID   = "gen-lang-client-0479434734"
	defaultLocation    = "us-central1"
	defaultPort        = 8080
	defaultEnv         = "production"
	defaultShutdownTTL = 10 * time.Second
)

type config struct {
	port            int
	env             string
	projectID       string
	location        string
	model           string
	provider        string
	shutdownTimeout time.Duration
}

func (c config) llmSettings() llm.Settings {
	params := llm.DefaultGenerationParams()
	params.Model = c.model
	return llm.Settings{
		Provider: c.provider,
		Env:      c.env,
		Project:  c.projectID,
		Location: c.location,
		Params:   params,
	}
}

type application struct {
	config   config
	logger   *slog.Logger
	provider llm.Provider
	now      func() time.Time
}

func newApplication(cfg config, logger *slog.Logger, provider llm.Provider) *application {
	return &application{
		config:   cfg,
		logger:   logger,
		provider: provider,
		now:      time.Now,
	}
}

// loadConfig loads configuration from environment variables
func loadConfig(logger *slog.Logger) (config, error) {
	cfg := config{}

	// Load .env file - check current directory first, then project root
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			logger.Debug("no .env file found, using environment variables only")
		}
	}

	cfg.port = defaultPort
	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			logger.Error("invalid PORT value", "value", portStr, "error", err)
			return cfg, fmt.Errorf("invalid PORT: %q", portStr)
		}
		cfg.port = port
	}

	cfg.env = os.Getenv("APP_ENV")
	if cfg.env == "" {
		cfg.env = defaultEnv
	}

	cfg.projectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	if cfg.projectID == "" {
		// Deployments that forget GOOGLE_CLOUD_PROJECT silently bill the default project
		logger.Warn("GOOGLE_CLOUD_PROJECT not set, using default project", "project", defaultProjectID)
		cfg.projectID = defaultProjectID
	}

	cfg.location = os.Getenv("GEMINI_LOCATION")
	if cfg.location == "" {
		cfg.location = defaultLocation
	}

	cfg.model = os.Getenv("GEMINI_MODEL")
	if cfg.model == "" {
		cfg.model = llm.DefaultGenerationParams().Model
	}

	cfg.provider = os.Getenv("LLM_PROVIDER")
	if cfg.provider == "" {
		cfg.provider = llm.ProviderGemini
	}
	if cfg.provider != llm.ProviderGemini && cfg.provider != llm.ProviderEcho {
		logger.Error("invalid LLM_PROVIDER value", "value", cfg.provider)
		return cfg, fmt.Errorf("invalid LLM_PROVIDER: %q", cfg.provider)
	}

	cfg.shutdownTimeout = defaultShutdownTTL
	if timeoutStr := os.Getenv("SHUTDOWN_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil || timeout <= 0 {
			logger.Error("invalid SHUTDOWN_TIMEOUT value", "value", timeoutStr, "error", err)
			return cfg, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %q", timeoutStr)
		}
		cfg.shutdownTimeout = timeout
	}

	return cfg, nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := loadConfig(logger)
	if err != nil {
		os.Exit(1)
	}

	provider, err := llm.NewProvider(context.Background(), cfg.llmSettings(), logger)
	if err != nil {
		logger.Error("failed to create LLM provider", "provider", cfg.provider, "error", err)
		os.Exit(1)
	}

	app := newApplication(cfg, logger, provider)
	initializeServerMetrics(cfg, provider)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.port),
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("OmniAuthor API listening",
			"addr", srv.Addr,
			"env", cfg.env,
			"project", cfg.projectID,
			"location", cfg.location,
			"model", cfg.model,
			"provider", provider.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case sig := <-sigChan:
		logger.Info("shutting down gracefully...", "signal", sig.String())
	case err, ok := <-serveErr:
		if ok {
			logger.Error("failed to serve", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
