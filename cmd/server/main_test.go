package main

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"omniauthor.ai/cmd/server/llm"
)

var configEnv = []string{
	"PORT",
	"APP_ENV",
	"GOOGLE_CLOUD_PROJECT",
	"GEMINI_LOCATION",
	"GEMINI_MODEL",
	"LLM_PROVIDER",
	"SHUTDOWN_TIMEOUT",
}

// clearConfigEnv blanks every variable loadConfig reads, so defaults apply
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := loadConfig(discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.port)
	}
	if cfg.env != "production" {
		t.Errorf("expected env production, got %q", cfg.env)
	}
	if cfg.projectID != defaultProjectID {
		t.Errorf("expected default project, got %q", cfg.projectID)
	}
	if cfg.location != "us-central1" {
		t.Errorf("expected location us-central1, got %q", cfg.location)
	}
	if cfg.model != "gemini-1.5-pro-002" {
		t.Errorf("expected model gemini-1.5-pro-002, got %q", cfg.model)
	}
	if cfg.provider != llm.ProviderGemini {
		t.Errorf("expected provider gemini, got %q", cfg.provider)
	}
	if cfg.shutdownTimeout != 10*time.Second {
		t.Errorf("expected shutdown timeout 10s, got %v", cfg.shutdownTimeout)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "development")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "novel-writer-prod")
	t.Setenv("GEMINI_LOCATION", "europe-west4")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-flash")
	t.Setenv("LLM_PROVIDER", "echo")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := loadConfig(discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.port)
	}
	if cfg.env != "development" {
		t.Errorf("expected env development, got %q", cfg.env)
	}
	if cfg.projectID != "novel-writer-prod" {
		t.Errorf("expected project novel-writer-prod, got %q", cfg.projectID)
	}
	if cfg.location != "europe-west4" {
		t.Errorf("expected location europe-west4, got %q", cfg.location)
	}
	if cfg.provider != llm.ProviderEcho {
		t.Errorf("expected provider echo, got %q", cfg.provider)
	}
	if cfg.shutdownTimeout != 30*time.Second {
		t.Errorf("expected shutdown timeout 30s, got %v", cfg.shutdownTimeout)
	}

	settings := cfg.llmSettings()
	if settings.Params.Model != "gemini-2.5-flash" {
		t.Errorf("expected model to flow into settings, got %q", settings.Params.Model)
	}
	if settings.Params.MaxOutputTokens != 2048 || settings.Params.TopP != 0.95 || settings.Params.Temperature != 1.0 {
		t.Errorf("expected fixed generation params, got %+v", settings.Params)
	}
}

func TestLoadConfigInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric port", "PORT", "abc"},
		{"port out of range", "PORT", "70000"},
		{"unknown provider", "LLM_PROVIDER", "openai"},
		{"bad shutdown timeout", "SHUTDOWN_TIMEOUT", "soon"},
		{"negative shutdown timeout", "SHUTDOWN_TIMEOUT", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := loadConfig(discardLogger()); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
