package llm

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewProvider_EchoInDevelopment(t *testing.T) {
	provider, err := NewProvider(context.Background(), Settings{Provider: ProviderEcho, Env: "development"}, newTestLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := provider.(*EchoProvider); !ok {
		t.Fatalf("expected EchoProvider, got %T", provider)
	}
}

func TestNewProvider_UnknownProvider(t *testing.T) {
	_, err := NewProvider(context.Background(), Settings{Provider: "claude", Env: "development"}, newTestLogger())
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewProvider_GeminiUnavailableInProduction(t *testing.T) {
	for _, name := range []string{ProviderGemini, ProviderEcho} {
		t.Run(name, func(t *testing.T) {
			s := Settings{Provider: name, Env: "production", Location: "us-central1", Params: DefaultGenerationParams()}

			provider, err := NewProvider(context.Background(), s, newTestLogger())
			if err != nil {
				t.Fatalf("expected server to keep a provider, got error: %v", err)
			}
			if _, ok := provider.(*UnavailableProvider); !ok {
				t.Fatalf("expected UnavailableProvider, got %T", provider)
			}
			if provider.Name() != "Gemini (Vertex AI)" {
				t.Errorf("unexpected name %q", provider.Name())
			}

			_, err = provider.GenerateResponse(context.Background(), "Hello")
			if err == nil || !strings.Contains(err.Error(), "project ID is required") {
				t.Fatalf("expected construction error on every call, got %v", err)
			}
		})
	}
}

func TestNewProvider_GeminiFallsBackToEchoInDevelopment(t *testing.T) {
	s := Settings{Provider: ProviderGemini, Env: "development", Location: "us-central1", Params: DefaultGenerationParams()}

	provider, err := NewProvider(context.Background(), s, newTestLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := provider.(*EchoProvider); !ok {
		t.Fatalf("expected Echo fallback, got %T", provider)
	}
}

func TestGetProviderName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{ProviderGemini, "Gemini (Vertex AI)"},
		{ProviderEcho, "Echo (Dev/Test)"},
		{"other", `Unknown Provider "other"`},
	}

	for _, tt := range tests {
		if got := GetProviderName(tt.name); got != tt.expected {
			t.Errorf("GetProviderName(%q) = %q, want %q", tt.name, got, tt.expected)
		}
	}
}

func TestEchoProvider_GenerateResponse(t *testing.T) {
	provider := NewEchoProvider()

	response, err := provider.GenerateResponse(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response != "Echo: Hello" {
		t.Fatalf("expected 'Echo: Hello', got %q", response)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := provider.GenerateResponse(ctx, "Hello"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
