package llm

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	ProviderGemini = "gemini"
	ProviderEcho   = "echo"
)

// Settings selects and configures a provider
type Settings struct {
	Provider string
	Env      string
	Project  string
	Location string
	Params   GenerationParams
}

// NewProvider creates a provider based on the configured provider name.
// Only an unknown provider name is an error. A Gemini client that cannot be
// created yields an UnavailableProvider outside development.
func NewProvider(ctx context.Context, s Settings, logger *slog.Logger) (Provider, error) {
	isDev := s.Env == "development"

	switch s.Provider {
	case ProviderGemini, "":
		provider, err := NewGeminiProvider(ctx, s.Project, s.Location, s.Params)
		if err != nil {
			if isDev {
				logger.Warn("failed to create Gemini provider, falling back to Echo", "error", err)
				return NewEchoProvider(), nil
			}
			logger.Error("failed to create Gemini provider, generation requests will fail", "error", err)
			return NewUnavailableProvider(ProviderGemini, err), nil
		}
		return provider, nil
	case ProviderEcho:
		if !isDev {
			logger.Warn("Echo provider requested outside development, using Gemini", "env", s.Env)
			provider, err := NewGeminiProvider(ctx, s.Project, s.Location, s.Params)
			if err != nil {
				logger.Error("failed to create Gemini provider, generation requests will fail", "error", err)
				return NewUnavailableProvider(ProviderGemini, err), nil
			}
			return provider, nil
		}
		logger.Info("using Echo provider for development")
		return NewEchoProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", s.Provider)
	}
}

// GetProviderName returns a human-readable name for the provider
func GetProviderName(name string) string {
	switch name {
	case ProviderGemini:
		return "Gemini (Vertex AI)"
	case ProviderEcho:
		return "Echo (Dev/Test)"
	default:
		return fmt.Sprintf("Unknown Provider %q", name)
	}
}
