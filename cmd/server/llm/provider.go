package llm

import (
	"context"
	"errors"
)

//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks

// Provider defines the interface for text generation backends
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string) (string, error)
	Name() string
}

// ErrMalformedResponse is returned when the model replies without a usable text part
var ErrMalformedResponse = errors.New("malformed model response")

// GenerationParams holds the fixed parameters sent with every prompt
type GenerationParams struct {
	Model           string
	MaxOutputTokens int32
	Temperature     float32
	TopP            float32
}

// DefaultGenerationParams returns the parameters the service has always shipped with
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Model:           "gemini-1.5-pro-002",
		MaxOutputTokens: 2048,
		Temperature:     1.0,
		TopP:            0.95,
	}
}
