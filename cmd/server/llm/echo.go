package llm

import (
	"context"
	"fmt"
)

// EchoProvider implements Provider interface with simple echo functionality
type EchoProvider struct{}

// NewEchoProvider creates a new echo provider
func NewEchoProvider() Provider {
	return &EchoProvider{}
}

// GenerateResponse returns the prompt with "Echo: " prefix
func (e *EchoProvider) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Echo: %s", prompt), nil
}

// Name returns the provider name
func (e *EchoProvider) Name() string {
	return GetProviderName(ProviderEcho)
}
