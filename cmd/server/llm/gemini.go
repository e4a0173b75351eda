package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiModels is the subset of *genai.Models used by the provider
type GeminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider implements Provider interface using Gemini on Vertex AI
type GeminiProvider struct {
	models GeminiModels
	params GenerationParams
}

// NewGeminiProvider creates a Vertex AI backed provider for the given project and region
func NewGeminiProvider(ctx context.Context, project, location string, params GenerationParams) (Provider, error) {
	if project == "" {
		return nil, fmt.Errorf("project ID is required for Vertex AI")
	}
	if location == "" {
		return nil, fmt.Errorf("location is required for Vertex AI")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  project,
		Location: location,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return newGeminiProvider(client.Models, params), nil
}

func newGeminiProvider(models GeminiModels, params GenerationParams) *GeminiProvider {
	return &GeminiProvider{models: models, params: params}
}

// GenerateResponse sends the prompt to Gemini and returns the first candidate's text
func (g *GeminiProvider) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: g.params.MaxOutputTokens,
		Temperature:     genai.Ptr(g.params.Temperature),
		TopP:            genai.Ptr(g.params.TopP),
	}

	// SDK errors are returned unwrapped; their message is relayed to clients as-is
	result, err := g.models.GenerateContent(ctx, g.params.Model, genai.Text(prompt), config)
	if err != nil {
		return "", err
	}

	return firstText(result)
}

// firstText picks the first part of the first candidate, the only one the gateway relays
func firstText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}
	candidate := result.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 || candidate.Content.Parts[0] == nil {
		return "", fmt.Errorf("%w: candidate has no content parts", ErrMalformedResponse)
	}
	return candidate.Content.Parts[0].Text, nil
}

// Name returns the provider name
func (g *GeminiProvider) Name() string {
	return GetProviderName(ProviderGemini)
}

// Model returns the configured model identifier
func (g *GeminiProvider) Model() string {
	return g.params.Model
}
