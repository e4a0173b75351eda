package llm

import "context"

// UnavailableProvider stands in for a provider that failed to initialize.
// Every call returns the initialization error so the server keeps serving.
type UnavailableProvider struct {
	name string
	err  error
}

func NewUnavailableProvider(name string, err error) *UnavailableProvider {
	return &UnavailableProvider{name: name, err: err}
}

func (p *UnavailableProvider) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	return "", p.err
}

func (p *UnavailableProvider) Name() string {
	return GetProviderName(p.name)
}
