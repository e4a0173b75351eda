package main

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"

	"omniauthor.ai/cmd/server/llm"
)

const (
	labelPromptRequired   = "Prompt is required"
	labelGenerationFailed = "Failed to generate content"
	labelBodyTooLarge     = "Request body too large"
	labelInternalError    = "Internal server error"
)

var (
	errPromptRequired = errors.New("prompt is required")
	errInvalidBody    = errors.New("invalid JSON body")
	errBodyTooLarge   = errors.New("request body too large")
)

// GenerationError wraps any failure of the model call
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// badRequest maps validation failures to 4xx responses
func (app *application) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		app.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: labelBodyTooLarge})
	case errors.Is(err, errInvalidBody):
		app.writeJSON(w, http.StatusBadRequest, errorResponse{Error: labelPromptRequired, Message: err.Error()})
	default:
		app.writeJSON(w, http.StatusBadRequest, errorResponse{Error: labelPromptRequired})
	}
}

// generationFailed logs the failure and relays the underlying message verbatim
func (app *application) generationFailed(w http.ResponseWriter, r *http.Request, err *GenerationError) {
	app.logger.Error("error generating content",
		"provider", err.Provider,
		"request_id", requestIDFrom(r.Context()),
		"error", err.Err)

	app.writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   labelGenerationFailed,
		Message: err.Error(),
	})
}

// classifyLLMError buckets provider errors for metrics only
func classifyLLMError(err error) string {
	var apiErr genai.APIError
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	case errors.Is(err, llm.ErrMalformedResponse):
		return "malformed"
	case errors.As(err, &apiErr):
		return "api"
	default:
		return "other"
	}
}
