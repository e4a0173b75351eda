package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes caps generation request bodies at 100 KiB
const maxBodyBytes = 100 << 10

// isoMillis is ISO-8601 in UTC with millisecond precision
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type generationRequest struct {
	Prompt string `json:"prompt"`
}

type generationResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

type infoResponse struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}

func serviceInfo() infoResponse {
	return infoResponse{
		Name:        "OmniAuthor API",
		Version:     "1.0.0",
		Description: "AI-powered novel writing platform using Vertex AI Gemini",
		Endpoints: map[string]string{
			"health":   "/health",
			"generate": "/api/generate",
			"copilot":  "/api/copilot",
		},
	}
}

func (app *application) healthHandler(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Service:   serviceName,
		Timestamp: app.now().UTC().Format(isoMillis),
	})
}

func (app *application) infoHandler(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, http.StatusOK, serviceInfo())
}

func (app *application) generateHandler(w http.ResponseWriter, r *http.Request) {
	var req generationRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.badRequest(w, r, err)
		return
	}

	if err := req.validate(); err != nil {
		app.badRequest(w, r, err)
		return
	}

	name := app.provider.Name()
	start := time.Now()
	reply, err := app.provider.GenerateResponse(r.Context(), req.Prompt)
	recordLLMCallDuration(name, time.Since(start).Seconds())
	if err != nil {
		incrementLLMError(name, classifyLLMError(err))
		app.generationFailed(w, r, &GenerationError{Provider: name, Err: err})
		return
	}

	app.writeJSON(w, http.StatusOK, generationResponse{
		Success:  true,
		Response: reply,
	})
}

func (req generationRequest) validate() error {
	if req.Prompt == "" {
		return errPromptRequired
	}
	return nil
}

// readJSON decodes a single JSON object from a size-limited request body
func (app *application) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		// An empty body is treated as an empty object
		if errors.Is(err, io.EOF) {
			return nil
		}
		return decodeError(err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return fmt.Errorf("%w: body must contain a single JSON value", errInvalidBody)
		}
		return decodeError(err)
	}
	return nil
}

func decodeError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return errBodyTooLarge
	}
	return fmt.Errorf("%w: %v", errInvalidBody, err)
}

func (app *application) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		app.logger.Error("failed to write response", "error", err)
	}
}
