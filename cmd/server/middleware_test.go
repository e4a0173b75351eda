package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"omniauthor.ai/cmd/server/llm"
)

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name         string
		remoteAddr   string
		forwardedFor string
		expected     string
	}{
		{
			name:         "simple IP with port",
			remoteAddr:   "192.168.1.1:54321",
			forwardedFor: "",
			expected:     "192.168.1.1",
		},
		{
			name:         "IP without port",
			remoteAddr:   "10.0.0.1",
			forwardedFor: "",
			expected:     "10.0.0.1",
		},
		{
			name:         "forwarded header single IP",
			remoteAddr:   "10.0.0.1:12345",
			forwardedFor: "203.0.113.1",
			expected:     "203.0.113.1",
		},
		{
			name:         "forwarded header multiple IPs",
			remoteAddr:   "10.0.0.1:12345",
			forwardedFor: "203.0.113.1, 198.51.100.1, 192.0.2.1",
			expected:     "203.0.113.1",
		},
		{
			name:         "forwarded header with spaces",
			remoteAddr:   "10.0.0.1:12345",
			forwardedFor: " 203.0.113.1 ",
			expected:     "203.0.113.1",
		},
		{
			name:         "invalid forwarded header falls back",
			remoteAddr:   "10.0.0.1:12345",
			forwardedFor: "not-an-ip",
			expected:     "10.0.0.1",
		},
		{
			name:         "IPv6 with port",
			remoteAddr:   "[2001:db8::1]:8080",
			forwardedFor: "",
			expected:     "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractIP(tt.remoteAddr, tt.forwardedFor)
			if result != tt.expected {
				t.Errorf("extractIP(%q, %q) = %q, want %q",
					tt.remoteAddr, tt.forwardedFor, result, tt.expected)
			}
		})
	}
}

func TestRequestIDGenerated(t *testing.T) {
	app := setupTestApplication(t, llm.NewEchoProvider())

	rec := serve(app, http.MethodGet, "/health", nil)

	id := rec.Header().Get(requestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected a UUID request id, got %q", id)
	}

	other := serve(app, http.MethodGet, "/health", nil).Header().Get(requestIDHeader)
	if other == id {
		t.Error("expected distinct request ids per request")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	app := setupTestApplication(t, llm.NewEchoProvider())
	supplied := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, supplied)
	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != supplied {
		t.Errorf("expected supplied request id %q, got %q", supplied, got)
	}
}

func TestRequestIDRejectsGarbage(t *testing.T) {
	app := setupTestApplication(t, llm.NewEchoProvider())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "<script>")
	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)

	got := rec.Header().Get(requestIDHeader)
	if got == "<script>" {
		t.Fatal("expected invalid request id to be replaced")
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("expected a UUID request id, got %q", got)
	}
}

func TestRecoverPanic(t *testing.T) {
	app := setupTestApplication(t, llm.NewEchoProvider())

	handler := app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}

	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Error != labelInternalError {
		t.Errorf("expected %q, got %q", labelInternalError, resp.Error)
	}

	// The application keeps serving after a panic
	if rec := serve(app, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Errorf("expected health to keep working, got %d", rec.Code)
	}
}

func TestRecoverPanicAfterHeadersSent(t *testing.T) {
	app := setupTestApplication(t, llm.NewEchoProvider())

	handler := app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("partial"))
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected original status 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "partial" {
		t.Errorf("expected body to be left untouched, got %q", body)
	}
}

func TestRouteLabel(t *testing.T) {
	if got := routeLabel(httptest.NewRequest(http.MethodGet, "/x", nil)); got != "unmatched" {
		t.Errorf("expected 'unmatched' without chi context, got %q", got)
	}
}
