package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"omniauthor.ai/cmd/server/llm"
)

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "omniauthor_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"route"},
	)

	requestBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "omniauthor_request_bytes",
			Help:    "Size of request payloads in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
		},
		[]string{"route"},
	)

	llmCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "omniauthor_llm_call_duration_seconds",
			Help:    "Duration of LLM provider calls in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 20.0, 30.0, 60.0},
		},
		[]string{"provider"},
	)

	// Error tracking
	httpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omniauthor_http_errors_total",
			Help: "Total number of HTTP error responses by route and status",
		},
		[]string{"route", "status"},
	)

	llmErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omniauthor_llm_errors_total",
			Help: "Total number of LLM provider errors",
		},
		[]string{"provider", "error_type"},
	)

	// Server configuration info metrics
	serverConfigInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "omniauthor_server_config_info",
			Help: "Server configuration information as labels",
		},
		[]string{"provider", "model", "location"},
	)

	serverStartTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "omniauthor_server_start_time_seconds",
			Help: "Unix timestamp when the server started",
		},
	)
)

func recordRequestDuration(route string, seconds float64) {
	requestDuration.WithLabelValues(route).Observe(seconds)
}

func recordRequestSize(route string, bytes int) {
	requestBytes.WithLabelValues(route).Observe(float64(bytes))
}

func recordLLMCallDuration(provider string, seconds float64) {
	llmCallDuration.WithLabelValues(provider).Observe(seconds)
}

func incrementHTTPError(route string, status string) {
	httpErrors.WithLabelValues(route, status).Inc()
}

func incrementLLMError(provider string, errorType string) {
	llmErrors.WithLabelValues(provider, errorType).Inc()
}

// initializeServerMetrics sets up one-time server configuration metrics
func initializeServerMetrics(cfg config, provider llm.Provider) {
	serverStartTime.Set(float64(time.Now().Unix()))
	serverConfigInfo.WithLabelValues(provider.Name(), modelLabel(provider), cfg.location).Set(1)
}

// modelLabel reports the model actually serving, empty for providers without one
func modelLabel(provider llm.Provider) string {
	if m, ok := provider.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}
