package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey    contextKey = "request_id"
	requestIDHeader            = "X-Request-ID"
)

// requestID tags every request with a UUID, keeping a valid one supplied by the client
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// accessLog writes one line per request and records request metrics
func (app *application) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		route := routeLabel(r)

		recordRequestDuration(route, duration.Seconds())
		if r.ContentLength > 0 {
			recordRequestSize(route, int(r.ContentLength))
		}
		if status >= http.StatusBadRequest {
			incrementHTTPError(route, strconv.Itoa(status))
		}

		app.logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", duration,
			"bytes", ww.BytesWritten(),
			"request_id", requestIDFrom(r.Context()),
			"client_ip", clientIP(r))
	})
}

// recoverPanic turns a handler panic into a 500 so the process keeps serving.
// A response whose headers already went out is left as is.
func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				app.logger.Error("panic while handling request",
					"panic", fmt.Sprint(rec),
					"path", r.URL.Path,
					"headers_sent", ww.Status() != 0,
					"request_id", requestIDFrom(r.Context()))
				if ww.Status() != 0 {
					return
				}
				w.Header().Set("Connection", "close")
				app.writeJSON(ww, http.StatusInternalServerError, errorResponse{Error: labelInternalError})
			}
		}()
		next.ServeHTTP(ww, r)
	})
}

// routeLabel uses the matched chi pattern so metric cardinality stays bounded
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// clientIP extracts the client IP from the request
func clientIP(r *http.Request) string {
	return extractIP(r.RemoteAddr, r.Header.Get("X-Forwarded-For"))
}

// extractIP prefers the first X-Forwarded-For entry and falls back to the remote address
func extractIP(remoteAddr string, forwardedFor string) string {
	if forwardedFor != "" {
		// X-Forwarded-For can contain multiple IPs: "client, proxy1, proxy2"
		ips := strings.Split(forwardedFor, ",")
		ip := strings.TrimSpace(ips[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		// If we can't split host:port, assume it's just an IP
		return remoteAddr
	}
	return host
}
