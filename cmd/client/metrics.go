package main

import (
	"fmt"
	"io"
	"net/http"
	"sync"
)

const kibibyte = 1024

type metrics struct {
	payloadBytesIn  int64
	payloadBytesOut int64

	mu sync.RWMutex
}

func (m *metrics) addPayloadBytes(out, in int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloadBytesOut += out
	m.payloadBytesIn += in
}

func (m *metrics) getTotals() (int64, int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payloadBytesOut, m.payloadBytesIn
}

func formatBytes(bytes int64) string {
	if bytes < kibibyte {
		return fmt.Sprintf("%d B", bytes)
	}
	kb := float64(bytes) / kibibyte
	return fmt.Sprintf("%.1f KB", kb)
}

// byteTracker is an http.RoundTripper counting request and response body bytes
type byteTracker struct {
	next    http.RoundTripper
	metrics *metrics
}

func (b *byteTracker) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.ContentLength > 0 {
		b.metrics.addPayloadBytes(req.ContentLength, 0)
	}

	resp, err := b.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	resp.Body = &countingBody{ReadCloser: resp.Body, metrics: b.metrics}
	return resp, nil
}

type countingBody struct {
	io.ReadCloser
	metrics *metrics
}

func (c *countingBody) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	if n > 0 {
		c.metrics.addPayloadBytes(0, int64(n))
	}
	return n, err
}
