package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

// LoadTestConfig holds configuration for the load test
type LoadTestConfig struct {
	ServerAddress   string
	ConcurrentUsers int
	MessagesPerUser int
	TestDuration    time.Duration
	RequestsPerSec  float64 // 0 disables pacing
	ExpectEcho      bool    // server runs the echo provider, replies must contain their prompt
}

// LoadTestResults holds the results of a load test
type LoadTestResults struct {
	TotalRequests  int64
	SuccessfulReqs int64
	FailedReqs     int64
	MinLatency     time.Duration
	MaxLatency     time.Duration
	Latencies      []time.Duration // All successful request latencies for percentile calculation
	StartTime      time.Time
	EndTime        time.Time
	ErrorsByType   map[string]int64
}

// LoadTester manages the load testing
type LoadTester struct {
	config  LoadTestConfig
	results LoadTestResults
	mu      sync.Mutex
	client  *http.Client
	limiter *rate.Limiter
	out     io.Writer
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Error    string `json:"error"`
}

// novel-writing prompts sent by simulated users
var prompts = []string{
	"Write the opening line of a mystery novel set in a lighthouse.",
	"Describe a rainy market street in a cyberpunk city.",
	"Give me three names for a reluctant dragon.",
	"Summarize the hero's journey in two sentences.",
	"Write a dialogue between a detective and a talking cat.",
	"Suggest a plot twist for a space opera.",
	"Describe the smell of an old library.",
	"Write a haiku about writer's block.",
}

// NewLoadTester creates a new load tester
func NewLoadTester(config LoadTestConfig) *LoadTester {
	limit := rate.Inf
	burst := 1
	if config.RequestsPerSec > 0 {
		limit = rate.Limit(config.RequestsPerSec)
		burst = max(1, int(config.RequestsPerSec))
	}

	return &LoadTester{
		config: config,
		results: LoadTestResults{
			ErrorsByType: make(map[string]int64),
			MinLatency:   time.Hour, // Initialize to a large value
		},
		client:  &http.Client{Timeout: 2 * time.Minute},
		limiter: rate.NewLimiter(limit, burst),
		out:     os.Stdout,
	}
}

// promptFor makes every prompt unique so replies can be matched to their request
func promptFor(userID, msg int) string {
	return fmt.Sprintf("[user %d msg %d] %s", userID, msg, prompts[msg%len(prompts)])
}

// runUser simulates a single user's session
func (lt *LoadTester) runUser(ctx context.Context, userID int, wg *sync.WaitGroup) {
	defer wg.Done()

	for i := 0; i < lt.config.MessagesPerUser; i++ {
		if err := lt.limiter.Wait(ctx); err != nil {
			return
		}

		prompt := promptFor(userID, i)
		startTime := time.Now()
		reply, err := lt.generate(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			lt.recordError(err.Error())
			continue
		}
		latency := time.Since(startTime)

		if lt.config.ExpectEcho && !strings.Contains(reply, prompt) {
			lt.recordError("cross_request_leak")
			continue
		}

		lt.recordSuccess(latency)
	}
}

func (lt *LoadTester) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal_error")
	}

	url := strings.TrimRight(lt.config.ServerAddress, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("request_error")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := lt.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("connection_error")
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode_error")
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		return "", fmt.Errorf("http_%d", resp.StatusCode)
	}
	return out.Response, nil
}

// recordSuccess records a successful request
func (lt *LoadTester) recordSuccess(latency time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	lt.results.TotalRequests++
	lt.results.SuccessfulReqs++

	// Store individual latency for percentile calculation
	lt.results.Latencies = append(lt.results.Latencies, latency)

	if latency < lt.results.MinLatency {
		lt.results.MinLatency = latency
	}
	if latency > lt.results.MaxLatency {
		lt.results.MaxLatency = latency
	}
}

// recordError records a failed request
func (lt *LoadTester) recordError(errorType string) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	lt.results.TotalRequests++
	lt.results.FailedReqs++
	lt.results.ErrorsByType[errorType]++
}

// calculatePercentile calculates the nth percentile from a sorted slice of durations
func calculatePercentile(sortedLatencies []time.Duration, percentile float64) time.Duration {
	if len(sortedLatencies) == 0 {
		return 0
	}

	index := (percentile / 100.0) * float64(len(sortedLatencies)-1)
	if index == float64(int(index)) {
		return sortedLatencies[int(index)]
	}

	// Interpolate between two values
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedLatencies) {
		return sortedLatencies[lower]
	}

	weight := index - float64(lower)
	lowerVal := float64(sortedLatencies[lower].Nanoseconds())
	upperVal := float64(sortedLatencies[upper].Nanoseconds())
	interpolated := lowerVal + weight*(upperVal-lowerVal)

	return time.Duration(interpolated)
}

// Run executes the load test
func (lt *LoadTester) Run(ctx context.Context) LoadTestResults {
	ctx, cancel := context.WithTimeout(ctx, lt.config.TestDuration)
	defer cancel()

	lt.results.StartTime = time.Now()

	var wg sync.WaitGroup
	for i := 0; i < lt.config.ConcurrentUsers; i++ {
		wg.Add(1)
		go lt.runUser(ctx, i, &wg)
	}
	wg.Wait()

	lt.results.EndTime = time.Now()

	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.results
}

// PrintResults prints the load test results
func (lt *LoadTester) PrintResults() {
	lt.mu.Lock()
	results := lt.results
	lt.mu.Unlock()
	duration := results.EndTime.Sub(results.StartTime)
	w := lt.out

	fmt.Fprintf(w, "\n=== Load Test Results ===\n")
	fmt.Fprintf(w, "Duration: %v\n", duration)
	fmt.Fprintf(w, "Concurrent Users: %d\n", lt.config.ConcurrentUsers)
	fmt.Fprintf(w, "Messages Per User: %d\n", lt.config.MessagesPerUser)
	fmt.Fprintf(w, "\n--- Request Statistics ---\n")
	fmt.Fprintf(w, "Total Requests: %d\n", results.TotalRequests)
	fmt.Fprintf(w, "Successful: %d\n", results.SuccessfulReqs)
	fmt.Fprintf(w, "Failed: %d\n", results.FailedReqs)
	if results.TotalRequests > 0 {
		fmt.Fprintf(w, "Success Rate: %.2f%%\n", float64(results.SuccessfulReqs)/float64(results.TotalRequests)*100)
	}

	if results.SuccessfulReqs > 0 {
		fmt.Fprintf(w, "\n--- Latency Distribution ---\n")

		sortedLatencies := make([]time.Duration, len(results.Latencies))
		copy(sortedLatencies, results.Latencies)
		sort.Slice(sortedLatencies, func(i, j int) bool {
			return sortedLatencies[i] < sortedLatencies[j]
		})

		fmt.Fprintf(w, "Min Latency: %v\n", results.MinLatency)
		fmt.Fprintf(w, "P50 (Median): %v\n", calculatePercentile(sortedLatencies, 50))
		fmt.Fprintf(w, "P95: %v\n", calculatePercentile(sortedLatencies, 95))
		fmt.Fprintf(w, "P99: %v\n", calculatePercentile(sortedLatencies, 99))
		fmt.Fprintf(w, "Max Latency: %v\n", results.MaxLatency)

		throughput := float64(results.SuccessfulReqs) / duration.Seconds()
		fmt.Fprintf(w, "Throughput: %.2f requests/second\n", throughput)
	}

	if len(results.ErrorsByType) > 0 {
		fmt.Fprintf(w, "\n--- Error Breakdown ---\n")
		for errorType, count := range results.ErrorsByType {
			fmt.Fprintf(w, "%s: %d\n", errorType, count)
		}
	}
}

// getServerAddress constructs server address from environment variables
func getServerAddress() string {
	host := os.Getenv("SERVER_NAME")
	if host == "" {
		host = "localhost"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return fmt.Sprintf("http://%s:%s", host, port)
}

// expectEchoDefault mirrors the server, which serves Echo only in development
func expectEchoDefault() bool {
	return os.Getenv("LLM_PROVIDER") == "echo" && os.Getenv("APP_ENV") == "development"
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load .env file - check current directory first, then project root
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			logger.Info("no .env file found, using environment variables only")
		}
	}

	config := LoadTestConfig{}
	flag.StringVar(&config.ServerAddress, "addr", getServerAddress(), "OmniAuthor API base URL")
	flag.IntVar(&config.ConcurrentUsers, "users", 10, "concurrent users")
	flag.IntVar(&config.MessagesPerUser, "messages", 5, "prompts per user")
	flag.DurationVar(&config.TestDuration, "duration", time.Minute, "maximum test duration")
	flag.Float64Var(&config.RequestsPerSec, "rps", 10, "target requests per second across all users (0 = unlimited)")
	flag.BoolVar(&config.ExpectEcho, "expect-echo", expectEchoDefault(), "verify replies echo their own prompt")
	flag.Parse()

	logger.Info("starting load test",
		"addr", config.ServerAddress,
		"users", config.ConcurrentUsers,
		"messages", config.MessagesPerUser,
		"rps", config.RequestsPerSec,
		"expect_echo", config.ExpectEcho)

	tester := NewLoadTester(config)
	results := tester.Run(context.Background())
	tester.PrintResults()

	if results.TotalRequests == 0 {
		logger.Error("no requests completed")
		os.Exit(1)
	}

	// Any cross-request leak fails the run outright
	if results.ErrorsByType["cross_request_leak"] > 0 {
		logger.Error("replies did not match their prompts", "count", results.ErrorsByType["cross_request_leak"])
		os.Exit(1)
	}

	failureRate := float64(results.FailedReqs) / float64(results.TotalRequests)
	if failureRate > 0.05 { // More than 5% failures
		logger.Error("load test failed", "failure_rate", fmt.Sprintf("%.2f%%", failureRate*100))
		os.Exit(1)
	}

	logger.Info("load test completed successfully")
}
