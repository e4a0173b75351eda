package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

const quitCommand = "/quit"

type config struct {
	serverAddr string
	timeout    time.Duration
}

type application struct {
	config  config
	logger  *slog.Logger
	http    *http.Client
	metrics *metrics
	out     io.Writer
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Error    string `json:"error"`
	Message  string `json:"message"`
}

func main() {
	var cfg config

	flag.StringVar(&cfg.serverAddr, "addr", "http://localhost:8080", "OmniAuthor API base URL")
	flag.DurationVar(&cfg.timeout, "timeout", 2*time.Minute, "per-request timeout")
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	app := newApplication(cfg, logger, os.Stdout)

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.logger.Info("starting interactive session", "addr", cfg.serverAddr)
	if err := app.startChat(ctx, os.Stdin); err != nil {
		logger.Error("error reading input", "error", err)
		os.Exit(1)
	}
}

func newApplication(cfg config, logger *slog.Logger, out io.Writer) *application {
	m := &metrics{}
	return &application{
		config:  cfg,
		logger:  logger,
		metrics: m,
		out:     out,
		http: &http.Client{
			Timeout:   cfg.timeout,
			Transport: &byteTracker{next: http.DefaultTransport, metrics: m},
		},
	}
}

func (app *application) startChat(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(app.out, "omniauthor.ai client - type a prompt and press Enter")
	fmt.Fprintf(app.out, "Commands: '%s' to exit, Ctrl+C to quit\n", quitCommand)
	fmt.Fprint(app.out, "> ")

	lines := make(chan string)
	scanErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			app.logger.Info("shutting down...")
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}

			input := strings.TrimSpace(line)
			if input == "" {
				fmt.Fprint(app.out, "> ")
				continue
			}

			if input == quitCommand {
				app.logger.Info("goodbye!")
				return nil
			}

			if err := app.sendPrompt(ctx, input); err != nil {
				app.logger.Error("failed to send prompt", "error", err)
			}

			fmt.Fprint(app.out, "> ")
		}
	}
}

func (app *application) sendPrompt(ctx context.Context, prompt string) error {
	reply, err := app.generate(ctx, prompt)
	if err != nil {
		return err
	}

	out, in := app.metrics.getTotals()
	fmt.Fprintf(app.out, "[Total: %s sent, %s received]\n", formatBytes(out), formatBytes(in))
	fmt.Fprintf(app.out, "Assistant: %s\n", reply)
	return nil
}

// generate posts one prompt and returns the relayed model text
func (app *application) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(app.config.serverAddr, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || !out.Success {
		if out.Message != "" {
			return "", fmt.Errorf("%s: %s", out.Error, out.Message)
		}
		if out.Error != "" {
			return "", errors.New(out.Error)
		}
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return out.Response, nil
}
