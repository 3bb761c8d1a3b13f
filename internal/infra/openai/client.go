// Package openai is a small JSON client for the OpenAI REST API covering the
// Assistants (threads and runs) and Chat Completions endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var ErrNotConfigured = errors.New("openai: api key not configured")

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// PollInterval and MaxPolls bound how long RunAssistant waits for a run.
	PollInterval time.Duration
	MaxPolls     uint
}

type Client struct {
	apiKey       string
	baseURL      string
	model        string
	httpClient   *http.Client
	pollInterval time.Duration
	maxPolls     uint
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 1500 * time.Millisecond
	}
	if cfg.MaxPolls == 0 {
		cfg.MaxPolls = 20
	}
	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		model:        cfg.Model,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		pollInterval: cfg.PollInterval,
		maxPolls:     cfg.MaxPolls,
	}
}

// Configured reports whether requests can be made at all.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai: status %d: %s", e.Status, e.Message)
}

type errorBody struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// do sends one JSON request and decodes the answer into out. 429 and 5xx
// answers are retried a few times with exponential backoff.
func (c *Client) do(ctx context.Context, method, path string, in, out any, assistants bool) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("openai: marshal request: %w", err)
		}
	}

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("openai: build request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		if assistants {
			req.Header.Set("OpenAI-Beta", "assistants=v2")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("openai: request: %w", err)
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("openai: read response: %w", err)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return b, nil
		}

		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var eb errorBody
		if json.Unmarshal(b, &eb) == nil && eb.Error != nil && eb.Error.Message != "" {
			apiErr.Message = eb.Error.Message
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, apiErr
		}
		return nil, backoff.Permanent(apiErr)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(3))
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("openai: decode %s: %w", path, err)
	}
	return nil
}
