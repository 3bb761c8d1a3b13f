package openai

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/cenkalti/backoff/v5"
)

var (
	ErrRunFailed  = errors.New("openai: assistant run did not complete")
	ErrRunTimeout = errors.New("openai: assistant run still in progress")
	ErrNoReply    = errors.New("openai: assistant returned no text")
)

type thread struct {
	ID string `json:"id"`
}

type run struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

type messageList struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text *struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

// RunAssistant sends prompt to a new thread, runs the assistant on it and
// returns the assistant's reply.
func (c *Client) RunAssistant(ctx context.Context, assistantID, prompt string) (string, error) {
	if assistantID == "" {
		return "", ErrNotConfigured
	}

	var th thread
	if err := c.do(ctx, "POST", "/threads", map[string]any{}, &th, true); err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}

	msg := map[string]any{"role": "user", "content": prompt}
	if err := c.do(ctx, "POST", "/threads/"+th.ID+"/messages", msg, nil, true); err != nil {
		return "", fmt.Errorf("add message: %w", err)
	}

	var r run
	if err := c.do(ctx, "POST", "/threads/"+th.ID+"/runs", map[string]any{"assistant_id": assistantID}, &r, true); err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}

	if _, err := c.waitForRun(ctx, th.ID, r.ID); err != nil {
		return "", err
	}

	var list messageList
	q := url.Values{"order": {"desc"}, "limit": {"20"}}
	if err := c.do(ctx, "GET", "/threads/"+th.ID+"/messages?"+q.Encode(), nil, &list, true); err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}
	for _, m := range list.Data {
		if m.Role != "assistant" {
			continue
		}
		var parts []string
		for _, part := range m.Content {
			if part.Type == "text" && part.Text != nil {
				parts = append(parts, part.Text.Value)
			}
		}
		if text := strings.TrimSpace(strings.Join(parts, "\n")); text != "" {
			return text, nil
		}
	}
	return "", ErrNoReply
}

// waitForRun polls the run at a constant interval until it reaches a
// terminal status or the poll budget runs out.
func (c *Client) waitForRun(ctx context.Context, threadID, runID string) (run, error) {
	return backoff.Retry(ctx, func() (run, error) {
		var r run
		if err := c.do(ctx, "GET", "/threads/"+threadID+"/runs/"+runID, nil, &r, true); err != nil {
			return r, backoff.Permanent(fmt.Errorf("poll run: %w", err))
		}
		switch r.Status {
		case "completed":
			return r, nil
		case "failed", "cancelled", "expired", "requires_action":
			reason := r.Status
			if r.LastError != nil && r.LastError.Message != "" {
				reason += ": " + r.LastError.Message
			}
			return r, backoff.Permanent(fmt.Errorf("%w (%s)", ErrRunFailed, reason))
		default:
			return r, ErrRunTimeout
		}
	}, backoff.WithBackOff(backoff.NewConstantBackOff(c.pollInterval)), backoff.WithMaxTries(c.maxPolls))
}
