// Package agentapi calls a hosted agent runtime that answers with whatever
// envelope its framework produces.
package agentapi

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

	"tweet-agent/internal/domain"
)

type generateRequest struct {
	Messages     string `json:"messages"`
	Instructions string `json:"instructions,omitempty"`
}

// StatusError is returned for non-2xx agent responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("agent: unexpected status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	url          string
	instructions string
	httpClient   *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithInstructions forwards the agent profile instructions with each call.
func WithInstructions(s string) Option {
	return func(c *Client) {
		c.instructions = strings.TrimSpace(s)
	}
}

func NewClient(url string, opts ...Option) (*Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("agent: endpoint URL must not be empty")
	}
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate posts the prompt and decodes the reply into a GenerationOutput
// variant. Bodies that match no known envelope come back as RawOutput.
func (c *Client) Generate(ctx context.Context, prompt string) (domain.GenerationOutput, error) {
	body, err := json.Marshal(generateRequest{Messages: prompt, Instructions: c.instructions})
	if err != nil {
		return nil, fmt.Errorf("agent: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("agent: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(buf))}
	}
	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("agent: read response body: %w", err)
	}
	return domain.DecodeGenerationOutput(raw), nil
}
