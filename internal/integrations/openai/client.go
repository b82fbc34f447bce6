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
	"sync"
	"time"

	"tweet-agent/internal/domain"
	"tweet-agent/internal/integrations/paramstore"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"

	tokenParameterKey = "open-ai-token"
)

// ErrMissingAPIKey is returned when neither OPENAI_API_KEY nor a parameter
// store token is available.
var ErrMissingAPIKey = errors.New("openai: missing OPENAI_API_KEY")

type chatRequest struct {
	Model    string               `json:"model"`
	Messages []domain.ChatMessage `json:"messages"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index   int                `json:"index"`
		Message domain.ChatMessage `json:"message"`
	} `json:"choices"`
}

// tokenPayload is the JSON shape stored in SSM for the API token.
type tokenPayload struct {
	Token string `json:"token"`
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client generates tweet text through an OpenAI-compatible chat completions
// endpoint.
type Client struct {
	baseURL      string
	model        string
	instructions string
	httpClient   *http.Client
	getter       paramstore.Getter
	paramPrefix  string

	keyOnce sync.Once
	apiKey  string
	keyErr  error
}

type Option func(*Client)

func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithParamStore reads the token from <prefix>/open-ai-token when no API key
// was given.
func WithParamStore(g paramstore.Getter, prefix string) Option {
	return func(c *Client) {
		c.getter = g
		c.paramPrefix = prefix
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if m := strings.TrimSpace(model); m != "" {
			c.model = m
		}
	}
}

// WithInstructions sets the system message sent ahead of every prompt.
func WithInstructions(s string) Option {
	return func(c *Client) {
		c.instructions = strings.TrimSpace(s)
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model reports the model name requests are sent with.
func (c *Client) Model() string {
	return c.model
}

// resolveAPIKey returns the configured key, or fetches it from the parameter
// store once per process.
func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	if c.apiKey != "" {
		return c.apiKey, nil
	}
	c.keyOnce.Do(func() {
		if c.getter == nil {
			c.keyErr = ErrMissingAPIKey
			return
		}
		c.apiKey, c.keyErr = fetchAPIKeyFromParamStore(ctx, c.getter, paramstore.Name(c.paramPrefix, tokenParameterKey))
	})
	return c.apiKey, c.keyErr
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

// Generate sends the prompt as a user message and returns the reply as a
// message list so callers can pick the last assistant turn.
func (c *Client) Generate(ctx context.Context, prompt string) (domain.GenerationOutput, error) {
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return nil, err
	}

	messages := make([]domain.ChatMessage, 0, 2)
	if c.instructions != "" {
		messages = append(messages, domain.ChatMessage{Role: "system", Content: c.instructions})
	}
	messages = append(messages, domain.ChatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	url := chatURL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return nil, fmt.Errorf("openai: request failed: %w", err)
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return nil, errors.New("openai: no choices in response")
	}
	out := domain.MessageList{Messages: make([]domain.ChatMessage, 0, len(payload.Choices))}
	for _, choice := range payload.Choices {
		out.Messages = append(out.Messages, choice.Message)
	}
	return out, nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{StatusCode: res.StatusCode, URL: url, Body: string(buf)}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

func fetchAPIKeyFromParamStore(ctx context.Context, getter paramstore.Getter, name string) (string, error) {
	var tp tokenPayload
	if err := paramstore.GetJSON(ctx, getter, name, &tp); err != nil {
		return "", fmt.Errorf("openai: fetch token: %w", err)
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", fmt.Errorf("openai: API token is empty")
	}
	return strings.TrimSpace(tp.Token), nil
}
