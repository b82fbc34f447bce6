package twitter

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

	gotwitter "github.com/dghubble/go-twitter/twitter"
	"github.com/dghubble/oauth1"

	"tweet-agent/internal/domain"
	"tweet-agent/internal/integrations/paramstore"
	"tweet-agent/internal/logging"
)

const (
	defaultBaseURL = "https://api.twitter.com"
	permalinkBase  = "https://x.com/i/web/status/"

	credentialsParameterKey = "twitter-credentials"
)

var ErrMissingCredentials = errors.New("twitter: missing TWITTER_APP_KEY, TWITTER_APP_SECRET, TWITTER_ACCESS_TOKEN or TWITTER_ACCESS_SECRET")

// Credentials are the OAuth 1.0a user-context keys. The parameter store copy
// uses the same JSON field names.
type Credentials struct {
	AppKey       string `json:"app_key"`
	AppSecret    string `json:"app_secret"`
	AccessToken  string `json:"access_token"`
	AccessSecret string `json:"access_secret"`
}

func (c Credentials) Complete() bool {
	return c.AppKey != "" && c.AppSecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

type createTweetRequest struct {
	Text string `json:"text"`
}

type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Account is the authenticated user as reported by verify_credentials.
type Account struct {
	ID         string
	ScreenName string
	Name       string
}

// Client publishes posts with the v2 API on behalf of a single user.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
	now        func() time.Time

	getter      paramstore.Getter
	paramPrefix string

	mu     sync.Mutex
	creds  Credentials
	signed *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient sets the transport the OAuth1 signer wraps.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithParamStore loads credentials from <prefix>/twitter-credentials when the
// configured ones are incomplete.
func WithParamStore(g paramstore.Getter, prefix string) Option {
	return func(c *Client) {
		c.getter = g
		c.paramPrefix = prefix
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(creds Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.NewNopLogger(),
		now:        time.Now,
		creds:      creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// signedClient builds the OAuth1 client on first use. Credentials are not
// checked until something is published so dry runs work without them.
func (c *Client) signedClient(ctx context.Context) (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.signed != nil {
		return c.signed, nil
	}
	if !c.creds.Complete() && c.getter != nil {
		var stored Credentials
		name := paramstore.Name(c.paramPrefix, credentialsParameterKey)
		if err := paramstore.GetJSON(ctx, c.getter, name, &stored); err != nil {
			return nil, fmt.Errorf("twitter: load credentials: %w", err)
		}
		c.creds = stored
	}
	if !c.creds.Complete() {
		return nil, ErrMissingCredentials
	}

	config := oauth1.NewConfig(c.creds.AppKey, c.creds.AppSecret)
	token := oauth1.NewToken(c.creds.AccessToken, c.creds.AccessSecret)
	base := c.httpClient
	if base == nil {
		base = http.DefaultClient
	}
	signed := config.Client(context.WithValue(context.Background(), oauth1.HTTPClient, base), token)
	signed.Timeout = base.Timeout
	c.signed = signed
	return signed, nil
}

// Publish creates a post with the given text. The text is sent unchanged.
func (c *Client) Publish(ctx context.Context, text string) (domain.PublishedPost, error) {
	httpClient, err := c.signedClient(ctx)
	if err != nil {
		return domain.PublishedPost{}, err
	}

	c.logger.WithField("length", len([]rune(text))).Info("Posting tweet")

	body, err := json.Marshal(createTweetRequest{Text: text})
	if err != nil {
		return domain.PublishedPost{}, fmt.Errorf("twitter: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return domain.PublishedPost{}, fmt.Errorf("twitter: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := httpClient.Do(req)
	if err != nil {
		return domain.PublishedPost{}, fmt.Errorf("twitter: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return domain.PublishedPost{}, fmt.Errorf("twitter: read response body: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := diagnoseError(res.StatusCode, raw)
		c.logger.WithError(apiErr).WithField("status", res.StatusCode).Error("Tweet rejected")
		return domain.PublishedPost{}, apiErr
	}

	var payload createTweetResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.PublishedPost{}, fmt.Errorf("twitter: decode response: %w", err)
	}
	if payload.Data.ID == "" {
		return domain.PublishedPost{}, errors.New("twitter: response missing tweet id")
	}

	post := domain.PublishedPost{
		ID:        payload.Data.ID,
		Text:      text,
		CreatedAt: c.now().UTC(),
		URL:       Permalink(payload.Data.ID),
	}
	c.logger.WithFields(logging.Fields{"id": post.ID, "url": post.URL}).Info("Tweet posted")
	return post, nil
}

// VerifyCredentials checks the keys against the v1.1 account endpoint.
func (c *Client) VerifyCredentials(ctx context.Context) (Account, error) {
	httpClient, err := c.signedClient(ctx)
	if err != nil {
		return Account{}, err
	}
	api := gotwitter.NewClient(httpClient)
	user, _, err := api.Accounts.VerifyCredentials(&gotwitter.AccountVerifyParams{
		SkipStatus:   gotwitter.Bool(true),
		IncludeEmail: gotwitter.Bool(false),
	})
	if err != nil {
		return Account{}, fmt.Errorf("twitter: verify credentials: %w", err)
	}
	return Account{ID: user.IDStr, ScreenName: user.ScreenName, Name: user.Name}, nil
}

// Permalink is the public URL for a post id.
func Permalink(id string) string {
	return permalinkBase + id
}
