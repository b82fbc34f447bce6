package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tweet-agent/internal/domain"
)

func TestChatURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.openai.com/v1", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1/chat/completions"},
		{"http://localhost:8080", "http://localhost:8080/v1/chat/completions"},
		{"", "https://api.openai.com/v1/chat/completions"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, chatURL(tc.base), "base=%q", tc.base)
	}
}

type fakeGetter struct {
	val   string
	err   error
	calls int
	names []string
}

func (f *fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	f.calls++
	f.names = append(f.names, name)
	return f.val, f.err
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient()
	require.Equal(t, defaultBaseURL, c.baseURL)
	require.Equal(t, "gpt-4o-mini", c.Model())

	c = NewClient(WithModel("  "), WithAPIKey(" sk "))
	require.Equal(t, "gpt-4o-mini", c.Model())
	require.Equal(t, "sk", c.apiKey)
}

func TestResolveAPIKey_MissingEverywhere(t *testing.T) {
	_, err := NewClient().resolveAPIKey(context.Background())
	require.ErrorIs(t, err, ErrMissingAPIKey)
	require.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestResolveAPIKey_ExplicitKeySkipsParamStore(t *testing.T) {
	g := &fakeGetter{val: `{"token":"sk-ssm"}`}
	c := NewClient(WithAPIKey("sk-env"), WithParamStore(g, "/tweet-agent"))

	key, err := c.resolveAPIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sk-env", key)
	require.Zero(t, g.calls)
}

func TestResolveAPIKey_FetchedOnce(t *testing.T) {
	g := &fakeGetter{val: `{"token":"sk-from-ssm"}`}
	c := NewClient(WithParamStore(g, "/tweet-agent/"))

	for i := 0; i < 3; i++ {
		key, err := c.resolveAPIKey(context.Background())
		require.NoError(t, err)
		require.Equal(t, "sk-from-ssm", key)
	}
	require.Equal(t, 1, g.calls)
	require.Equal(t, []string{"/tweet-agent/open-ai-token"}, g.names)
}

func TestFetchAPIKey(t *testing.T) {
	cases := []struct {
		name    string
		getter  *fakeGetter
		want    string
		wantErr string
	}{
		{name: "json token", getter: &fakeGetter{val: `{"token":"sk-json"}`}, want: "sk-json"},
		{name: "missing field", getter: &fakeGetter{val: `{"other":"v"}`}, wantErr: "API token is empty"},
		{name: "malformed", getter: &fakeGetter{val: `{"broken`}, wantErr: "decode"},
		{name: "getter error", getter: &fakeGetter{err: errors.New("ssm unavailable")}, wantErr: "ssm unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := fetchAPIKeyFromParamStore(context.Background(), tc.getter, "/tweet-agent/open-ai-token")
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, key)
		})
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithAPIKey("sk-test"),
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	}
	return NewClient(append(base, opts...)...)
}

func TestGenerate_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "gpt-test", body.Model)
		require.Equal(t, []domain.ChatMessage{
			{Role: "system", Content: "You write tweets."},
			{Role: "user", Content: "Topic: Docs."},
		}, body.Messages)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-123",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Docs are live!"}}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithModel("gpt-test"), WithInstructions(" You write tweets. "))
	out, err := c.Generate(context.Background(), "Topic: Docs.")
	require.NoError(t, err)
	require.Equal(t, domain.MessageList{Messages: []domain.ChatMessage{{Role: "assistant", Content: "Docs are live!"}}}, out)
}

func TestGenerate_NoInstructionsSendsOnlyPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 1)
		require.Equal(t, "user", body.Messages[0].Role)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Generate(context.Background(), "p")
	require.NoError(t, err)
}

func TestGenerate_UpstreamStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		}))

		_, err := newTestClient(t, srv).Generate(context.Background(), "p")
		srv.Close()

		var statusErr *HTTPStatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, status, statusErr.HTTPStatusCode())
		require.Contains(t, err.Error(), "unexpected status")
	}
}

func TestGenerate_BadBodies(t *testing.T) {
	cases := []struct {
		body    string
		wantErr string
	}{
		{body: `not-a-json`, wantErr: "decode response"},
		{body: `{"choices":[]}`, wantErr: "no choices"},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(tc.body))
		}))

		_, err := newTestClient(t, srv).Generate(context.Background(), "p")
		srv.Close()
		require.ErrorContains(t, err, tc.wantErr)
	}
}

func TestGenerate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	_, err := c.Generate(context.Background(), "p")
	require.ErrorContains(t, err, "request failed")
}

func TestGenerate_MissingKey(t *testing.T) {
	_, err := NewClient().Generate(context.Background(), "p")
	require.ErrorIs(t, err, ErrMissingAPIKey)
}
