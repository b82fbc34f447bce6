package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tweet-agent/internal/domain"
)

type stubPublisher struct {
	id    string
	err   error
	calls []string
}

func (p *stubPublisher) Publish(_ context.Context, text string) (domain.PublishedPost, error) {
	p.calls = append(p.calls, text)
	if p.err != nil {
		return domain.PublishedPost{}, p.err
	}
	return domain.PublishedPost{
		ID:        p.id,
		Text:      text,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		URL:       "https://x.com/i/web/status/" + p.id,
	}, nil
}

func newTestPostService(t *testing.T, p Publisher) *PostService {
	t.Helper()
	svc, err := NewPostService(p)
	require.NoError(t, err)
	return svc
}

func expectError(t *testing.T, err error, code ErrorCode, reason string) *Error {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
	return usecaseErr
}

func TestNewPostService_ValidatesDependency(t *testing.T) {
	_, err := NewPostService(nil)
	require.Error(t, err)
}

func TestExecute_TrimsAndPublishes(t *testing.T) {
	pub := &stubPublisher{id: "1"}
	svc := newTestPostService(t, pub)

	post, err := svc.Execute(context.Background(), "  hello world  ")
	require.NoError(t, err)
	require.Equal(t, "hello world", post.Text)
	require.Equal(t, "1", post.ID)
	require.Equal(t, []string{"hello world"}, pub.calls)
}

func TestExecute_EmptyText(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t "} {
		pub := &stubPublisher{id: "1"}
		svc := newTestPostService(t, pub)

		_, err := svc.Execute(context.Background(), raw)
		ue := expectError(t, err, ErrorInvalidInput, ReasonEmpty)
		require.Equal(t, "tweet text is empty", ue.Message())
		require.Empty(t, pub.calls)
	}
}

func TestExecute_TooLong(t *testing.T) {
	pub := &stubPublisher{id: "1"}
	svc := newTestPostService(t, pub)

	_, err := svc.Execute(context.Background(), strings.Repeat("x", 281))
	ue := expectError(t, err, ErrorInvalidInput, ReasonTooLong)
	require.Equal(t, "tweet exceeds 280 characters", ue.Message())
	require.Empty(t, pub.calls)
}

func TestExecute_LengthBoundaries(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		ok   bool
	}{
		{name: "single char", raw: "a", ok: true},
		{name: "exactly 280", raw: strings.Repeat("a", 280), ok: true},
		{name: "280 with padding", raw: "  " + strings.Repeat("a", 280) + "\n", ok: true},
		{name: "280 multibyte runes", raw: strings.Repeat("é", 280), ok: true},
		{name: "281 multibyte runes", raw: strings.Repeat("日", 281), ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pub := &stubPublisher{id: "7"}
			svc := newTestPostService(t, pub)

			post, err := svc.Execute(context.Background(), tc.raw)
			if !tc.ok {
				expectError(t, err, ErrorInvalidInput, ReasonTooLong)
				require.Empty(t, pub.calls)
				return
			}
			require.NoError(t, err)
			require.Equal(t, strings.TrimSpace(tc.raw), post.Text)
			require.Len(t, pub.calls, 1)
		})
	}
}

func TestExecute_PublishErrorPropagates(t *testing.T) {
	cause := errors.New("401 unauthorized")
	pub := &stubPublisher{err: cause}
	svc := newTestPostService(t, pub)

	_, err := svc.Execute(context.Background(), "hello")
	ue := expectError(t, err, ErrorPublish, ReasonPublishFailed)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "401 unauthorized", ue.Message())
	require.Len(t, pub.calls, 1)
}

func TestCodeOf(t *testing.T) {
	code, ok := CodeOf(newError(ErrorPublish, ReasonPublishFailed, nil))
	require.True(t, ok)
	require.Equal(t, ErrorPublish, code)

	_, ok = CodeOf(errors.New("plain"))
	require.False(t, ok)
}
