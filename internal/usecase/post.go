package usecase

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"tweet-agent/internal/domain"
)

// MaxPostLength is a plain character guard. It does not apply the platform's
// weighted counting for emoji or links.
const MaxPostLength = 280

// Publisher publishes text on a remote platform.
type Publisher interface {
	Publish(ctx context.Context, text string) (domain.PublishedPost, error)
}

// PostService validates text and hands it to a Publisher.
type PostService struct {
	publisher Publisher
}

func NewPostService(p Publisher) (*PostService, error) {
	if p == nil {
		return nil, errors.New("usecase: publisher must not be nil")
	}
	return &PostService{publisher: p}, nil
}

// Execute trims rawText, enforces 1..MaxPostLength characters and publishes it.
// The publisher is called exactly once on success and never on validation failure.
func (s *PostService) Execute(ctx context.Context, rawText string) (domain.PublishedPost, error) {
	text, err := validatePostText(rawText)
	if err != nil {
		return domain.PublishedPost{}, err
	}
	post, err := s.publisher.Publish(ctx, text)
	if err != nil {
		return domain.PublishedPost{}, newError(ErrorPublish, ReasonPublishFailed, err)
	}
	return post, nil
}

func validatePostText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", newError(ErrorInvalidInput, ReasonEmpty, nil)
	}
	if utf8.RuneCountInString(text) > MaxPostLength {
		return "", newError(ErrorInvalidInput, ReasonTooLong, nil)
	}
	return text, nil
}
