package domain

import (
	"errors"
	"strings"
	"time"
)

// PublishedPost is the result of a successful publish call. It is never
// persisted by this service.
type PublishedPost struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	URL       string    `json:"url,omitempty"`
}

// Style is the tone requested for generated text.
type Style string

const (
	StyleInformative Style = "informative"
	StyleCasual      Style = "casual"
	StyleTech        Style = "tech"
	StyleMarketing   Style = "marketing"
)

// Valid reports whether s is empty (no style requested) or one of the known styles.
func (s Style) Valid() bool {
	switch s {
	case "", StyleInformative, StyleCasual, StyleTech, StyleMarketing:
		return true
	}
	return false
}

// DefaultMaxChars leaves room for a link in a 280 character post.
const DefaultMaxChars = 240

// GenerationRequest describes one generate-and-maybe-post invocation.
// Zero values mean "not provided".
type GenerationRequest struct {
	Topic           string `json:"topic"`
	Style           Style  `json:"style,omitempty"`
	IncludeHashtags bool   `json:"includeHashtags,omitempty"`
	MaxChars        int    `json:"maxChars,omitempty"`
	DryRun          bool   `json:"dryRun,omitempty"`
}

// ResolvedMaxChars returns MaxChars or DefaultMaxChars when unset.
func (r GenerationRequest) ResolvedMaxChars() int {
	if r.MaxChars <= 0 {
		return DefaultMaxChars
	}
	return r.MaxChars
}

func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return errors.New("topic is required")
	}
	if !r.Style.Valid() {
		return errors.New("style must be one of informative, casual, tech, marketing")
	}
	if r.MaxChars < 0 {
		return errors.New("maxChars must be positive")
	}
	return nil
}

// PostedRef identifies a post created during generation.
type PostedRef struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// GenerationResult is returned once per orchestration call. Posted is nil for dry runs.
type GenerationResult struct {
	GeneratedText string     `json:"generatedText"`
	Posted        *PostedRef `json:"posted,omitempty"`
}
