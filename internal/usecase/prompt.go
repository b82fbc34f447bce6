package usecase

import (
	"fmt"
	"strings"

	"tweet-agent/internal/domain"
)

const offlineTopicPlaceholder = "your topic"

// buildPrompt interpolates the request into a single instruction line. Input is
// not escaped.
func buildPrompt(req domain.GenerationRequest, maxChars int) string {
	hashtags := "Avoid hashtags."
	if req.IncludeHashtags {
		hashtags = "Include at most 2 relevant hashtags."
	}
	style := ""
	if req.Style != "" {
		style = fmt.Sprintf("Style: %s.", req.Style)
	}
	return strings.TrimSpace(fmt.Sprintf(
		"Topic: %s. Write a single tweet under %d chars. %s %s",
		req.Topic, maxChars, hashtags, style,
	))
}

// offlinePost is the deterministic generator used for dry runs and as the
// fallback when no model is reachable.
func offlinePost(topic string, maxChars int) string {
	topic = normalizePromptInput(topic)
	if topic == "" {
		topic = offlineTopicPlaceholder
	}
	text := topic + " — new update available. Try it now!"
	return strings.TrimSpace(truncateRunes(text, maxChars))
}

func normalizePromptInput(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
