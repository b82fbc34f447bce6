package usecase

import (
	"fmt"

	"tweet-agent/internal/domain"
)

// normalizeOutput flattens any generation envelope to its text. Unknown shapes
// are stringified whole.
func normalizeOutput(out domain.GenerationOutput) string {
	switch o := out.(type) {
	case nil:
		return ""
	case domain.PlainText:
		return string(o)
	case domain.TextObject:
		return o.Text
	case domain.OutputTextObject:
		return o.OutputText
	case domain.MessageList:
		if n := len(o.Messages); n > 0 {
			return o.Messages[n-1].Content
		}
		return ""
	case domain.RawOutput:
		return string(o.Raw)
	default:
		return fmt.Sprint(o)
	}
}
