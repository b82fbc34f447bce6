package domain

import (
	"bytes"
	"encoding/json"
)

// GenerationOutput is what a generation backend hands back. Backends wrap the
// text in different envelopes, so the known shapes are modelled as variants.
type GenerationOutput interface {
	generationOutput()
}

// PlainText is a bare string response.
type PlainText string

// TextObject is an object carrying the text in a "text" field.
type TextObject struct {
	Text string
}

// OutputTextObject is an object carrying the text in an "outputText" field.
type OutputTextObject struct {
	OutputText string
}

// MessageList is a conversation; the last message holds the answer.
type MessageList struct {
	Messages []ChatMessage
}

// RawOutput is any response that matched none of the known shapes.
type RawOutput struct {
	Raw json.RawMessage
}

func (PlainText) generationOutput()        {}
func (TextObject) generationOutput()       {}
func (OutputTextObject) generationOutput() {}
func (MessageList) generationOutput()      {}
func (RawOutput) generationOutput()        {}

// DecodeGenerationOutput classifies a JSON response body. Shapes are tried in
// order: string, {"text"}, {"outputText"}, {"messages":[...]} whose last entry
// has string content. Anything else, including invalid JSON, is a RawOutput.
func DecodeGenerationOutput(raw []byte) GenerationOutput {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return PlainText("")
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return PlainText(s)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return RawOutput{Raw: json.RawMessage(trimmed)}
	}
	if text, ok := stringField(obj, "text"); ok {
		return TextObject{Text: text}
	}
	if text, ok := stringField(obj, "outputText"); ok {
		return OutputTextObject{OutputText: text}
	}
	if msgs, ok := messagesField(obj); ok {
		return MessageList{Messages: msgs}
	}
	return RawOutput{Raw: json.RawMessage(trimmed)}
}

func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	v, ok := obj[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

func messagesField(obj map[string]json.RawMessage) ([]ChatMessage, bool) {
	v, ok := obj["messages"]
	if !ok {
		return nil, false
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	msgs := make([]ChatMessage, 0, len(items))
	for _, item := range items {
		role, _ := stringField(item, "role")
		content, _ := stringField(item, "content")
		msgs = append(msgs, ChatMessage{Role: role, Content: content})
	}
	if _, ok := stringField(items[len(items)-1], "content"); !ok {
		return nil, false
	}
	return msgs, true
}
