package automation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnrecognizedShape is returned when a prompt response matches none
// of the accepted shapes.
var ErrUnrecognizedShape = errors.New("automation: unrecognized response shape")

// promptKeys is the ordered set of object keys that may carry the
// prompt list in a generate_prompts response.
var promptKeys = []string{"prompts", "output", "data"}

// chatKeys is the ordered set of object keys that may carry the reply
// text in a chat_query response.
var chatKeys = []string{"output", "answer", "text", "response"}

// PromptList normalizes a generate_prompts response body into a list of
// prompt strings. Accepted shapes are tried in order, first match wins:
//
//  1. a direct JSON array
//  2. an object carrying the array (or a string) under a known key
//  3. a string holding a JSON-encoded array
//  4. a newline-delimited string, empty lines dropped
func PromptList(raw json.RawMessage) ([]string, error) {
	var body any
	if errUnmarshal := json.Unmarshal(raw, &body); errUnmarshal != nil {
		return nil, fmt.Errorf("automation: decode prompts response: %w", errUnmarshal)
	}

	candidate := body
	if obj, ok := body.(map[string]any); ok {
		candidate = nil
		for _, key := range promptKeys {
			if v, exists := obj[key]; exists && v != nil {
				candidate = v
				break
			}
		}
	}

	switch v := candidate.(type) {
	case []any:
		return stringList(v), nil
	case string:
		return promptsFromString(v)
	default:
		return nil, ErrUnrecognizedShape
	}
}

// promptsFromString parses a string candidate: JSON array first, then
// line splitting.
func promptsFromString(s string) ([]string, error) {
	var parsed []any
	if errParse := json.Unmarshal([]byte(s), &parsed); errParse == nil {
		return stringList(parsed), nil
	}

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil, ErrUnrecognizedShape
	}
	return out, nil
}

// stringList coerces list items to strings, skipping blanks.
func stringList(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		text, ok := item.(string)
		if !ok {
			text = fmt.Sprint(item)
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ChatReply is the normalized chat_query response. Empty marks the
// deliberate soft-fail for a response that carried no usable text; it
// is a valid value, not an error.
type ChatReply struct {
	Text  string // Assistant reply text.
	Empty bool   // True when no known key yielded a usable string.
}

// ChatText extracts the reply text from a chat_query response body.
// Known keys are tried in order; a nested object value is re-encoded as
// JSON text. A body with no usable value yields the empty-reply marker.
func ChatText(raw json.RawMessage) ChatReply {
	var body map[string]any
	if errUnmarshal := json.Unmarshal(raw, &body); errUnmarshal != nil {
		return ChatReply{Empty: true}
	}

	for _, key := range chatKeys {
		v, exists := body[key]
		if !exists || v == nil {
			continue
		}
		switch text := v.(type) {
		case string:
			if strings.TrimSpace(text) != "" {
				return ChatReply{Text: text}
			}
		case map[string]any:
			if encoded, errEncode := json.Marshal(text); errEncode == nil {
				return ChatReply{Text: string(encoded)}
			}
		}
	}
	return ChatReply{Empty: true}
}
