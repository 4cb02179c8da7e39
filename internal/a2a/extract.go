package a2a

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DefaultMaxUtteranceLen is the default length ceiling for an accepted utterance.
// Longer text parts are treated as injected history or system noise.
const DefaultMaxUtteranceLen = 200

// ExtractOptions tunes utterance selection.
type ExtractOptions struct {
	MaxUtteranceLen int
}

// Extraction is what the agent needs from one inbound request.
type Extraction struct {
	Utterance  string
	SessionKey string
	RequestID  string
	ContextID  string
	// Synthesized is true when SessionKey was generated rather than supplied.
	Synthesized bool
}

// Extract pulls the latest user utterance and a session key out of a decoded
// JSON payload. It never fails: unexpected shapes yield an empty utterance and
// a freshly synthesized key.
func Extract(payload any, opts ExtractOptions) Extraction {
	if opts.MaxUtteranceLen <= 0 {
		opts.MaxUtteranceLen = DefaultMaxUtteranceLen
	}

	body := asObject(payload)
	params := asObject(body["params"])
	msg := asObject(params["message"])

	out := Extraction{
		RequestID: scalarString(body["id"]),
		ContextID: stringField(msg, "contextId"),
	}

	out.Utterance = pickUtterance(asList(msg["parts"]), opts.MaxUtteranceLen)
	if out.Utterance == "" {
		if history := asList(params["messages"]); len(history) > 0 {
			last := asObject(history[len(history)-1])
			out.Utterance = pickUtterance(asList(last["parts"]), opts.MaxUtteranceLen)
		}
	}

	out.SessionKey = stringField(msg, "taskId")
	if out.SessionKey == "" {
		out.SessionKey = stringField(params, "taskId")
	}
	if out.SessionKey == "" {
		out.SessionKey = NewSessionKey()
		out.Synthesized = true
	}

	return out
}

// NewSessionKey returns a process-unique, time-ordered session key.
func NewSessionKey() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "task-" + uuid.NewString()
	}
	return "task-" + id.String()
}

// pickUtterance scans parts latest-first and returns the first acceptable text.
func pickUtterance(parts []any, maxLen int) string {
	for i := len(parts) - 1; i >= 0; i-- {
		part := asObject(parts[i])
		if stringField(part, "kind") != "text" {
			continue
		}
		text := strings.TrimSpace(stringField(part, "text"))
		if text == "" || strings.HasPrefix(text, "<") {
			continue
		}
		if utf8.RuneCountInString(text) > maxLen {
			continue
		}
		return text
	}
	return ""
}

func asObject(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

func asList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// scalarString renders a JSON-RPC id, which may be a string or a number.
func scalarString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return ""
}
