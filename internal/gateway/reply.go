package gateway

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ReplyKind tags what a backend handed back.
type ReplyKind int

const (
	ReplyEmpty ReplyKind = iota
	ReplyText
	ReplyStructured
)

// Reply is one backend answer. Text replies carry the model output verbatim;
// structured replies carry the upstream JSON object (for example a Gemini
// candidate's content) and are decoded lazily by String.
type Reply struct {
	Kind ReplyKind
	Text string
	Raw  json.RawMessage
}

func NewTextReply(s string) Reply {
	return Reply{Kind: ReplyText, Text: s}
}

func NewStructuredReply(raw json.RawMessage) Reply {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return Reply{}
	}
	return Reply{Kind: ReplyStructured, Raw: raw}
}

// String returns the reply as plain text.
func (r Reply) String() string {
	switch r.Kind {
	case ReplyText:
		return r.Text
	case ReplyStructured:
		return DecodeShape(r.Raw)
	default:
		return ""
	}
}

// Empty reports whether the reply has no visible text.
func (r Reply) Empty() bool {
	return strings.TrimSpace(r.String()) == ""
}

type shapeKind int

const (
	shapeUnknown shapeKind = iota
	shapeParts
	shapeResponseText
	shapeResponseContent
)

// DecodeShape turns a structured upstream payload into text. Known shapes:
//
//	{"parts":[{"text":...}, ...]}        parts concatenated
//	{"response":"..."}                   the string
//	{"response":{"content":...}}         the content
//
// Anything else is returned as compact JSON. A bare JSON string decodes to
// itself.
func DecodeShape(raw json.RawMessage) string {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
		return string(bytes.TrimSpace(raw))
	}

	switch classifyShape(obj) {
	case shapeParts:
		var sb strings.Builder
		for _, p := range obj["parts"].([]any) {
			if pm, ok := p.(map[string]any); ok {
				if t, ok := pm["text"].(string); ok {
					sb.WriteString(t)
				}
			}
		}
		return sb.String()
	case shapeResponseText:
		return obj["response"].(string)
	case shapeResponseContent:
		content := obj["response"].(map[string]any)["content"]
		if s, ok := content.(string); ok {
			return s
		}
		return stringify(content)
	default:
		return stringify(obj)
	}
}

func classifyShape(obj map[string]any) shapeKind {
	if _, ok := obj["parts"].([]any); ok {
		return shapeParts
	}
	switch resp := obj["response"].(type) {
	case string:
		return shapeResponseText
	case map[string]any:
		if _, ok := resp["content"]; ok {
			return shapeResponseContent
		}
	}
	return shapeUnknown
}

func stringify(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
