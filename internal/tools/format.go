package tools

import (
	"encoding/json"
	"fmt"
	"strings"
)

// wrapperKeys are the envelope fields peeled off a tool result before it is
// listed, outermost first.
var wrapperKeys = []string{"result", "parts", "response", "content"}

// titleKeys are tried in order to label a result item.
var titleKeys = []string{"title", "name", "summary", "text"}

const maxUnwrapDepth = 8

// Unwrap descends through known envelope fields until none match.
func Unwrap(v any) any {
	for depth := 0; depth < maxUnwrapDepth; depth++ {
		m, ok := v.(map[string]any)
		if !ok {
			return v
		}
		var next any
		found := false
		for _, k := range wrapperKeys {
			if inner, ok := m[k]; ok && inner != nil {
				next, found = inner, true
				break
			}
		}
		if !found {
			return v
		}
		v = next
	}
	return v
}

// Bullets renders a tool result as "- item" lines. Lists yield one line per
// item; anything else yields a single line.
func Bullets(result any) []string {
	result = Unwrap(result)
	items, ok := result.([]any)
	if !ok {
		return []string{"- " + itemLabel(result)}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, "- "+itemLabel(it))
	}
	return out
}

func itemLabel(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		for _, k := range titleKeys {
			if s, ok := t[k].(string); ok && s != "" {
				return s
			}
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func renderToolPrompt(userMessage, header string, bullets []string) string {
	var sb strings.Builder
	sb.WriteString("You are an assistant helping the user manage their tasks.\n\n")
	sb.WriteString(header)
	sb.WriteString(":\n")
	sb.WriteString(strings.Join(bullets, "\n"))
	sb.WriteString("\n\nUser's question:\n")
	sb.WriteString("\"" + userMessage + "\"\n\n")
	sb.WriteString("Provide a clear summary for the user.\n")
	return sb.String()
}
