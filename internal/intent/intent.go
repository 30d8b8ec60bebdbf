// Package intent classifies a user message into one of the agent's flows
// using the language model, and normalizes whatever the model returns.
package intent

import "github.com/rs/zerolog"

// Flow is a handling path. Its string value is the label the model is asked
// to emit.
type Flow string

const (
	FlowGreeting  Flow = "Simple greetings"
	FlowRetrieval Flow = "RAG Vector DB"
	FlowToolUse   Flow = "MCP DB Toolbox"
)

// Flows lists the valid flows in prompt order.
var Flows = []Flow{FlowGreeting, FlowRetrieval, FlowToolUse}

func (f Flow) Valid() bool {
	switch f {
	case FlowGreeting, FlowRetrieval, FlowToolUse:
		return true
	}
	return false
}

// Short is a stable identifier for logs, metrics and API responses.
func (f Flow) Short() string {
	switch f {
	case FlowRetrieval:
		return "retrieval"
	case FlowToolUse:
		return "tool_use"
	default:
		return "greeting"
	}
}

// Intent is the routing decision for one message. Parameters is never nil.
type Intent struct {
	Flow       Flow              `json:"flow"`
	Tool       string            `json:"tool"`
	Parameters map[string]string `json:"parameters"`
}

// Greeting is the safe default every malformed classification collapses to.
func Greeting() Intent {
	return Intent{Flow: FlowGreeting, Tool: "", Parameters: map[string]string{}}
}

func (i Intent) MarshalZerologObject(e *zerolog.Event) {
	e.Str("flow", i.Flow.Short()).Str("tool", i.Tool).Int("params", len(i.Parameters))
}
