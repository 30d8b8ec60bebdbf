package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/portfolioagent/portfolioagent/internal/gateway"
	"github.com/portfolioagent/portfolioagent/internal/tools"
)

// Generator is the model gateway as seen by the classifier.
type Generator interface {
	Generate(ctx context.Context, prompt string) gateway.Reply
}

// jsonObject matches from the first '{' to the last '}'; models often wrap
// the object in prose or code fences.
var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

type Classifier struct {
	gen     Generator
	catalog *tools.Catalog
}

func NewClassifier(gen Generator, catalog *tools.Catalog) *Classifier {
	return &Classifier{gen: gen, catalog: catalog}
}

// Classify never fails: unusable model output yields Greeting().
func (c *Classifier) Classify(ctx context.Context, userMessage string) Intent {
	start := time.Now()
	raw := c.gen.Generate(ctx, c.Prompt(userMessage)).String()
	in := Parse(raw)
	log.Info().Object("intent", in).Dur("took", time.Since(start)).Msg("classified message")
	return in
}

// Prompt builds the classification instruction. The tool list is rendered
// from the catalog that dispatch validates against.
func (c *Classifier) Prompt(userMessage string) string {
	var sb strings.Builder
	sb.WriteString("You are an intent classification assistant.\n\n")
	sb.WriteString("Available flows/tools:\n\n")
	fmt.Fprintf(&sb, "1. %s: Respond to greetings like \"hi\" or \"hello\".\n", FlowGreeting)
	fmt.Fprintf(&sb, "2. %s: Retrieve portfolio and project information.\n", FlowRetrieval)
	fmt.Fprintf(&sb, "3. %s: Query the task database. Tools include:\n", FlowToolUse)
	for _, s := range c.catalog.Specs() {
		fmt.Fprintf(&sb, "   - %s", s.Name)
		if len(s.Required) > 0 {
			fmt.Fprintf(&sb, " (requires %s)", strings.Join(s.Required, ", "))
		} else {
			sb.WriteString(" (no parameters)")
		}
		if s.Description != "" {
			fmt.Fprintf(&sb, ": %s", s.Description)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nUser message:\n")
	sb.WriteString("\"" + userMessage + "\"\n\n")
	sb.WriteString("Return EXACTLY JSON:\n\n")
	sb.WriteString("{\n  \"flow\": \"flow-name\",\n  \"tool\": \"tool-name or empty if N/A\",\n  \"parameters\": {}\n}\n\n")
	sb.WriteString("Put extracted parameters in \"parameters\" as string values.\n\n")
	fmt.Fprintf(&sb, "If no match, return:\n{\n  \"flow\": %q,\n  \"tool\": \"\",\n  \"parameters\": {}\n}\n", string(FlowGreeting))
	return sb.String()
}

// Parse extracts and validates an intent from raw model text.
func Parse(raw string) Intent {
	var obj map[string]any
	if m := jsonObject.FindString(raw); m != "" {
		if err := json.Unmarshal([]byte(m), &obj); err != nil {
			log.Debug().Err(err).Msg("classifier output is not valid JSON")
			obj = nil
		}
	}
	return validate(obj)
}

func validate(obj map[string]any) Intent {
	label, _ := obj["flow"].(string)
	flow := Flow(label)
	if !flow.Valid() {
		return Greeting()
	}

	tool, _ := obj["tool"].(string)
	in := Intent{Flow: flow, Tool: strings.TrimSpace(tool), Parameters: map[string]string{}}

	params, _ := obj["parameters"].(map[string]any)
	for k, v := range params {
		if v == nil {
			continue
		}
		in.Parameters[k] = paramString(v)
	}
	return in
}

func paramString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
