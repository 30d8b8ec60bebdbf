// Package agent wires the message pipeline: classify the intent, build the
// flow-specific prompt, then generate and check the final reply.
package agent

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/portfolioagent/portfolioagent/internal/gateway"
	"github.com/portfolioagent/portfolioagent/internal/intent"
	"github.com/portfolioagent/portfolioagent/internal/metrics"
)

type Generator interface {
	Generate(ctx context.Context, prompt string) gateway.Reply
}

type Classifier interface {
	Classify(ctx context.Context, userMessage string) intent.Intent
}

// Retriever builds the retrieval-augmented prompt.
type Retriever interface {
	BuildPrompt(ctx context.Context, userMessage string) string
}

// ToolDispatcher validates and runs a tool request, returning either the
// prompt for the final model call or a fixed rejection message.
type ToolDispatcher interface {
	BuildPrompt(ctx context.Context, userMessage, tool string, params map[string]string) string
}

// Turn records one handled message.
type Turn struct {
	Message  string
	Intent   intent.Intent
	Prompt   string
	Reply    string
	Duration time.Duration
}

// Agent is safe for concurrent use; it holds no per-message state.
type Agent struct {
	gen        Generator
	classifier Classifier
	retriever  Retriever
	tools      ToolDispatcher
}

func New(gen Generator, classifier Classifier, retriever Retriever, tools ToolDispatcher) *Agent {
	return &Agent{
		gen:        gen,
		classifier: classifier,
		retriever:  retriever,
		tools:      tools,
	}
}

// Handle returns the reply for one user message. It always returns text.
func (a *Agent) Handle(ctx context.Context, userMessage string) string {
	return a.Run(ctx, userMessage).Reply
}

// Run is Handle with the intermediate results kept.
func (a *Agent) Run(ctx context.Context, userMessage string) Turn {
	start := time.Now()

	in := a.classifier.Classify(ctx, userMessage)
	prompt := a.Select(ctx, userMessage, in)
	reply := a.Finalize(ctx, prompt)

	took := time.Since(start)
	metrics.Messages.WithLabelValues(in.Flow.Short()).Inc()
	metrics.MessageDuration.WithLabelValues(in.Flow.Short()).Observe(took.Seconds())
	log.Info().Object("intent", in).Int("reply_len", len(reply)).Dur("took", took).Msg("message handled")

	return Turn{
		Message:  userMessage,
		Intent:   in,
		Prompt:   prompt,
		Reply:    reply,
		Duration: took,
	}
}

// Select picks the path for the intent and returns its prompt.
func (a *Agent) Select(ctx context.Context, userMessage string, in intent.Intent) string {
	switch in.Flow {
	case intent.FlowRetrieval:
		return a.retriever.BuildPrompt(ctx, userMessage)
	case intent.FlowToolUse:
		return a.tools.BuildPrompt(ctx, userMessage, in.Tool, in.Parameters)
	default:
		return GreetingPrompt(userMessage)
	}
}

// Finalize sends prompt through the gateway and applies the quality gate.
func (a *Agent) Finalize(ctx context.Context, prompt string) string {
	start := time.Now()
	out := CheckReply(a.gen.Generate(ctx, prompt).String())
	log.Debug().Dur("took", time.Since(start)).Msg("final reply generated")
	return out
}
