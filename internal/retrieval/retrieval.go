// Package retrieval turns a user message into a grounded prompt: it embeds
// the message, looks up the nearest documents in a pre-built index and lists
// them for the model.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/portfolioagent/portfolioagent/internal/metrics"
)

const DefaultTopK = 5

// Document is one indexed chunk.
type Document struct {
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Embedding []float32 `json:"embedding"`
}

// DocumentMatch is a search hit. Score is only used for logging.
type DocumentMatch struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index returns at most k matches ordered by decreasing similarity.
type Index interface {
	Search(ctx context.Context, vec []float32, k int) ([]DocumentMatch, error)
}

type Path struct {
	embedder Embedder
	index    Index
	k        int
}

func NewPath(embedder Embedder, index Index, k int) *Path {
	if k <= 0 {
		k = DefaultTopK
	}
	return &Path{embedder: embedder, index: index, k: k}
}

// Matches embeds the message and queries the index. Failures are logged and
// yield no matches.
func (p *Path) Matches(ctx context.Context, userMessage string) []DocumentMatch {
	start := time.Now()

	vec, err := p.embedder.Embed(ctx, userMessage)
	if err != nil {
		log.Error().Err(err).Msg("embedding failed")
		metrics.RetrievalMatches.Observe(0)
		return nil
	}

	matches, err := p.index.Search(ctx, vec, p.k)
	if err != nil {
		log.Error().Err(err).Msg("index search failed")
		metrics.RetrievalMatches.Observe(0)
		return nil
	}

	metrics.RetrievalMatches.Observe(float64(len(matches)))
	ev := log.Info().Int("matches", len(matches)).Dur("took", time.Since(start))
	if len(matches) > 0 {
		ev = ev.Float64("top_score", matches[0].Score).Str("top_source", matches[0].Source)
	}
	ev.Msg("retrieved documents")
	return matches
}

func (p *Path) BuildPrompt(ctx context.Context, userMessage string) string {
	return RenderPrompt(userMessage, p.Matches(ctx, userMessage))
}

// RenderPrompt lists matches as "1. text" lines inside the answer
// instruction. An empty match list still produces a prompt.
func RenderPrompt(userMessage string, matches []DocumentMatch) string {
	lines := make([]string, 0, len(matches))
	for i, m := range matches {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, m.Text))
	}

	var sb strings.Builder
	sb.WriteString("You are an AI assistant who provides information about your portfolio and past work.\n\n")
	sb.WriteString("Here are relevant projects retrieved from your portfolio database:\n")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n\nUser's question:\n")
	sb.WriteString("\"" + userMessage + "\"\n\n")
	sb.WriteString("Summarize these examples and answer the user's question in a concise, friendly way.\n")
	return sb.String()
}
