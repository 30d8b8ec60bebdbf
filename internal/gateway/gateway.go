// Package gateway sends prompts to a local-first language model with a single
// remote fallback.
package gateway

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/portfolioagent/portfolioagent/internal/metrics"
)

// Backend is one language model endpoint.
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string) (Reply, error)
}

// Gateway tries the local backend first and, when its answer is empty after
// trimming, the remote backend once. Failures never reach the caller: they are
// logged and surface as an empty Reply.
type Gateway struct {
	local  Backend
	remote Backend
}

// New builds a gateway. remote may be nil when no remote credential is
// configured.
func New(local, remote Backend) *Gateway {
	return &Gateway{local: local, remote: remote}
}

// HasRemote reports whether a fallback backend is wired.
func (g *Gateway) HasRemote() bool {
	return g.remote != nil
}

func (g *Gateway) Generate(ctx context.Context, prompt string) Reply {
	reply := g.call(ctx, g.local, prompt)
	if !reply.Empty() {
		return reply
	}
	if g.remote == nil {
		log.Debug().Msg("local model returned nothing and no remote model is configured")
		return reply
	}

	metrics.ModelFallbacks.Inc()
	log.Info().Str("backend", g.remote.Name()).Msg("falling back to remote model")
	return g.call(ctx, g.remote, prompt)
}

func (g *Gateway) call(ctx context.Context, b Backend, prompt string) Reply {
	if b == nil {
		return Reply{}
	}

	start := time.Now()
	reply, err := b.Generate(ctx, prompt)
	took := time.Since(start)
	metrics.ModelRequestDuration.WithLabelValues(b.Name()).Observe(took.Seconds())

	if err != nil {
		metrics.ModelRequests.WithLabelValues(b.Name(), "error").Inc()
		log.Error().Err(err).Str("backend", b.Name()).Dur("took", took).Msg("model call failed")
		return Reply{}
	}

	outcome := "ok"
	if reply.Empty() {
		outcome = "empty"
	}
	metrics.ModelRequests.WithLabelValues(b.Name(), outcome).Inc()
	log.Debug().Str("backend", b.Name()).Str("outcome", outcome).Dur("took", took).Msg("model call")
	return reply
}
