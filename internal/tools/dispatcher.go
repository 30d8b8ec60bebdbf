package tools

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/portfolioagent/portfolioagent/internal/metrics"
)

// Fixed replies for requests the catalog rejects.
const (
	MsgUnknownTool   = "Sorry, I can't perform that action."
	MsgMissingParams = "Missing parameters for the requested operation."
)

// Service is the remote tool endpoint. CallTool never fails: transport errors
// come back as an {"error": "..."} payload.
type Service interface {
	Initialize(ctx context.Context) error
	CallTool(ctx context.Context, name string, args map[string]string) any
}

type Dispatcher struct {
	catalog *Catalog
	service Service
}

func NewDispatcher(catalog *Catalog, service Service) *Dispatcher {
	return &Dispatcher{catalog: catalog, service: service}
}

func (d *Dispatcher) Catalog() *Catalog {
	return d.catalog
}

// BuildPrompt runs one tool request and returns the prompt for the final
// model call, or one of the fixed rejection messages.
func (d *Dispatcher) BuildPrompt(ctx context.Context, userMessage, tool string, params map[string]string) string {
	start := time.Now()

	if err := d.service.Initialize(ctx); err != nil {
		log.Warn().Err(err).Msg("tool service handshake failed")
	}

	spec, ok := d.catalog.Lookup(tool)
	if !ok {
		metrics.ToolCalls.WithLabelValues("unknown", "unknown_tool").Inc()
		log.Info().Str("tool", tool).Msg("tool not in catalog")
		return MsgUnknownTool
	}
	if missing := d.catalog.Missing(tool, params); len(missing) > 0 {
		metrics.ToolCalls.WithLabelValues(tool, "missing_params").Inc()
		log.Info().Str("tool", tool).Strs("missing", missing).Msg("tool request missing parameters")
		return MsgMissingParams
	}

	if params == nil {
		params = map[string]string{}
	}
	result := d.service.CallTool(ctx, tool, params)

	outcome := "ok"
	if isErrorPayload(result) {
		outcome = "error"
	}
	metrics.ToolCalls.WithLabelValues(tool, outcome).Inc()
	log.Info().Str("tool", tool).Str("outcome", outcome).Dur("took", time.Since(start)).Msg("tool call")

	return renderToolPrompt(userMessage, spec.HeaderFor(params), Bullets(result))
}

func isErrorPayload(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, hasErr := m["error"]
	return hasErr && len(m) == 1
}
