package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/portfolioagent/portfolioagent/internal/agent"
	"github.com/portfolioagent/portfolioagent/internal/middleware"
	"github.com/portfolioagent/portfolioagent/internal/models"
	"github.com/portfolioagent/portfolioagent/internal/security"
)

// Runner is the message pipeline as seen by the transport handlers.
type Runner interface {
	Run(ctx context.Context, userMessage string) agent.Turn
}

// ChatHandler handles POST /api/v1/chat
type ChatHandler struct {
	agent     Runner
	validator *security.MessageValidator
	audit     *security.AuditLogger
	keyHeader string
}

func NewChatHandler(a Runner, validator *security.MessageValidator, audit *security.AuditLogger, keyHeader string) *ChatHandler {
	return &ChatHandler{
		agent:     a,
		validator: validator,
		audit:     audit,
		keyHeader: keyHeader,
	}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.Normalize()

	apiKey := middleware.APIKey(r, h.keyHeader)

	if res := h.validator.Validate(req.Message); !res.Valid {
		h.audit.LogChat(security.ChatEvent{
			Channel:  "http",
			Message:  req.Message,
			APIKey:   apiKey,
			Rejected: res.Message,
		})
		models.WriteError(w, http.StatusBadRequest, res.Message)
		return
	}

	turn := h.agent.Run(r.Context(), req.Message)

	h.audit.LogChat(security.ChatEvent{
		Channel:  "http",
		Message:  req.Message,
		APIKey:   apiKey,
		Flow:     turn.Intent.Flow.Short(),
		Tool:     turn.Intent.Tool,
		Params:   turn.Intent.Parameters,
		Reply:    turn.Reply,
		Duration: turn.Duration,
	})

	models.WriteJSON(w, http.StatusOK, models.ChatResponse{
		Status:     "success",
		Reply:      turn.Reply,
		Flow:       string(turn.Intent.Flow),
		Tool:       turn.Intent.Tool,
		Parameters: turn.Intent.Parameters,
		DurationMs: turn.Duration.Milliseconds(),
	})
}
