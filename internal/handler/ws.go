package handler

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/portfolioagent/portfolioagent/internal/middleware"
	"github.com/portfolioagent/portfolioagent/internal/models"
	"github.com/portfolioagent/portfolioagent/internal/security"
)

const wsReadLimit = 64 << 10

// WSHandler serves the websocket chat at /ws/chat. Frames are handled one at
// a time per connection.
type WSHandler struct {
	agent     Runner
	validator *security.MessageValidator
	audit     *security.AuditLogger
	keyHeader string
	upgrader  websocket.Upgrader
}

func NewWSHandler(a Runner, validator *security.MessageValidator, audit *security.AuditLogger, keyHeader string, origins []string) *WSHandler {
	return &WSHandler{
		agent:     a,
		validator: validator,
		audit:     audit,
		keyHeader: keyHeader,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
			},
		},
	}
}

func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	apiKey := middleware.APIKey(r, h.keyHeader)
	log.Info().Str("remote_addr", r.RemoteAddr).Msg("websocket connected")

	for {
		var in models.ChatFrame
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		reply := h.handle(r, in.Message, apiKey)
		if err := conn.WriteJSON(models.ChatFrame{Message: reply}); err != nil {
			log.Warn().Err(err).Msg("websocket write failed")
			return
		}
	}
}

func (h *WSHandler) handle(r *http.Request, message, apiKey string) string {
	req := models.ChatRequest{Message: message}
	req.Normalize()

	if res := h.validator.Validate(req.Message); !res.Valid {
		h.audit.LogChat(security.ChatEvent{
			Channel:  "websocket",
			Message:  req.Message,
			APIKey:   apiKey,
			Rejected: res.Message,
		})
		return res.Message
	}

	turn := h.agent.Run(r.Context(), req.Message)
	h.audit.LogChat(security.ChatEvent{
		Channel:  "websocket",
		Message:  req.Message,
		APIKey:   apiKey,
		Flow:     turn.Intent.Flow.Short(),
		Tool:     turn.Intent.Tool,
		Params:   turn.Intent.Parameters,
		Reply:    turn.Reply,
		Duration: turn.Duration,
	})
	return turn.Reply
}
