package security

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ChatEvent is one handled (or rejected) chat message.
type ChatEvent struct {
	Channel  string // "http" or "websocket"
	Message  string
	APIKey   string
	Flow     string
	Tool     string
	Params   map[string]string
	Reply    string
	Duration time.Duration
	Rejected string // validator message when the request was refused
}

// AuditLogger logs security-relevant events with hashed identifiers
type AuditLogger struct {
	enabled bool
	pii     *PIIDetector
	masker  *DataMasker
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{
		enabled: enabled,
		pii:     NewPIIDetector(DefaultPIIKeywords),
		masker:  NewDataMasker(nil),
	}
}

// LogChat records a chat event. Message and key are hashed; tool parameters
// are masked.
func (a *AuditLogger) LogChat(ev ChatEvent) {
	if !a.enabled {
		return
	}

	evt := log.Info().
		Str("event", "chat_audit").
		Str("channel", ev.Channel).
		Str("message_hash", hashStr(ev.Message)[:16]).
		Int("message_len", len(ev.Message)).
		Bool("validation_passed", ev.Rejected == "")

	if ev.APIKey != "" {
		evt = evt.Str("api_key_hash", hashStr(ev.APIKey)[:16])
	}
	if found, kind := a.pii.Detect(ev.Message); found {
		evt = evt.Str("pii", kind)
	}
	if ev.Rejected != "" {
		evt.Str("rejected", ev.Rejected).Msg("audit")
		return
	}

	evt = evt.
		Str("flow", ev.Flow).
		Int("reply_len", len(ev.Reply)).
		Int64("execution_time_ms", ev.Duration.Milliseconds())
	if ev.Tool != "" {
		evt = evt.Str("tool", ev.Tool).Interface("params", a.masker.MaskParams(ev.Params))
	}
	evt.Msg("audit")
}

func hashStr(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}
