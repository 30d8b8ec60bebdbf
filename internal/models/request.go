package models

import "strings"

// ChatRequest for POST /api/v1/chat and each websocket frame
type ChatRequest struct {
	Message string `json:"message"`
}

func (r *ChatRequest) Normalize() {
	r.Message = strings.TrimSpace(r.Message)
}
