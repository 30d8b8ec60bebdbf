package models

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ChatResponse is returned by POST /api/v1/chat
type ChatResponse struct {
	Status     string            `json:"status"`
	Reply      string            `json:"reply"`
	Flow       string            `json:"flow"`
	Tool       string            `json:"tool,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
	DurationMs int64             `json:"duration_ms"`
}

// ChatFrame is the websocket message shape in both directions.
type ChatFrame struct {
	Message string `json:"message"`
}
