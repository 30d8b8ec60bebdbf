package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var errNoAPIKey = errors.New("remote model API key not configured")

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content json.RawMessage `json:"content"`
	} `json:"candidates"`
}

// Gemini calls a generateContent endpoint. The first candidate's content is
// returned as a structured reply.
type Gemini struct {
	url    string
	apiKey string
	client *http.Client
}

func NewGemini(url, apiKey string, timeout time.Duration) *Gemini {
	return &Gemini{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (g *Gemini) Name() string {
	return "gemini"
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (Reply, error) {
	if g.apiKey == "" {
		return Reply{}, errNoAPIKey
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return Reply{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Key goes in a header so it never shows up in access logs.
	req.Header.Set("X-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus("gemini", resp); err != nil {
		return Reply{}, err
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Reply{}, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return Reply{}, nil
	}
	return NewStructuredReply(out.Candidates[0].Content), nil
}
