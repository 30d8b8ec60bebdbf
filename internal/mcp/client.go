// Package mcp is a minimal JSON-RPC 2.0 client for the remote task tool
// service: one initialize handshake and tools/call invocations over HTTP POST.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	ProtocolVersion = "2024-11-05"
	ClientName      = "agent-pipeline"
	ClientVersion   = "1.0.0"
)

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      clientInfo     `json:"clientInfo"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type callParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments"`
	Meta      map[string]any    `json:"_meta"`
}

type Client struct {
	url    string
	client *http.Client
	nextID atomic.Int64
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Initialize performs the session handshake. The service tolerates repeated
// or missing handshakes, so callers may ignore the error.
func (c *Client) Initialize(ctx context.Context) error {
	_, err := c.call(ctx, "initialize", initializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{"tools": map[string]any{}},
		ClientInfo:      clientInfo{Name: ClientName, Version: ClientVersion},
	})
	return err
}

// CallTool invokes a tool and returns the decoded response envelope. On any
// failure it returns {"error": "<message>"} instead of an error so the result
// can be shown to the model.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]string) any {
	resp, err := c.call(ctx, "tools/call", callParams{
		Name:      name,
		Arguments: args,
		Meta:      map[string]any{"progressToken": 1},
	})
	if err != nil {
		log.Error().Err(err).Str("tool", name).Msg("tool service request failed")
		return map[string]any{"error": err.Error()}
	}
	return resp
}

// Ping is used by the health check.
func (c *Client) Ping(ctx context.Context) error {
	return c.Initialize(ctx)
}

func (c *Client) call(ctx context.Context, method string, params any) (any, error) {
	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%s: status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if e := envelopeError(out); e != nil {
		return nil, fmt.Errorf("%s: rpc error %d: %s", method, e.Code, e.Message)
	}
	return out, nil
}

func envelopeError(v any) *rpcError {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := m["error"]
	if !ok || raw == nil {
		return nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return &rpcError{Message: fmt.Sprint(raw)}
	}
	var e rpcError
	if err := json.Unmarshal(b, &e); err != nil || e.Message == "" {
		return &rpcError{Message: string(b)}
	}
	return &e
}
