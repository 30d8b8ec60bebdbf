package gateway

import (
	"fmt"
	"strings"
	"time"
)

// Remote provider names accepted by NewRemote.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// RemoteOptions selects and configures the fallback backend.
type RemoteOptions struct {
	Provider string
	APIKey   string
	URL      string
	Model    string
	Timeout  time.Duration
}

// Defaults applied when RemoteOptions leaves URL or Model empty.
var (
	DefaultGeminiURL   = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"
	DefaultOpenAIURL   = "https://api.groq.com/openai/v1"
	DefaultOpenAIModel = "moonshotai/kimi-k2-instruct"
)

// NewRemote returns nil, nil when no API key is set: the gateway then runs
// local-only.
func NewRemote(opts RemoteOptions) (Backend, error) {
	if opts.APIKey == "" {
		return nil, nil
	}

	switch strings.ToLower(opts.Provider) {
	case "", ProviderGemini:
		url := opts.URL
		if url == "" {
			url = DefaultGeminiURL
		}
		return NewGemini(url, opts.APIKey, opts.Timeout), nil
	case ProviderAnthropic:
		return NewAnthropic(opts.APIKey, opts.Model, opts.URL, opts.Timeout), nil
	case ProviderOpenAI:
		url, model := opts.URL, opts.Model
		if url == "" {
			url = DefaultOpenAIURL
		}
		if model == "" {
			model = DefaultOpenAIModel
		}
		return NewOpenAI(opts.APIKey, url, model, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown remote model provider %q", opts.Provider)
	}
}
