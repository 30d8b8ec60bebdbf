package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// Chat input
	MaxMessageLength   int  `json:"max_message_length"`
	EnableAuditLogging bool `json:"enable_audit_logging"`

	// Local model (Ollama)
	OllamaURL    string `json:"ollama_url"`
	LocalModel   string `json:"local_model"`
	LocalTimeout int    `json:"local_timeout"`

	// Remote model fallback: gemini | anthropic | openai
	RemoteProvider string `json:"remote_provider"`
	RemoteAPIKey   string `json:"remote_api_key"`
	RemoteURL      string `json:"remote_url"`
	RemoteModel    string `json:"remote_model"`
	RemoteTimeout  int    `json:"remote_timeout"`

	// Embeddings
	EmbedModel    string `json:"embed_model"`
	EmbedTimeout  int    `json:"embed_timeout"`
	RedisAddr     string `json:"redis_addr"` // empty disables the embedding cache
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`
	EmbedCacheTTL int    `json:"embed_cache_ttl"`

	// Document index: memory | elasticsearch | postgres
	IndexBackend string `json:"index_backend"`
	IndexPath    string `json:"index_path"`
	TopK         int    `json:"top_k"`

	// Elasticsearch
	ElasticsearchHost        string `json:"elasticsearch_host"`
	ElasticsearchPort        int    `json:"elasticsearch_port"`
	ElasticsearchScheme      string `json:"elasticsearch_scheme"`
	ElasticsearchUser        string `json:"elasticsearch_user"`
	ElasticsearchPassword    string `json:"elasticsearch_password"`
	ElasticsearchVerifyCerts bool   `json:"elasticsearch_verify_certs"`
	ElasticsearchMaxRetries  int    `json:"elasticsearch_max_retries"`
	ElasticsearchTimeout     int    `json:"elasticsearch_timeout"`
	ElasticsearchIndex       string `json:"elasticsearch_index"`

	// Postgres
	PostgresURL   string `json:"postgres_url"`
	PostgresTable string `json:"postgres_table"`

	// Remote tool service
	ToolServiceURL  string `json:"tool_service_url"`
	ToolTimeout     int    `json:"tool_timeout"`
	ToolCatalogPath string `json:"tool_catalog_path"`
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	cfg := &Config{
		Host:                     DefaultHost,
		Port:                     DefaultPort,
		Environment:              DefaultEnvironment,
		APIPrefix:                DefaultAPIPrefix,
		LogLevel:                 DefaultLogLevel,
		CORSOrigins:              DefaultCORSOrigins,
		APIKeyHeader:             "X-API-Key",
		EnableAuth:               true,
		RateLimitPerMinute:       DefaultRateLimitPerMinute,
		MaxMessageLength:         DefaultMaxMessageLength,
		EnableAuditLogging:       true,
		OllamaURL:                DefaultOllamaURL,
		LocalModel:               DefaultLocalModel,
		LocalTimeout:             DefaultLocalTimeout,
		RemoteProvider:           DefaultRemoteProvider,
		RemoteTimeout:            DefaultRemoteTimeout,
		EmbedModel:               DefaultEmbedModel,
		EmbedTimeout:             DefaultEmbedTimeout,
		EmbedCacheTTL:            DefaultEmbedCacheTTL,
		IndexBackend:             DefaultIndexBackend,
		IndexPath:                DefaultIndexPath,
		TopK:                     DefaultTopK,
		ElasticsearchPort:        DefaultElasticsearchPort,
		ElasticsearchScheme:      DefaultElasticsearchScheme,
		ElasticsearchVerifyCerts: true,
		ElasticsearchMaxRetries:  DefaultElasticsearchMaxRetries,
		ElasticsearchTimeout:     DefaultElasticsearchTimeout,
		ElasticsearchIndex:       DefaultElasticsearchIndex,
		PostgresTable:            DefaultPostgresTable,
		ToolServiceURL:           DefaultToolServiceURL,
		ToolTimeout:              DefaultToolTimeout,
	}

	// Load from JSON config file if specified
	if path := getEnv("PORTFOLIO_AGENT_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, err
		}
	}

	// Environment overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

// RemoteConfigured reports whether a remote model credential is present.
func (c *Config) RemoteConfigured() bool {
	return c.RemoteAPIKey != ""
}

func (c *Config) LocalTimeoutDuration() time.Duration  { return seconds(c.LocalTimeout) }
func (c *Config) RemoteTimeoutDuration() time.Duration { return seconds(c.RemoteTimeout) }
func (c *Config) EmbedTimeoutDuration() time.Duration  { return seconds(c.EmbedTimeout) }
func (c *Config) ToolTimeoutDuration() time.Duration   { return seconds(c.ToolTimeout) }
func (c *Config) EmbedCacheTTLDuration() time.Duration { return seconds(c.EmbedCacheTTL) }
func (c *Config) ElasticsearchTimeoutDuration() time.Duration {
	return seconds(c.ElasticsearchTimeout)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("PORTFOLIO_AGENT_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("PORTFOLIO_AGENT_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("PORTFOLIO_AGENT_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("PORTFOLIO_AGENT_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("PORTFOLIO_AGENT_API_KEYS", ""); v != "" {
		cfg.APIKeys = splitList(v)
	}
	if v := getEnv("CORS_ORIGINS", ""); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = v == "true" || v == "1"
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}

	if v := getEnv("MAX_MESSAGE_LENGTH", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxMessageLength = n
		}
	}
	if v := getEnv("ENABLE_AUDIT_LOGGING", ""); v != "" {
		cfg.EnableAuditLogging = v == "true" || v == "1"
	}

	if v := getEnv("OLLAMA_URL", ""); v != "" {
		cfg.OllamaURL = strings.TrimSuffix(v, "/api/generate")
	}
	if v := getEnv("LOCAL_MODEL", ""); v != "" {
		cfg.LocalModel = v
	}
	if v := getEnv("REMOTE_MODEL_PROVIDER", ""); v != "" {
		cfg.RemoteProvider = strings.ToLower(v)
	}
	// EXTERNAL_* names are kept for existing deployments.
	if v := getEnv("EXTERNAL_LLM_API_KEY", ""); v != "" {
		cfg.RemoteAPIKey = v
	}
	if v := getEnv("REMOTE_MODEL_API_KEY", ""); v != "" {
		cfg.RemoteAPIKey = v
	}
	if v := getEnv("EXTERNAL_API_URL", ""); v != "" {
		cfg.RemoteURL = v
	}
	if v := getEnv("REMOTE_MODEL_URL", ""); v != "" {
		cfg.RemoteURL = v
	}
	if v := getEnv("REMOTE_MODEL", ""); v != "" {
		cfg.RemoteModel = v
	}

	if v := getEnv("EMBED_MODEL", ""); v != "" {
		cfg.EmbedModel = v
	}
	if v := getEnv("REDIS_ADDR", ""); v != "" {
		cfg.RedisAddr = v
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		cfg.RedisPassword = v
	}

	if v := getEnv("INDEX_BACKEND", ""); v != "" {
		cfg.IndexBackend = strings.ToLower(v)
	}
	if v := getEnv("INDEX_PATH", ""); v != "" {
		cfg.IndexPath = v
	}
	if v := getEnv("TOP_K", ""); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			cfg.TopK = k
		}
	}

	if v := getEnv("ELASTICSEARCH_HOST", ""); v != "" {
		cfg.ElasticsearchHost = v
	}
	if v := getEnv("ELASTICSEARCH_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.ElasticsearchPort = p
		}
	}
	if v := getEnv("ELASTICSEARCH_SCHEME", ""); v != "" {
		cfg.ElasticsearchScheme = v
	}
	if v := getEnv("ELASTICSEARCH_USER", ""); v != "" {
		cfg.ElasticsearchUser = v
	}
	if v := getEnv("ELASTICSEARCH_PASSWORD", ""); v != "" {
		cfg.ElasticsearchPassword = v
	}
	if v := getEnv("ELASTICSEARCH_INDEX", ""); v != "" {
		cfg.ElasticsearchIndex = v
	}

	if v := getEnv("POSTGRES_URL", ""); v != "" {
		cfg.PostgresURL = v
	}
	if v := getEnv("POSTGRES_TABLE", ""); v != "" {
		cfg.PostgresTable = v
	}

	if v := getEnv("MCP_BASE_URL", ""); v != "" {
		cfg.ToolServiceURL = v
	}
	if v := getEnv("TOOL_CATALOG_PATH", ""); v != "" {
		cfg.ToolCatalogPath = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
