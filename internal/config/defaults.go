package config

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 30
	DefaultMaxMessageLength   = 2000

	DefaultOllamaURL    = "http://localhost:11434"
	DefaultLocalModel   = "mistral:latest"
	DefaultLocalTimeout = 60 // seconds

	DefaultRemoteProvider = "gemini"
	DefaultRemoteTimeout  = 30 // seconds

	DefaultEmbedModel    = "nomic-embed-text"
	DefaultEmbedTimeout  = 15           // seconds
	DefaultEmbedCacheTTL = 24 * 60 * 60 // seconds

	DefaultIndexBackend = "memory"
	DefaultIndexPath    = "data/index.json"
	DefaultTopK         = 5

	DefaultElasticsearchPort       = 9200
	DefaultElasticsearchScheme     = "http"
	DefaultElasticsearchMaxRetries = 3
	DefaultElasticsearchTimeout    = 10
	DefaultElasticsearchIndex      = "portfolio-docs"

	DefaultPostgresTable = "documents"

	DefaultToolServiceURL = "http://127.0.0.1:5000/mcp"
	DefaultToolTimeout    = 10 // seconds

	DefaultCORSMaxAge = 300
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}
