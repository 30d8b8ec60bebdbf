package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/portfolioagent/portfolioagent/internal/config"
	"github.com/portfolioagent/portfolioagent/internal/handler"
	"github.com/portfolioagent/portfolioagent/internal/middleware"
	"github.com/portfolioagent/portfolioagent/internal/security"
)

// NewRouter mounts the chat API, the websocket chat and the operational
// endpoints around runner.
func NewRouter(cfg *config.Config, runner handler.Runner, checks map[string]handler.HealthChecker) http.Handler {
	validator := security.NewMessageValidator(cfg.MaxMessageLength)
	auditLogger := security.NewAuditLogger(cfg.EnableAuditLogging)

	healthH := handler.NewHealthHandler(checks)
	chatH := handler.NewChatHandler(runner, validator, auditLogger, cfg.APIKeyHeader)
	wsH := handler.NewWSHandler(runner, validator, auditLogger, cfg.APIKeyHeader, cfg.CORSOrigins)

	cors := middleware.DefaultCORSConfig(cfg.CORSOrigins)
	cors.MaxAge = config.DefaultCORSMaxAge

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cors))
	r.Use(chiMiddleware.RealIP)

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)
	r.Handle("/metrics", promhttp.Handler())

	apiMiddleware := []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitPerMinute, cfg.APIKeyHeader),
	}
	if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		for _, m := range apiMiddleware {
			r.Use(m)
		}

		r.Get("/ws/chat", wsH.Serve)
		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Post("/chat", chatH.Chat)
		})
	})

	return r
}
