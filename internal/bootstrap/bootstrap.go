// Package bootstrap builds the agent and its clients from configuration. All
// long-lived clients and the document index are created once here and shared.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog/log"

	"github.com/portfolioagent/portfolioagent/internal/agent"
	"github.com/portfolioagent/portfolioagent/internal/config"
	"github.com/portfolioagent/portfolioagent/internal/gateway"
	"github.com/portfolioagent/portfolioagent/internal/handler"
	"github.com/portfolioagent/portfolioagent/internal/intent"
	"github.com/portfolioagent/portfolioagent/internal/mcp"
	"github.com/portfolioagent/portfolioagent/internal/retrieval"
	"github.com/portfolioagent/portfolioagent/internal/tools"
)

// App holds the wired pipeline plus the clients health checks need.
type App struct {
	Agent   *agent.Agent
	Catalog *tools.Catalog

	local         *gateway.Ollama
	toolService   *mcp.Client
	elasticsearch *retrieval.ElasticsearchIndex
	cache         *retrieval.RedisCache
}

func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{}

	app.local = gateway.NewOllama(cfg.OllamaURL, cfg.LocalModel, cfg.LocalTimeoutDuration())
	remote, err := gateway.NewRemote(gateway.RemoteOptions{
		Provider: cfg.RemoteProvider,
		APIKey:   cfg.RemoteAPIKey,
		URL:      cfg.RemoteURL,
		Model:    cfg.RemoteModel,
		Timeout:  cfg.RemoteTimeoutDuration(),
	})
	if err != nil {
		return nil, fmt.Errorf("remote model: %w", err)
	}
	gw := gateway.New(app.local, remote)

	app.Catalog = tools.DefaultCatalog()
	if cfg.ToolCatalogPath != "" {
		if app.Catalog, err = tools.LoadCatalog(cfg.ToolCatalogPath); err != nil {
			return nil, err
		}
	}
	app.toolService = mcp.NewClient(cfg.ToolServiceURL, cfg.ToolTimeoutDuration())
	dispatcher := tools.NewDispatcher(app.Catalog, app.toolService)

	var embedder retrieval.Embedder
	embedder, app.cache = NewEmbedder(ctx, cfg)

	index, err := app.buildIndex(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	path := retrieval.NewPath(embedder, index, cfg.TopK)

	app.Agent = agent.New(gw, intent.NewClassifier(gw, app.Catalog), path, dispatcher)

	log.Info().
		Str("local_model", cfg.LocalModel).
		Bool("remote_fallback", gw.HasRemote()).
		Str("index_backend", cfg.IndexBackend).
		Bool("embedding_cache", app.cache != nil).
		Int("tools", len(app.Catalog.Specs())).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Msg("service configuration")
	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("auth enabled but no API keys configured - API routes are open")
	}

	return app, nil
}

// NewEmbedder returns the Ollama embedder, wrapped in the Redis cache when
// RedisAddr is set. The cache is returned so the caller can close it.
func NewEmbedder(ctx context.Context, cfg *config.Config) (retrieval.Embedder, *retrieval.RedisCache) {
	base := retrieval.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbedModel, cfg.EmbedTimeoutDuration())
	if cfg.RedisAddr == "" {
		return base, nil
	}
	cache := retrieval.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.EmbedCacheTTLDuration())
	if err := cache.Ping(ctx); err != nil {
		// Lookups fall through to the embedder while Redis is down.
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("embedding cache unreachable")
	}
	return retrieval.NewCachedEmbedder(base, cache, cfg.EmbedModel), cache
}

// ElasticsearchOptions maps the Elasticsearch settings onto the index client.
func ElasticsearchOptions(cfg *config.Config) retrieval.ElasticsearchOptions {
	return retrieval.ElasticsearchOptions{
		Scheme:      cfg.ElasticsearchScheme,
		Host:        cfg.ElasticsearchHost,
		Port:        cfg.ElasticsearchPort,
		User:        cfg.ElasticsearchUser,
		Password:    cfg.ElasticsearchPassword,
		VerifyCerts: cfg.ElasticsearchVerifyCerts,
		MaxRetries:  cfg.ElasticsearchMaxRetries,
		Timeout:     cfg.ElasticsearchTimeoutDuration(),
		Index:       cfg.ElasticsearchIndex,
	}
}

func (a *App) buildIndex(ctx context.Context, cfg *config.Config) (retrieval.Index, error) {
	switch cfg.IndexBackend {
	case "elasticsearch":
		if cfg.ElasticsearchHost == "" {
			return nil, errors.New("index backend elasticsearch requires ELASTICSEARCH_HOST")
		}
		es, err := retrieval.NewElasticsearchIndex(ElasticsearchOptions(cfg))
		if err != nil {
			return nil, err
		}
		a.elasticsearch = es
		return es, nil
	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, errors.New("index backend postgres requires POSTGRES_URL")
		}
		return retrieval.LoadPostgres(ctx, cfg.PostgresURL, cfg.PostgresTable)
	case "", "memory":
		idx, err := retrieval.LoadMemoryIndex(cfg.IndexPath)
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("path", cfg.IndexPath).Msg("index file not found - retrieval answers will have no context")
			return retrieval.NewMemoryIndex(nil), nil
		}
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.IndexPath).Int("documents", idx.Len()).Msg("loaded document index")
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.IndexBackend)
	}
}

// HealthChecks lists the dependencies /health reports on. Unused ones are nil
// and show as disabled.
func (a *App) HealthChecks() map[string]handler.HealthChecker {
	checks := map[string]handler.HealthChecker{
		"local_model":     a.local,
		"tool_service":    a.toolService,
		"elasticsearch":   nil,
		"embedding_cache": nil,
	}
	if a.elasticsearch != nil {
		checks["elasticsearch"] = a.elasticsearch
	}
	if a.cache != nil {
		checks["embedding_cache"] = a.cache
	}
	return checks
}

func (a *App) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing embedding cache")
		}
	}
}
