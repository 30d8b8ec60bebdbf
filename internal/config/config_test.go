package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolioagent/portfolioagent/internal/config"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultPort, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "X-API-Key", cfg.APIKeyHeader)
	assert.Equal(t, config.DefaultOllamaURL, cfg.OllamaURL)
	assert.Equal(t, "memory", cfg.IndexBackend)
	assert.Equal(t, 5, cfg.TopK)
	assert.False(t, cfg.RemoteConfigured())
	assert.Equal(t, 60*time.Second, cfg.LocalTimeoutDuration())
	assert.Equal(t, 24*time.Hour, cfg.EmbedCacheTTLDuration())
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORTFOLIO_AGENT_PORT", "9001")
	t.Setenv("PORTFOLIO_AGENT_API_KEYS", "a, b ,,c")
	t.Setenv("OLLAMA_URL", "http://gpu-box:11434/api/generate")
	t.Setenv("EXTERNAL_LLM_API_KEY", "old-key")
	t.Setenv("REMOTE_MODEL_API_KEY", "new-key")
	t.Setenv("REMOTE_MODEL_PROVIDER", "OpenAI")
	t.Setenv("INDEX_BACKEND", "Elasticsearch")
	t.Setenv("TOP_K", "0")
	t.Setenv("ENABLE_AUTH", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.APIKeys)
	assert.Equal(t, "http://gpu-box:11434", cfg.OllamaURL)
	assert.Equal(t, "new-key", cfg.RemoteAPIKey, "REMOTE_MODEL_API_KEY wins over the legacy name")
	assert.Equal(t, "openai", cfg.RemoteProvider)
	assert.Equal(t, "elasticsearch", cfg.IndexBackend)
	assert.Equal(t, config.DefaultTopK, cfg.TopK, "non-positive TOP_K is ignored")
	assert.False(t, cfg.EnableAuth)
	assert.True(t, cfg.RemoteConfigured())
}

func TestLoadPrecedence(t *testing.T) {
	dir := chdirTemp(t)

	path := filepath.Join(dir, "agent.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": 7000, "local_model": "llama3", "top_k": 3}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOCAL_MODEL=from-dotenv\n"), 0o644))
	t.Setenv("PORTFOLIO_AGENT_CONFIG", path)
	t.Setenv("PORTFOLIO_AGENT_PORT", "7100")
	// godotenv.Load sets variables in the process; make sure the test does not leak them.
	t.Cleanup(func() { os.Unsetenv("LOCAL_MODEL") })

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 7100, cfg.Port, "environment beats the config file")
	assert.Equal(t, "from-dotenv", cfg.LocalModel, ".env feeds the environment layer")
	assert.Equal(t, 3, cfg.TopK, "config file beats defaults")
}

func TestLoadBadConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port":`), 0o644))
	t.Setenv("PORTFOLIO_AGENT_CONFIG", path)

	_, err := config.Load()
	assert.Error(t, err)
}
