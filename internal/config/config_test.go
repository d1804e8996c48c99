package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StrategyDownload, cfg.Fetcher.Strategy)
	assert.Equal(t, 1000, cfg.Fetcher.MaxStudies)
	assert.Equal(t, 10<<20, cfg.Fetcher.MaxFieldBytes)
	assert.Equal(t, 60*time.Second, cfg.Fetcher.Timeout)
	assert.False(t, cfg.Country.MatchCodes)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9000
fetcher:
  strategy: studies
  timeout: 5s
  max_studies: 50
country:
  match_codes: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("TRIALS_SERVER__PORT", "9100")
	t.Setenv("TRIALS_HTTP__CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env overrides file")
	assert.Equal(t, StrategyStudies, cfg.Fetcher.Strategy)
	assert.Equal(t, 5*time.Second, cfg.Fetcher.Timeout)
	assert.Equal(t, 50, cfg.Fetcher.MaxStudies)
	assert.True(t, cfg.Country.MatchCodes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
}

func TestLoad_DebugForcesConsole(t *testing.T) {
	t.Setenv("TRIALS_SERVER__DEBUG", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("TRIALS_FETCHER__STRATEGY", "scrape")

	_, err := Load("")
	assert.ErrorContains(t, err, "fetcher.strategy")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Server.Port = 0
	cfg.Fetcher.BaseURL = "not a url"
	cfg.Fetcher.MaxFieldBytes = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "fetcher.base_url")
	assert.Contains(t, err.Error(), "fetcher.max_field_bytes")
}

func TestLoad_ChartAssetsHost(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("TRIALS_CHART__ASSETS_HOST", "https://cdn.example.org/echarts/")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.org/echarts/", cfg.Chart.AssetsHost)

	t.Setenv("TRIALS_CHART__ASSETS_HOST", "https://cdn.example.org/echarts")
	_, err = Load("")
	assert.ErrorContains(t, err, "chart.assets_host")
}

func TestEnvTransformFunc(t *testing.T) {
	assert.Equal(t, "server.port", envTransformFunc("TRIALS_SERVER__PORT"))
	assert.Equal(t, "fetcher.breaker.failure_threshold", envTransformFunc("TRIALS_FETCHER__BREAKER__FAILURE_THRESHOLD"))
	assert.Equal(t, "", envTransformFunc("TRIALS_"))
}

func TestServerAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8081", ServerConfig{Host: "127.0.0.1", Port: 8081}.Addr())
}
