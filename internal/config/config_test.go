package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"atsscore/internal/errors"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// validConfig returns the built-in defaults as a Config.
func validConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	cfg.applyFallbacks()
	return &cfg
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, "app:\n  logLevel: info\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.App.DefaultFormat)
	assert.Equal(t, []string{"json", "text", "markdown"}, cfg.App.SupportedFormats)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 20, cfg.Server.MaxBatchSize)
	assert.Equal(t, "disabled", cfg.Server.TLS.Mode)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.Breaker.MinRequests)
	assert.Equal(t, "en", cfg.Scoring.ReportLanguage)
	assert.NotEmpty(t, cfg.Observability.ServiceInstance)
}

func TestLoadConfigFileAndEnvironment(t *testing.T) {
	path := writeConfigFile(t, `
app:
  logLevel: debug
server:
  port: "9000"
  maxBatchSize: 5
scoring:
  parallelism: 4
  weights:
    technical_ats:
      ats_parse_rate: 0.5
      design_layout: 0.5
cache:
  enabled: true
  backend: redis
  redisAddr: redis:6379
`)
	t.Setenv("ATSSCORE_SERVER_PORT", "9100")
	t.Setenv("ATSSCORE_CACHE_TTL", "1h")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.True(t, cfg.Observability.ConsoleOutput)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.MaxBatchSize)
	assert.Equal(t, 4, cfg.Scoring.Parallelism)
	assert.Equal(t, 0.5, cfg.Scoring.Weights["technical_ats"]["design_layout"])
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
}

func TestLoadConfigAPIKeysFromEnvironment(t *testing.T) {
	path := writeConfigFile(t, "app:\n  logLevel: warn\n")
	t.Setenv("ATSSCORE_SERVER_APIKEYS", " key-a, key-b ,,")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"key-a", "key-b"}, cfg.Server.APIKeys)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeConfigFile(t, "app:\n  logLevel: verbose\n")
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "invalid log level: verbose")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad log level", func(c *Config) { c.App.LogLevel = "trace" }, "invalid log level"},
		{"unsupported default format", func(c *Config) { c.App.DefaultFormat = "xml" }, "invalid default format: xml"},
		{"missing port", func(c *Config) { c.Server.Port = "" }, "server port is required"},
		{"zero batch size", func(c *Config) { c.Server.MaxBatchSize = 0 }, "maxBatchSize must be positive"},
		{"rate limit without budget", func(c *Config) {
			c.Server.RateLimit.Enabled = true
			c.Server.RateLimit.RequestsPerMin = 0
		}, "requestsPerMin must be positive"},
		{"negative parallelism", func(c *Config) { c.Scoring.Parallelism = -1 }, "parallelism cannot be negative"},
		{"weights not summing to one", func(c *Config) {
			c.Scoring.Weights = map[string]map[string]float64{
				"content_quality": {"repetition": 0.5, "grammar_spelling": 0.4},
			}
		}, "weights of pillar content_quality sum to 0.9000"},
		{"negative weight", func(c *Config) {
			c.Scoring.Weights = map[string]map[string]float64{
				"relevance_keywords": {"keywords_relevance": 1.2, "template_suggestions": -0.2},
			}
		}, "cannot be negative"},
		{"unknown cache backend", func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.Backend = "memcached"
		}, "invalid cache backend: memcached"},
		{"redis without address", func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.Backend = "redis"
			c.Cache.RedisAddr = ""
		}, "redisAddr is required"},
		{"disabled cache ignores backend", func(c *Config) { c.Cache.Backend = "memcached" }, ""},
		{"breaker threshold above one", func(c *Config) { c.Breaker.FailureThreshold = 1.5 }, "failureThreshold must be in (0, 1]"},
		{"breaker without min requests", func(c *Config) { c.Breaker.MinRequests = 0 }, "minRequests must be at least 1"},
		{"tls server without cert", func(c *Config) { c.Server.TLS.Mode = "server" }, "certificate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestIsSensitive(t *testing.T) {
	assert.True(t, isSensitive("ATSSCORE_SERVER_APIKEYS"))
	assert.True(t, isSensitive("ATSSCORE_SERVER_JWTSECRET"))
	assert.True(t, isSensitive("ATSSCORE_CACHE_REDISPASSWORD"))
	assert.False(t, isSensitive("ATSSCORE_SERVER_PORT"))
}
