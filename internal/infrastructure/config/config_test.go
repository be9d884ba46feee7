package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{ProviderGoogle, ProviderOpenAI, ProviderGroq, ProviderAnthropic, ProviderDeepSeek, ProviderOpenRouter},
		cfg.Providers.Order)
	assert.Equal(t, "auto", cfg.Providers.Default)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.InDelta(t, 0.3, cfg.Retry.Jitter, 1e-9)
	assert.Equal(t, 60*time.Second, cfg.Retry.DefaultRetryAfter)
	assert.Equal(t, 15*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 60*time.Second, cfg.Providers.Anthropic.Timeout)
	assert.Equal(t, 3000, cfg.Providers.Groq.ContentLimit)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-1234567890")
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("APP_RETRY_MAX_RETRIES", "1")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sk-test-1234567890", cfg.Providers.OpenAI.APIKey)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 1, cfg.Retry.MaxRetries)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memcached")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown cache backend")
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: 8080},
			Providers: ProvidersConfig{Order: []string{ProviderOpenAI}},
			Retry:     RetryConfig{MaxRetries: 3, BaseDelay: time.Second, Jitter: 0.3},
			Fetch:     FetchConfig{Timeout: time.Second},
		}
	}
	require.NoError(t, validateConfig(valid()))

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server port"},
		{"empty order", func(c *Config) { c.Providers.Order = nil }, "provider order"},
		{"unknown provider", func(c *Config) { c.Providers.Order = []string{"mistral"} }, "unknown provider"},
		{"jitter", func(c *Config) { c.Retry.Jitter = 2 }, "jitter"},
		{"base delay", func(c *Config) { c.Retry.BaseDelay = 0 }, "base delay"},
		{"fetch timeout", func(c *Config) { c.Fetch.Timeout = 0 }, "fetch timeout"},
		{"cache ttl", func(c *Config) {
			c.Cache = CacheConfig{Enabled: true, Backend: "memory", MaxSize: 10, CleanupInterval: time.Minute}
		}, "cache ttl"},
		{"redis addr", func(c *Config) {
			c.Cache = CacheConfig{Enabled: true, Backend: "redis", TTL: time.Hour}
		}, "redis address"},
		{"rate limit", func(c *Config) { c.RateLimit = RateLimitConfig{Enabled: true} }, "rate limit requests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestProvidersGet(t *testing.T) {
	p := ProvidersConfig{Groq: ProviderConfig{Model: "llama"}}
	pc, ok := p.Get(ProviderGroq)
	require.True(t, ok)
	assert.Equal(t, "llama", pc.Model)

	_, ok = p.Get("unknown")
	assert.False(t, ok)
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "", MaskAPIKey(""))
	assert.Equal(t, "****", MaskAPIKey("short"))
	assert.Equal(t, "sk-a...wxyz", MaskAPIKey("sk-abcdefghijklmnopqrstuvwxyz"))
}
