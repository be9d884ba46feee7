package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 提供者鍵值，與設定檔和請求中的 provider 欄位一致
const (
	ProviderGoogle     = "google"
	ProviderOpenAI     = "openai"
	ProviderGroq       = "groq"
	ProviderAnthropic  = "anthropic"
	ProviderDeepSeek   = "deepseek"
	ProviderOpenRouter = "openrouter"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Providers   ProvidersConfig `mapstructure:"providers"`
	Retry       RetryConfig     `mapstructure:"retry"`
	Fetch       FetchConfig     `mapstructure:"fetch"`
	Cache       CacheConfig     `mapstructure:"cache"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
	LogDir      string          `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// ProvidersConfig AI 提供者設定，Order 決定自動選擇的順序
type ProvidersConfig struct {
	Order      []string       `mapstructure:"order"`
	Default    string         `mapstructure:"default"`
	Google     ProviderConfig `mapstructure:"google"`
	OpenAI     ProviderConfig `mapstructure:"openai"`
	Groq       ProviderConfig `mapstructure:"groq"`
	Anthropic  ProviderConfig `mapstructure:"anthropic"`
	DeepSeek   ProviderConfig `mapstructure:"deepseek"`
	OpenRouter ProviderConfig `mapstructure:"openrouter"`
}

// ProviderConfig 單一提供者設定
type ProviderConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	ContentLimit int           `mapstructure:"content_limit"`
}

// Get 依鍵值取得提供者設定
func (p ProvidersConfig) Get(key string) (ProviderConfig, bool) {
	switch key {
	case ProviderGoogle:
		return p.Google, true
	case ProviderOpenAI:
		return p.OpenAI, true
	case ProviderGroq:
		return p.Groq, true
	case ProviderAnthropic:
		return p.Anthropic, true
	case ProviderDeepSeek:
		return p.DeepSeek, true
	case ProviderOpenRouter:
		return p.OpenRouter, true
	}
	return ProviderConfig{}, false
}

// RetryConfig 提供者重試策略
type RetryConfig struct {
	MaxRetries        int           `mapstructure:"max_retries"`
	BaseDelay         time.Duration `mapstructure:"base_delay"`
	Jitter            float64       `mapstructure:"jitter"`
	DefaultRetryAfter time.Duration `mapstructure:"default_retry_after"`
}

// FetchConfig 網頁抓取設定
type FetchConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	MaxContentChars int           `mapstructure:"max_content_chars"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Redis           RedisConfig   `mapstructure:"redis"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定：預設值 → config 檔（可選）→ 環境變數
func LoadConfig() (*Config, error) {
	// .env 不存在時略過
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration",
		"openai_api_key:", MaskAPIKey(v.GetString("providers.openai.api_key")),
		"google_api_key:", MaskAPIKey(v.GetString("providers.google.api_key")),
		"provider_order:", v.GetStringSlice("providers.order"),
	)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// bindEnv 綁定不帶 APP_ 前綴的常見環境變量
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("providers.google.api_key", "GOOGLE_API_KEY")
	_ = v.BindEnv("providers.openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("providers.groq.api_key", "GROQ_API_KEY")
	_ = v.BindEnv("providers.anthropic.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("providers.deepseek.api_key", "DEEPSEEK_API_KEY")
	_ = v.BindEnv("providers.openrouter.api_key", "OPENROUTER_API_KEY")
	_ = v.BindEnv("providers.openrouter.model", "OPENROUTER_MODEL")
	_ = v.BindEnv("providers.order", "AI_PROVIDER_ORDER")
	_ = v.BindEnv("cache.enabled", "CACHE_ENABLED")
	_ = v.BindEnv("cache.backend", "CACHE_BACKEND")
	_ = v.BindEnv("cache.redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("fetch.timeout", "FETCH_TIMEOUT")
	_ = v.BindEnv("dedup_window", "DEDUP_WINDOW")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.port", "PORT")
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-assistant")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// 提供者設定（順序與原有自動選擇順序一致）
	v.SetDefault("providers.order", []string{
		ProviderGoogle, ProviderOpenAI, ProviderGroq, ProviderAnthropic, ProviderDeepSeek, ProviderOpenRouter,
	})
	v.SetDefault("providers.default", "auto")

	v.SetDefault("providers.google.model", "gemini-1.5-flash")
	v.SetDefault("providers.google.base_url", "https://generativelanguage.googleapis.com/v1")
	v.SetDefault("providers.google.max_tokens", 1024)
	v.SetDefault("providers.google.content_limit", 8000)

	v.SetDefault("providers.openai.model", "gpt-3.5-turbo")
	v.SetDefault("providers.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.openai.content_limit", 8000)

	v.SetDefault("providers.groq.model", "llama-3.1-8b-instant")
	v.SetDefault("providers.groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("providers.groq.max_tokens", 2000)
	v.SetDefault("providers.groq.content_limit", 3000)

	v.SetDefault("providers.anthropic.model", "claude-3-haiku-20240307")
	v.SetDefault("providers.anthropic.base_url", "https://api.anthropic.com/v1")
	v.SetDefault("providers.anthropic.max_tokens", 4000)
	v.SetDefault("providers.anthropic.content_limit", 8000)

	v.SetDefault("providers.deepseek.model", "deepseek-chat")
	v.SetDefault("providers.deepseek.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("providers.deepseek.content_limit", 8000)

	v.SetDefault("providers.openrouter.model", "qwen/qwen2.5-vl-72b-instruct:free")
	v.SetDefault("providers.openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("providers.openrouter.max_tokens", 2048)
	v.SetDefault("providers.openrouter.content_limit", 8000)

	for _, key := range []string{ProviderGoogle, ProviderOpenAI, ProviderGroq, ProviderAnthropic, ProviderDeepSeek, ProviderOpenRouter} {
		v.SetDefault("providers."+key+".timeout", "60s")
	}

	// 重試設定
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.base_delay", "1s")
	v.SetDefault("retry.jitter", 0.3)
	v.SetDefault("retry.default_retry_after", "60s")

	// 抓取設定
	v.SetDefault("fetch.timeout", "15s")
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; RecipeAssistant/1.0)")
	v.SetDefault("fetch.max_body_bytes", 5<<20)
	v.SetDefault("fetch.max_content_chars", 100000)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	if len(config.Providers.Order) == 0 {
		return fmt.Errorf("provider order must not be empty")
	}
	for _, key := range config.Providers.Order {
		if _, ok := config.Providers.Get(key); !ok {
			return fmt.Errorf("unknown provider in order: %q", key)
		}
	}

	if config.Retry.MaxRetries < 0 {
		return fmt.Errorf("invalid retry max retries")
	}
	if config.Retry.BaseDelay <= 0 {
		return fmt.Errorf("invalid retry base delay")
	}
	if config.Retry.Jitter < 0 || config.Retry.Jitter > 1 {
		return fmt.Errorf("invalid retry jitter")
	}

	if config.Fetch.Timeout <= 0 {
		return fmt.Errorf("invalid fetch timeout")
	}

	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "memory":
			if config.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case "redis":
			if config.Cache.Redis.Addr == "" {
				return fmt.Errorf("redis address is required for redis cache")
			}
		default:
			return fmt.Errorf("unknown cache backend: %q", config.Cache.Backend)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.Requests <= 0 {
			return fmt.Errorf("invalid rate limit requests")
		}
		if config.RateLimit.Window <= 0 {
			return fmt.Errorf("invalid rate limit window")
		}
	}

	return nil
}
