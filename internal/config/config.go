package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int           `yaml:"port"`
	AdminAPIKey string        `yaml:"admin_api_key"`
	JWTSecret   string        `yaml:"jwt_secret"`
	RateLimit   int           `yaml:"rate_limit"`   // requests per window per session
	RateWindow  time.Duration `yaml:"rate_window"`  // sliding window size
	CallTimeout time.Duration `yaml:"call_timeout"` // per upstream network call
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`       // memory expiry, default 7 days
	Window        int           `yaml:"window"`    // max retained messages, default 15
	Retention     time.Duration `yaml:"retention"` // read-side horizon, 0 disables
	Lock          bool          `yaml:"lock"`      // per-session single-flight
	EncryptionKey string        `yaml:"encryption_key"`
}

type KnowledgeConfig struct {
	FreshFor             time.Duration `yaml:"fresh_for"` // cache freshness TTL
	KeepFor              time.Duration `yaml:"keep_for"`  // how long stale entries survive
	DefaultSpreadsheetID string        `yaml:"default_spreadsheet_id"`
	TokenBudget          int           `yaml:"token_budget"` // max knowledge tokens per prompt
}

type LangfuseConfig struct {
	BaseURL   string        `yaml:"base_url"`
	PublicKey string        `yaml:"public_key"`
	SecretKey string        `yaml:"secret_key"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

type AIConfig struct {
	OpenAIKey     string `yaml:"openai_key"`
	GeminiKey     string `yaml:"gemini_key"`
	AnthropicKey  string `yaml:"anthropic_key"`
	OpenRouterKey string `yaml:"openrouter_key"`
	GroqKey       string `yaml:"groq_key"`
}

type EmailConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	From      string `yaml:"from"`
	DefaultTo string `yaml:"default_to"` // fallback when the tenant has no recipient
	Workers   int    `yaml:"workers"`    // async dispatch pool size
}

type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"` // OTLP HTTP endpoint, empty disables export
	ServiceName string `yaml:"service_name"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Session   SessionConfig   `yaml:"session"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Langfuse  LangfuseConfig  `yaml:"langfuse"`
	AI        AIConfig        `yaml:"ai"`
	Email     EmailConfig     `yaml:"email"`
	Tracing   TracingConfig   `yaml:"tracing"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, expanding ${ENV_VAR} references so
// secrets can stay out of the file itself.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimit <= 0 {
		cfg.Server.RateLimit = 20
	}
	if cfg.Server.RateWindow <= 0 {
		cfg.Server.RateWindow = time.Minute
	}
	if cfg.Server.CallTimeout <= 0 {
		cfg.Server.CallTimeout = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 7 * 24 * time.Hour
	}
	if cfg.Session.Window <= 0 {
		cfg.Session.Window = 15
	}
	if cfg.Knowledge.FreshFor <= 0 {
		cfg.Knowledge.FreshFor = time.Hour
	}
	if cfg.Knowledge.KeepFor <= 0 {
		cfg.Knowledge.KeepFor = 24 * time.Hour
	}
	if cfg.Knowledge.TokenBudget <= 0 {
		cfg.Knowledge.TokenBudget = 6000
	}
	if cfg.Langfuse.CacheTTL <= 0 {
		cfg.Langfuse.CacheTTL = 5 * time.Minute
	}
	if cfg.Email.Workers <= 0 {
		cfg.Email.Workers = 2
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "guest-concierge"
	}

	// Minimal validation
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
