package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderGemini    LLMProvider = "gemini"
	ProviderBedrock   LLMProvider = "bedrock"
	ProviderOpenAI    LLMProvider = "openai"
	ProviderAnthropic LLMProvider = "anthropic"
)

type StoreBackend string

const (
	BackendFile     StoreBackend = "file"
	BackendPostgres StoreBackend = "postgres"
	BackendSQLite   StoreBackend = "sqlite"
)

// Config is populated once at startup and handed to the components that need it.
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY,required,notEmpty"`
	Port         int    `env:"PORT" envDefault:"8000"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	// Upstream
	LLMProvider     LLMProvider   `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiModel     string        `env:"GEMINI_MODEL"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
	BatchTimeout    time.Duration `env:"BATCH_TIMEOUT" envDefault:"5m"`
	AWSRegion       string        `env:"AWS_REGION" envDefault:"us-east-1"`
	ClaudeModelID   string        `env:"CLAUDE_MODEL_ID"`
	OpenAIKey       string        `env:"OPEN_AI_KEY"`
	OpenAIModelID   string        `env:"OPEN_AI_MODEL_ID"`
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string        `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-haiku-latest"`

	// Storage
	StoreBackend StoreBackend `env:"STORE_BACKEND" envDefault:"file"`
	DataFile     string       `env:"DATA_FILE" envDefault:"data.json"`
	DatabaseURL  string       `env:"DATABASE_URL"`
	SQLitePath   string       `env:"SQLITE_PATH" envDefault:"data.db"`

	// Events
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	EventsStream  string `env:"EVENTS_STREAM" envDefault:"blog-events"`

	PromptsConfigPath string `env:"PROMPTS_CONFIG_PATH" envDefault:"configs/prompts.yaml"`
	MaxPromptLength   int    `env:"MAX_PROMPT_LENGTH" envDefault:"2000"`
}

// Load parses the process environment. Any error is a misconfigured
// deployment and callers are expected to exit.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.UpstreamTimeout)
	}
	if c.BatchTimeout <= 0 {
		return fmt.Errorf("BATCH_TIMEOUT must be positive, got %s", c.BatchTimeout)
	}
	if c.MaxPromptLength <= 0 {
		return fmt.Errorf("MAX_PROMPT_LENGTH must be positive, got %d", c.MaxPromptLength)
	}

	switch c.LLMProvider {
	case ProviderGemini:
	case ProviderBedrock:
		if c.ClaudeModelID == "" {
			return fmt.Errorf("CLAUDE_MODEL_ID is required when LLM_PROVIDER=%s", c.LLMProvider)
		}
	case ProviderOpenAI:
		if c.OpenAIKey == "" || c.OpenAIModelID == "" {
			return fmt.Errorf("OPEN_AI_KEY and OPEN_AI_MODEL_ID are required when LLM_PROVIDER=%s", c.LLMProvider)
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" || c.AnthropicModel == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY and ANTHROPIC_MODEL are required when LLM_PROVIDER=%s", c.LLMProvider)
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER: %s", c.LLMProvider)
	}

	switch c.StoreBackend {
	case BackendFile:
		if c.DataFile == "" {
			return fmt.Errorf("DATA_FILE must not be empty")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=%s", c.StoreBackend)
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must not be empty")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND: %s", c.StoreBackend)
	}

	return nil
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// WriteTimeout is the HTTP server write deadline. It outlasts both the
// single-call and the batch deadline so their error responses can be written.
func (c *Config) WriteTimeout() time.Duration {
	return max(c.UpstreamTimeout, c.BatchTimeout) + 15*time.Second
}
