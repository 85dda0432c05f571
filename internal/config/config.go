package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Port              int           `mapstructure:"port" validate:"min=1,max=65535"`
	DatabaseURL       string        `mapstructure:"database_url"`
	ArtifactDBPath    string        `mapstructure:"artifact_db_path" validate:"required"`
	NatsURL           string        `mapstructure:"nats_url"`
	NatsToken         string        `mapstructure:"nats_token"`
	LogLevel          string        `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat         string        `mapstructure:"log_format" validate:"oneof=json console"`
	AIProvider        string        `mapstructure:"ai_provider" validate:"oneof=anthropic gemini"`
	AnthropicAPIKey   string        `mapstructure:"anthropic_api_key"`
	AnthropicModel    string        `mapstructure:"anthropic_model"`
	GeminiAPIKey      string        `mapstructure:"gemini_api_key"`
	GeminiModel       string        `mapstructure:"gemini_model"`
	AIMaxTokens       int           `mapstructure:"ai_max_tokens" validate:"min=256"`
	AICreditCost      int           `mapstructure:"ai_credit_cost" validate:"min=0"`
	DefaultLocale     string        `mapstructure:"default_locale" validate:"required"`
	PromptDir         string        `mapstructure:"prompt_dir"`
	JobTimeout        time.Duration `mapstructure:"job_timeout" validate:"min=1s"`
	MaxConcurrentJobs int64         `mapstructure:"max_concurrent_jobs" validate:"min=1"`
	ReaperInterval    time.Duration `mapstructure:"reaper_interval" validate:"min=1s"`
	StaleAfter        time.Duration `mapstructure:"stale_after" validate:"gtfield=JobTimeout"`
	APIToken          string        `mapstructure:"api_token"`
	StartingCredits   int           `mapstructure:"starting_credits" validate:"min=0"`
	MaxUploadBytes    int64         `mapstructure:"max_upload_bytes" validate:"min=1"`
	CORSOrigins       []string      `mapstructure:"cors_origins"`
}

var defaults = map[string]any{
	"port":                8760,
	"database_url":        "",
	"artifact_db_path":    "chatrecap-artifacts.db",
	"nats_url":            "",
	"nats_token":          "",
	"log_level":           "info",
	"log_format":          "json",
	"ai_provider":         "anthropic",
	"anthropic_api_key":   "",
	"anthropic_model":     "claude-sonnet-4-20250514",
	"gemini_api_key":      "",
	"gemini_model":        "gemini-2.0-flash",
	"ai_max_tokens":       4096,
	"ai_credit_cost":      1,
	"default_locale":      "en",
	"prompt_dir":          "prompts",
	"job_timeout":         "5m",
	"max_concurrent_jobs": 4,
	"reaper_interval":     "1m",
	"stale_after":         "15m",
	"api_token":           "",
	"starting_credits":    0,
	"max_upload_bytes":    50 << 20,
	"cors_origins":        []string{"*"},
}

// Load reads defaults, an optional config file at path (yaml or toml), then
// environment variables named after the keys in upper case.
func Load(path string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges and provider credentials.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// AIKey returns the API key for the selected provider.
func (c Config) AIKey() string {
	if c.AIProvider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.AnthropicAPIKey
}
