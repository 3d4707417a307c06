package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string
	NATSURL     string

	OpenAIAPIKey   string
	OpenAIBaseURL  string
	Model          string
	MaxTokens      int
	MaxRetries     int
	RetryBackoff   time.Duration
	RequestTimeout time.Duration

	MaxFollowUpDepth     int
	HistoryWindow        int
	MinQuestionCount     int
	MaxQuestionCount     int
	DefaultQuestionCount int
	TurnGuardTTL         time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("HIRELOOP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "HireLoop API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 4096)
	v.SetDefault("openai.max_retries", 2)
	v.SetDefault("openai.retry_backoff", "500ms")
	v.SetDefault("openai.request_timeout", "60s")
	v.SetDefault("interview.max_follow_up_depth", 2)
	v.SetDefault("interview.history_window", 6)
	v.SetDefault("interview.min_questions", 5)
	v.SetDefault("interview.max_questions", 15)
	v.SetDefault("interview.default_questions", 8)
	v.SetDefault("interview.turn_guard_ttl", "2m")

	backoff, err := time.ParseDuration(v.GetString("openai.retry_backoff"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid retry backoff: %w", err)
	}

	requestTimeout, err := time.ParseDuration(v.GetString("openai.request_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid request timeout: %w", err)
	}

	guardTTL, err := time.ParseDuration(v.GetString("interview.turn_guard_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid turn guard ttl: %w", err)
	}

	cfg := Config{
		AppName:     v.GetString("app.name"),
		AppEnv:      v.GetString("app.env"),
		AppPort:     v.GetString("app.port"),
		DatabaseURL: v.GetString("database.url"),
		RedisURL:    v.GetString("redis.url"),
		NATSURL:     v.GetString("nats.url"),

		OpenAIAPIKey:   v.GetString("openai.api_key"),
		OpenAIBaseURL:  v.GetString("openai.base_url"),
		Model:          v.GetString("openai.model"),
		MaxTokens:      v.GetInt("openai.max_tokens"),
		MaxRetries:     v.GetInt("openai.max_retries"),
		RetryBackoff:   backoff,
		RequestTimeout: requestTimeout,

		MaxFollowUpDepth:     v.GetInt("interview.max_follow_up_depth"),
		HistoryWindow:        v.GetInt("interview.history_window"),
		MinQuestionCount:     v.GetInt("interview.min_questions"),
		MaxQuestionCount:     v.GetInt("interview.max_questions"),
		DefaultQuestionCount: v.GetInt("interview.default_questions"),
		TurnGuardTTL:         guardTTL,
	}

	if cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("openai api key must be provided")
	}

	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	if cfg.MinQuestionCount <= 0 {
		cfg.MinQuestionCount = 5
	}

	if cfg.MaxQuestionCount < cfg.MinQuestionCount {
		cfg.MaxQuestionCount = cfg.MinQuestionCount
	}

	return cfg, nil
}
