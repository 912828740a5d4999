package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FanoutPolicy values name the join semantics for the waterShortage
// specialist fan-out: abort the turn on the first failure, or synthesize
// from whatever succeeded.
const (
	FanoutAll     = "all"
	FanoutPartial = "partial"
)

// Config contains all runtime settings for the water-agents service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	CompletionMode string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string

	DatabaseURL string

	TurnTimeout       time.Duration
	SpecialistTimeout time.Duration
	FanoutPolicy      string

	ToolMinInterval time.Duration
	ToolRetryMax    int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "water_agents"),
		AllowAnyOrigin:   false,
		CompletionMode:   envOrDefault("COMPLETION_MODE", "auto"),
		OpenAIAPIKey:     envTrimmed("OPENAI_API_KEY"),
		OpenAIModel:      envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    envTrimmed("OPENAI_BASE_URL"),
		DatabaseURL:      envTrimmed("DATABASE_URL"),
		FanoutPolicy:     envOrDefault("FANOUT_POLICY", FanoutAll),

		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 10 * time.Minute,
		TurnTimeout:              45 * time.Second,
		SpecialistTimeout:        15 * time.Second,
		ToolMinInterval:          500 * time.Millisecond,
		ToolRetryMax:             2,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TurnTimeout, err = durationFromEnv("TURN_TIMEOUT", cfg.TurnTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SpecialistTimeout, err = durationFromEnv("SPECIALIST_TIMEOUT", cfg.SpecialistTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ToolMinInterval, err = durationFromEnv("TOOL_MIN_INTERVAL", cfg.ToolMinInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.ToolRetryMax, err = intFromEnv("TOOL_RETRY_MAX", cfg.ToolRetryMax)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.TurnTimeout <= 0 {
		return Config{}, fmt.Errorf("TURN_TIMEOUT must be positive")
	}
	if cfg.SpecialistTimeout <= 0 || cfg.SpecialistTimeout > cfg.TurnTimeout {
		return Config{}, fmt.Errorf("SPECIALIST_TIMEOUT must be positive and no longer than TURN_TIMEOUT")
	}
	if cfg.ToolRetryMax < 0 {
		return Config{}, fmt.Errorf("TOOL_RETRY_MAX must be >= 0")
	}
	switch cfg.FanoutPolicy {
	case FanoutAll, FanoutPartial:
	default:
		return Config{}, fmt.Errorf("FANOUT_POLICY must be %q or %q", FanoutAll, FanoutPartial)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
