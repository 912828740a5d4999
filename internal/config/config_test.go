package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CompletionMode != "auto" {
		t.Fatalf("CompletionMode = %q, want %q", cfg.CompletionMode, "auto")
	}
	if cfg.FanoutPolicy != FanoutAll {
		t.Fatalf("FanoutPolicy = %q, want %q", cfg.FanoutPolicy, FanoutAll)
	}
	if cfg.SpecialistTimeout > cfg.TurnTimeout {
		t.Fatalf("SpecialistTimeout %v exceeds TurnTimeout %v", cfg.SpecialistTimeout, cfg.TurnTimeout)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9191")
	t.Setenv("FANOUT_POLICY", "partial")
	t.Setenv("SPECIALIST_TIMEOUT", "5s")
	t.Setenv("TURN_TIMEOUT", "20s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9191" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9191")
	}
	if cfg.FanoutPolicy != FanoutPartial {
		t.Fatalf("FanoutPolicy = %q, want %q", cfg.FanoutPolicy, FanoutPartial)
	}
	if cfg.SpecialistTimeout != 5*time.Second {
		t.Fatalf("SpecialistTimeout = %v, want 5s", cfg.SpecialistTimeout)
	}
}

func TestLoadRejectsInvalidPolicy(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("FANOUT_POLICY", "quorum")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error for invalid FANOUT_POLICY")
	}
}

func TestLoadRejectsSpecialistTimeoutAboveTurnTimeout(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("TURN_TIMEOUT", "10s")
	t.Setenv("SPECIALIST_TIMEOUT", "30s")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error when SPECIALIST_TIMEOUT > TURN_TIMEOUT")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"COMPLETION_MODE",
		"OPENAI_API_KEY",
		"OPENAI_MODEL",
		"OPENAI_BASE_URL",
		"DATABASE_URL",
		"TURN_TIMEOUT",
		"SPECIALIST_TIMEOUT",
		"FANOUT_POLICY",
		"TOOL_MIN_INTERVAL",
		"TOOL_RETRY_MAX",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
