package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %q", cfg.Port)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("Expected memory backend, got %q", cfg.Store.Backend)
	}
	if got := cfg.Intent.HintAliases; len(got) != 2 || got[0] != "h" || got[1] != "hint" {
		t.Errorf("Unexpected hint aliases: %v", got)
	}
	if cfg.Provider.Timeout != 20*time.Second {
		t.Errorf("Expected 20s provider timeout, got %v", cfg.Provider.Timeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HINT_ALIASES", " H, give hint ,,")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("STORE_BACKEND", "SQLite")
	t.Setenv("HF_API_KEY", "hf-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cfg.Intent.HintAliases; len(got) != 2 || got[0] != "h" || got[1] != "give hint" {
		t.Errorf("Unexpected hint aliases: %v", got)
	}
	if cfg.Store.SessionTTL != 90*time.Minute {
		t.Errorf("Expected 90m TTL, got %v", cfg.Store.SessionTTL)
	}
	if cfg.Store.Backend != BackendSQLite {
		t.Errorf("Expected sqlite backend, got %q", cfg.Store.Backend)
	}
	if cfg.Provider.OpenAICompatAPIKey != "hf-key" {
		t.Errorf("Expected HF_API_KEY fallback, got %q", cfg.Provider.OpenAICompatAPIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"STORE_BACKEND": "mongo"}},
		{"overlapping aliases", map[string]string{"HINT_ALIASES": "h,x", "ANSWER_ALIASES": "x"}},
		{"zero timeout", map[string]string{"PROVIDER_TIMEOUT": "0s"}},
		{"empty port", map[string]string{"PORT": ""}},
		{"negative rate limit", map[string]string{"RATE_LIMIT_REQUESTS": "-1"}},
		{"zero rate window", map[string]string{"RATE_LIMIT_WINDOW": "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("Expected validation error")
			}
		})
	}
}

func TestZeroRateLimitDisablesThrottling(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "0")
	t.Setenv("RATE_LIMIT_WINDOW", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected RATE_LIMIT_REQUESTS=0 to be accepted, got %v", err)
	}
	if cfg.RateLimit.RequestsPerWindow != 0 {
		t.Errorf("Expected rate limit 0, got %d", cfg.RateLimit.RequestsPerWindow)
	}
}
