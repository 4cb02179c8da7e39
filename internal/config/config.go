// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Port               string
	Version            string
	AllowedOrigins     []string
	MaxRequestBodySize int64
	Provider           ProviderConfig
	Store              StoreConfig
	Intent             IntentConfig
	RateLimit          RateLimitConfig
	ConversationLog    ConversationLogConfig
}

// ProviderConfig holds credentials and endpoints for riddle upstreams.
// An upstream without credentials is skipped.
type ProviderConfig struct {
	GeminiAPIKey        string
	GeminiModel         string
	OpenAICompatAPIKey  string
	OpenAICompatBaseURL string
	OpenAICompatModel   string
	RiddleAPIKey        string
	RiddleAPIURL        string
	Timeout             time.Duration
}

// StoreConfig selects and tunes the session store.
type StoreConfig struct {
	Backend       string
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration // 0 = sessions never expire
	MaxEntries    int           // memory backend only
	SweepInterval time.Duration
}

// IntentConfig controls utterance extraction and classification.
type IntentConfig struct {
	HintAliases     []string
	AnswerAliases   []string
	StrictNewRiddle bool
	MaxUtteranceLen int
}

// RateLimitConfig controls per-IP throttling of the agent route.
// RequestsPerWindow of 0 disables it.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Version:            getEnv("APP_VERSION", "1.2.0"),
		AllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_BYTES", 1<<20)),
		Provider: ProviderConfig{
			GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
			GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			OpenAICompatAPIKey:  getEnv("OPENAI_COMPAT_API_KEY", getEnv("HF_API_KEY", "")),
			OpenAICompatBaseURL: getEnv("OPENAI_COMPAT_BASE_URL", "https://router.huggingface.co/v1"),
			OpenAICompatModel:   getEnv("OPENAI_COMPAT_MODEL", "meta-llama/Llama-3.1-8B-Instruct"),
			RiddleAPIKey:        getEnv("RIDDLE_API_KEY", ""),
			RiddleAPIURL:        getEnv("RIDDLE_API_URL", "https://api.api-ninjas.com/v1/riddles"),
			Timeout:             getEnvDuration("PROVIDER_TIMEOUT", 20*time.Second),
		},
		Store: StoreConfig{
			Backend:       strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
			DBPath:        getEnv("DB_PATH", "./data/riddler.db"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
			MaxEntries:    getEnvInt("SESSION_MAX_ENTRIES", 10000),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		},
		Intent: IntentConfig{
			HintAliases:     getEnvList("HINT_ALIASES", []string{"h", "hint"}),
			AnswerAliases:   getEnvList("ANSWER_ALIASES", []string{"a", "answer"}),
			StrictNewRiddle: getEnvBool("STRICT_NEW_RIDDLE", false),
			MaxUtteranceLen: getEnvInt("MAX_UTTERANCE_LEN", 200),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getEnvInt("RATE_LIMIT_REQUESTS", 60),
			WindowDuration:    getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		ConversationLog: ConversationLogConfig{
			Enabled:       getEnvBool("CONVERSATION_LOG_ENABLED", false),
			Dir:           getEnv("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			GlobalEnabled: getEnvBool("CONVERSATION_LOG_GLOBAL_ENABLED", false),
			GlobalPath:    getEnv("CONVERSATION_LOG_GLOBAL_PATH", "./data/logs/conversations/all.ndjson"),
			QueueSize:     queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be > 0")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be > 0")
	}
	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR cannot be empty")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if c.Store.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL cannot be negative")
	}
	if c.Store.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be > 0")
	}
	if len(c.Intent.HintAliases) == 0 || len(c.Intent.AnswerAliases) == 0 {
		return fmt.Errorf("HINT_ALIASES and ANSWER_ALIASES cannot be empty")
	}
	for _, h := range c.Intent.HintAliases {
		for _, a := range c.Intent.AnswerAliases {
			if h == a {
				return fmt.Errorf("alias %q is both a hint and an answer alias", h)
			}
		}
	}
	if c.Intent.MaxUtteranceLen <= 0 {
		return fmt.Errorf("MAX_UTTERANCE_LEN must be > 0")
	}
	if c.RateLimit.RequestsPerWindow < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be >= 0")
	}
	if c.RateLimit.RequestsPerWindow > 0 && c.RateLimit.WindowDuration <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0 when rate limiting is enabled")
	}
	if c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ConversationLog.GlobalPath == "" {
		return fmt.Errorf("CONVERSATION_LOG_GLOBAL_PATH cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return fmt.Errorf("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

// getEnvList splits a comma-separated value, lowercasing and dropping empty items.
func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
