package provider

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ashureev/riddler/internal/config"
)

// FromConfig builds a chain from every upstream that has credentials, in the
// order Gemini, OpenAI-compatible, trivia API. Upstreams that fail to
// initialize are logged and skipped; an empty chain serves built-in riddles.
func FromConfig(ctx context.Context, cfg config.ProviderConfig, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}

	var upstreams []Upstream

	if cfg.GeminiAPIKey != "" {
		if g, err := NewGeminiUpstream(ctx, cfg.GeminiAPIKey, cfg.GeminiModel); err != nil {
			logger.Warn("Gemini upstream disabled", "error", err)
		} else {
			upstreams = append(upstreams, g)
		}
	}

	if cfg.OpenAICompatAPIKey != "" {
		if o, err := NewOpenAIUpstream(cfg.OpenAICompatAPIKey, cfg.OpenAICompatBaseURL, cfg.OpenAICompatModel); err != nil {
			logger.Warn("OpenAI-compatible upstream disabled", "error", err)
		} else {
			upstreams = append(upstreams, o)
		}
	}

	if cfg.RiddleAPIKey != "" {
		if t, err := NewTriviaUpstream(cfg.RiddleAPIURL, cfg.RiddleAPIKey, &http.Client{Timeout: cfg.Timeout}); err != nil {
			logger.Warn("Trivia upstream disabled", "error", err)
		} else {
			upstreams = append(upstreams, t)
		}
	}

	chain := NewChain(upstreams, cfg.Timeout, logger)
	if len(upstreams) == 0 {
		logger.Warn("No riddle upstreams configured, only built-in riddles will be served")
	} else {
		logger.Info("Riddle provider chain ready", "upstreams", chain.Upstreams(), "timeout", cfg.Timeout)
	}
	return chain
}
