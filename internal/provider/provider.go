// Package provider produces riddle content. Upstreams (LLMs, a trivia API)
// may fail; the Chain hides those failures behind a contract that always
// yields a usable riddle.
package provider

import (
	"context"
	"errors"

	"github.com/ashureev/riddler/internal/domain"
)

var (
	errEmptyRiddle  = errors.New("upstream returned an empty riddle")
	errNoCandidates = errors.New("model returned no candidates")
)

// Provider generates a riddle, optionally on a topic. Implementations never fail:
// on error they return a built-in riddle with Fallback set.
type Provider interface {
	Generate(ctx context.Context, topic string) domain.Riddle
}

// Upstream is one concrete source of riddles.
type Upstream interface {
	// Name identifies the upstream in logs and metrics.
	Name() string
	// Fetch returns a riddle or an error. The riddle text is never empty on success.
	Fetch(ctx context.Context, topic string) (domain.Riddle, error)
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(ctx context.Context, topic string) domain.Riddle

// Generate calls f.
func (f ProviderFunc) Generate(ctx context.Context, topic string) domain.Riddle {
	return f(ctx, topic)
}
