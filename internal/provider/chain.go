package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/riddler/internal/domain"
	"github.com/ashureev/riddler/internal/metrics"
)

// DefaultTimeout bounds a single upstream call.
const DefaultTimeout = 20 * time.Second

// Chain tries each upstream in order and serves a built-in riddle when all fail.
type Chain struct {
	upstreams []Upstream
	timeout   time.Duration
	logger    *slog.Logger
	fallback  func() domain.Riddle
}

// NewChain creates a chain. A non-positive timeout uses DefaultTimeout.
func NewChain(upstreams []Upstream, timeout time.Duration, logger *slog.Logger) *Chain {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		upstreams: upstreams,
		timeout:   timeout,
		logger:    logger,
		fallback:  Builtin,
	}
}

// Upstreams returns the names of the configured upstreams in order.
func (c *Chain) Upstreams() []string {
	names := make([]string, len(c.upstreams))
	for i, u := range c.upstreams {
		names[i] = u.Name()
	}
	return names
}

// Generate returns a riddle from the first upstream that produces a usable one.
func (c *Chain) Generate(ctx context.Context, topic string) domain.Riddle {
	for _, u := range c.upstreams {
		r, err := c.fetch(ctx, u, topic)
		if err == nil {
			return r
		}
		if ctx.Err() != nil {
			c.logger.Warn("Riddle generation canceled", "upstream", u.Name(), "error", ctx.Err())
			break
		}
		c.logger.Warn("Riddle upstream failed, trying next", "upstream", u.Name(), "topic", topic, "error", err)
	}

	metrics.ProviderFallbackTotal.Inc()
	c.logger.Warn("All riddle upstreams failed, serving built-in riddle", "upstreams", len(c.upstreams))
	return c.fallback()
}

// fetch calls one upstream under its own timeout, recovering panics so a
// misbehaving client cannot take the request down.
func (c *Chain) fetch(ctx context.Context, u Upstream, topic string) (r domain.Riddle, err error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("upstream panic: %v", rec)
		}
		metrics.ProviderLatency.WithLabelValues(u.Name()).Observe(time.Since(start).Seconds())
		metrics.ProviderCallsTotal.WithLabelValues(u.Name(), outcome(err)).Inc()
	}()

	r, err = u.Fetch(callCtx, topic)
	if err != nil {
		return domain.Riddle{}, err
	}
	return normalize(r, u.Name())
}

// normalize enforces the riddle contract: riddle and answer must be present, a
// missing hint is derived from the answer.
func normalize(r domain.Riddle, source string) (domain.Riddle, error) {
	if r.Riddle == "" || r.Answer == "" {
		return domain.Riddle{}, errEmptyRiddle
	}
	if r.Hint == "" {
		r.Hint = HintFromAnswer(r.Answer)
	}
	if r.Source == "" {
		r.Source = source
	}
	r.Fallback = false
	return r, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
