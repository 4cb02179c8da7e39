// Package session implements the per-conversation riddle state machine.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/riddler/internal/domain"
	"github.com/ashureev/riddler/internal/intent"
	"github.com/ashureev/riddler/internal/provider"
	"github.com/ashureev/riddler/internal/store"
)

// Reply is the controller's decision for one request.
type Reply struct {
	Text   string
	Record domain.RiddleRecord
}

// Controller moves a session through Asked -> HintShown -> Answered.
// It holds no state of its own; records live in the store and the store is
// never locked across a provider call.
type Controller struct {
	store    store.Store
	provider provider.Provider
	logger   *slog.Logger
	now      func() time.Time
}

// NewController creates a controller.
func NewController(s store.Store, p provider.Provider, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:    s,
		provider: p,
		logger:   logger,
		now:      time.Now,
	}
}

// Handle applies one intent to the session identified by key.
func (c *Controller) Handle(ctx context.Context, key string, in intent.Intent) (Reply, error) {
	switch in.Kind {
	case intent.NewRiddle:
		return c.newRiddle(ctx, key, in.Topic)
	case intent.Hint, intent.Answer:
		return c.reveal(ctx, key, in.Kind)
	default:
		return c.fallback(ctx, key)
	}
}

func (c *Controller) newRiddle(ctx context.Context, key, topic string) (Reply, error) {
	rec, err := c.generate(ctx, key, topic)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: riddleText(rec), Record: *rec}, nil
}

// fallback re-serves the current riddle, or starts one if the session is empty.
func (c *Controller) fallback(ctx context.Context, key string) (Reply, error) {
	rec, err := c.store.Get(ctx, key)
	if err != nil {
		return Reply{}, fmt.Errorf("load session: %w", err)
	}
	if rec == nil {
		return c.newRiddle(ctx, key, "")
	}
	return Reply{Text: riddleText(rec), Record: *rec}, nil
}

// generate asks the provider for a riddle and replaces the session's record.
func (c *Controller) generate(ctx context.Context, key, topic string) (*domain.RiddleRecord, error) {
	r := c.provider.Generate(ctx, topic)
	rec := domain.NewRiddleRecord(r, c.now())
	if err := c.store.Put(ctx, key, rec); err != nil {
		return nil, fmt.Errorf("store riddle: %w", err)
	}

	c.logger.Info("New riddle stored",
		"session_key", key,
		"topic", topic,
		"source", rec.Source,
		"fallback", rec.Fallback,
	)
	return rec, nil
}

// maxRevealAttempts bounds how often a reveal is retried when the session's
// record is replaced between reading it and updating its state.
const maxRevealAttempts = 3

// reveal shows the hint or answer of the current record and advances its
// state. The state change only applies to the record the reply was built
// from; if a new riddle landed in between, the reveal starts over on it.
func (c *Controller) reveal(ctx context.Context, key string, kind intent.Kind) (Reply, error) {
	for attempt := 1; ; attempt++ {
		rec, err := c.store.Get(ctx, key)
		if err != nil {
			return Reply{}, fmt.Errorf("load session: %w", err)
		}
		if rec == nil {
			// Nothing to reveal yet: create the riddle this hint or answer refers to.
			if rec, err = c.generate(ctx, key, ""); err != nil {
				return Reply{}, err
			}
		}

		next, text := domain.StateAnswered, answerText(rec)
		if kind == intent.Hint {
			next, text = nextHintState(rec.State), hintText(rec)
		}
		if next == rec.State {
			return Reply{Text: text, Record: *rec}, nil
		}

		updated, err := c.store.SetState(ctx, key, rec.ID, next)
		if err != nil {
			return Reply{}, fmt.Errorf("update session state: %w", err)
		}
		if updated {
			rec.State = next
			return Reply{Text: text, Record: *rec}, nil
		}
		if attempt == maxRevealAttempts {
			return Reply{}, fmt.Errorf("update session state: record for %s kept changing", key)
		}
		c.logger.Debug("Session record replaced during reveal, retrying", "session_key", key, "attempt", attempt)
	}
}

// nextHintState never moves an answered riddle back.
func nextHintState(current domain.RevealState) domain.RevealState {
	if current == domain.StateAnswered {
		return domain.StateAnswered
	}
	return domain.StateHintShown
}

const builtinNotice = "(My riddle generator is taking a break, so here's one from my own collection.)\n\n"

func riddleText(rec *domain.RiddleRecord) string {
	text := fmt.Sprintf("🧩 Riddle:\n%s\n\nReply H for hint or A for answer.", rec.Riddle)
	if rec.Fallback {
		text = builtinNotice + text
	}
	return text
}

func hintText(rec *domain.RiddleRecord) string {
	return fmt.Sprintf("💡 Hint: %s\n\nReply A to see the answer.", rec.Hint)
}

func answerText(rec *domain.RiddleRecord) string {
	return fmt.Sprintf("✅ Answer: %s\n\nReply anything to get a new riddle!", rec.Answer)
}
