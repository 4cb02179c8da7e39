package store

import (
	"context"
	"log/slog"
	"time"
)

// PurgeCallback is called after a sweep removed at least one session.
type PurgeCallback func(removed int64)

// StartSweeper runs a background goroutine that periodically purges sessions
// idle for longer than ttl. It stops when ctx is canceled and the returned
// channel is closed once the goroutine has exited.
func StartSweeper(ctx context.Context, s Store, interval, ttl time.Duration, onPurge PurgeCallback) <-chan struct{} {
	done := make(chan struct{})
	if ttl <= 0 {
		slog.Info("Session sweeper disabled", "reason", "no session TTL")
		close(done)
		return done
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweep(ctx, s, ttl, onPurge)
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
	return done
}

func sweep(ctx context.Context, s Store, ttl time.Duration, onPurge PurgeCallback) {
	removed, err := s.PurgeExpired(ctx, ttl)
	if err != nil {
		if ctx.Err() != nil {
			slog.Debug("Session sweep canceled", "error", err)
			return
		}
		slog.Error("Session sweeper failed to purge expired sessions", "error", err)
		return
	}
	if removed == 0 {
		return
	}

	slog.Info("Session sweeper purged expired sessions", "count", removed)
	if onPurge != nil {
		onPurge(removed)
	}
}
