// Package store provides session persistence interfaces and implementations.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ashureev/riddler/internal/config"
	"github.com/ashureev/riddler/internal/domain"
)

// Store holds at most one riddle record per session key.
// Each method is atomic with respect to the others on the same key.
type Store interface {
	// Get returns the record for key, or nil if there is none.
	Get(ctx context.Context, key string) (*domain.RiddleRecord, error)

	// Put stores rec for key, replacing any existing record.
	Put(ctx context.Context, key string, rec *domain.RiddleRecord) error

	// SetState updates only the reveal state of the record identified by
	// recordID. It reports false, and changes nothing, when key has no record
	// or its record has since been replaced.
	SetState(ctx context.Context, key, recordID string, state domain.RevealState) (bool, error)

	// PurgeExpired removes records not updated within ttl and returns how many were removed.
	PurgeExpired(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// New opens the backend selected by cfg.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return NewMemory(cfg.SessionTTL, cfg.MaxEntries), nil
	case config.BackendSQLite:
		s, err := NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendRedis:
		s, err := NewRedis(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.SessionTTL,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
