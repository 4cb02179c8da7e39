package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/riddler/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // serializes writers to avoid SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed store.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS riddle_sessions (
		session_key TEXT PRIMARY KEY,
		record_id TEXT NOT NULL,
		riddle TEXT NOT NULL,
		hint TEXT NOT NULL,
		answer TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		fallback INTEGER NOT NULL DEFAULT 0,
		state TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_riddle_sessions_updated ON riddle_sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Get retrieves the riddle record for a session.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*domain.RiddleRecord, error) {
	query := `
		SELECT record_id, riddle, hint, answer, source, fallback, state, created_at, updated_at
		FROM riddle_sessions WHERE session_key = ?`

	var rec domain.RiddleRecord
	var state string
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&rec.ID, &rec.Riddle, &rec.Hint, &rec.Answer, &rec.Source, &rec.Fallback,
		&state, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan riddle session: %w", err)
	}

	rec.State = domain.RevealState(state)
	rec.CreatedAt = time.UnixMilli(createdAt)
	rec.UpdatedAt = time.UnixMilli(updatedAt)
	return &rec, nil
}

// Put creates or replaces the riddle record for a session.
func (s *SQLiteStore) Put(ctx context.Context, key string, rec *domain.RiddleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
	INSERT INTO riddle_sessions (session_key, record_id, riddle, hint, answer, source, fallback, state, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_key) DO UPDATE SET
		record_id = excluded.record_id,
		riddle = excluded.riddle,
		hint = excluded.hint,
		answer = excluded.answer,
		source = excluded.source,
		fallback = excluded.fallback,
		state = excluded.state,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at`

	return withRetry(ctx, "put riddle session", key, func() error {
		_, err := s.db.ExecContext(ctx, query,
			key, rec.ID, rec.Riddle, rec.Hint, rec.Answer, rec.Source, rec.Fallback,
			string(rec.State), rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli(),
		)
		return err
	})
}

// SetState updates the reveal state of the session's record if it is still recordID.
func (s *SQLiteStore) SetState(ctx context.Context, key, recordID string, state domain.RevealState) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `UPDATE riddle_sessions SET state = ?, updated_at = ? WHERE session_key = ? AND record_id = ?`
	var updated int64
	err := withRetry(ctx, "set riddle state", key, func() error {
		result, err := s.db.ExecContext(ctx, query, string(state), time.Now().UnixMilli(), key, recordID)
		if err != nil {
			return err
		}
		updated, err = result.RowsAffected()
		return err
	})
	return updated > 0, err
}

// PurgeExpired removes sessions not updated within ttl.
func (s *SQLiteStore) PurgeExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	threshold := time.Now().Add(-ttl).UnixMilli()
	var deleted int64
	err := withRetry(ctx, "purge riddle sessions", "*", func() error {
		result, err := s.db.ExecContext(ctx, `DELETE FROM riddle_sessions WHERE updated_at < ?`, threshold)
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	return deleted, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
