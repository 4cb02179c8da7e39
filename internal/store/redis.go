package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/riddler/internal/domain"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "riddler:session:"

// RedisStore implements Store on Redis. Expiry is delegated to key TTLs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string        // Redis server address (host:port)
	Password string        // Redis password (optional)
	DB       int           // Redis database number
	TTL      time.Duration // session key TTL, 0 = no expiry
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	slog.Info("Connected to Redis session store", "addr", cfg.Addr, "db", cfg.DB)
	return newRedisWithClient(client, cfg.TTL), nil
}

func newRedisWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

// Get retrieves the riddle record for a session.
func (s *RedisStore) Get(ctx context.Context, key string) (*domain.RiddleRecord, error) {
	val, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var rec domain.RiddleRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &rec, nil
}

// Put stores the record with a single SET, so concurrent writers never interleave.
func (s *RedisStore) Put(ctx context.Context, key string, rec *domain.RiddleRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

const maxStateTxAttempts = 5

// SetState updates the reveal state inside a WATCH transaction, only while the
// stored record is still recordID.
func (s *RedisStore) SetState(ctx context.Context, key, recordID string, state domain.RevealState) (bool, error) {
	rk := redisKey(key)
	var updated bool
	txf := func(tx *redis.Tx) error {
		updated = false
		val, err := tx.Get(ctx, rk).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var rec domain.RiddleRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if rec.ID != recordID {
			return nil
		}
		rec.State = state
		rec.UpdatedAt = time.Now()
		data, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, data, s.ttl)
			return nil
		})
		if err == nil {
			updated = true
		}
		return err
	}

	for i := 0; i < maxStateTxAttempts; i++ {
		err := s.client.Watch(ctx, txf, rk)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return false, fmt.Errorf("redis set state: %w", err)
	}
	return false, fmt.Errorf("redis set state for %s: %w", key, redis.TxFailedErr)
}

// PurgeExpired is a no-op: Redis expires session keys on its own.
func (s *RedisStore) PurgeExpired(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

// Ping checks if Redis is available.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
