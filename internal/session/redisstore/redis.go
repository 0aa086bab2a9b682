// Package redisstore provides a Redis-backed session.Store.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quickfuel-admin/internal/session"
	"quickfuel-admin/pkg/config"
)

// DefaultKeyPrefix is used when Config.KeyPrefix is empty.
const DefaultKeyPrefix = "quickfuel:session:"

// Config contains configuration options for the Redis store
type Config struct {
	// Client is the Redis client instance
	Client *redis.Client

	// KeyPrefix is the prefix for all Redis keys
	KeyPrefix string
}

// Store implements session.Store using Redis keys with a TTL.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

// New creates a new Redis-based store.
func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	return &Store{
		client:    cfg.Client,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// NewClient builds a Redis client from the redis section of the configuration.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

// Get implements session.Store.
func (s *Store) Get(ctx context.Context, id string) (*session.Record, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}

	var record session.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if record.Expired(time.Now()) {
		return nil, nil
	}
	return &record, nil
}

// Save implements session.Store. The key expires with the record.
func (s *Store) Save(ctx context.Context, record *session.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	var ttl time.Duration
	if !record.ExpiresAt.IsZero() {
		ttl = time.Until(record.ExpiresAt)
		if ttl <= 0 {
			// Already expired; make sure no stale copy remains.
			return s.Delete(ctx, record.ID)
		}
	}

	if err := s.client.Set(ctx, s.key(record.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session %s: %w", record.ID, err)
	}
	return nil
}

// Delete implements session.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// Ping checks the connection to Redis.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(id string) string {
	return s.keyPrefix + id
}
