// Package redis provides a Redis-backed SessionStore and DistributedLocker
// for multi-replica deployments.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/parley/pkg/domain"
)

// Store implements ports.SessionStore using Redis. Sessions are stored as
// JSON blobs; a ZSET index supports listing and an owner key resolves the
// single active session per owner.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiration for session keys.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "parley:",
		ttl:    0, // No expiration by default
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying connection so callers can share it, for
// example with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) sessionKey(id string) string {
	return s.prefix + "session:" + id
}

func (s *Store) ownerKey(owner string) string {
	return s.prefix + "owner:" + owner
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the session and maintains both indexes in one pipeline.
// Terminal sessions are kept as audit records but are dropped from the
// active-owner index.
func (s *Store) Save(ctx context.Context, conv *domain.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := s.client.Pipeline()

	pipe.Set(ctx, s.sessionKey(conv.ID), data, s.ttl)

	// Index score = expiry time; effectively-infinite for no TTL, so lazy
	// cleanup in List removes nothing.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: conv.ID})

	if conv.Status == domain.StatusActive {
		pipe.Set(ctx, s.ownerKey(conv.OwnerKey), conv.ID, s.ttl)
	} else {
		pipe.Del(ctx, s.ownerKey(conv.OwnerKey))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// FindByID retrieves a session regardless of status.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	val, err := s.client.Get(ctx, s.sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var conv domain.Conversation
	if err := json.Unmarshal([]byte(val), &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &conv, nil
}

// FindActiveByOwner resolves the owner index and loads the session. A stale
// index entry pointing at a terminal session is treated as not found.
func (s *Store) FindActiveByOwner(ctx context.Context, owner string) (*domain.Conversation, error) {
	id, err := s.client.Get(ctx, s.ownerKey(owner)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to resolve owner index: %w", err)
	}

	conv, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.Status != domain.StatusActive {
		return nil, domain.ErrSessionNotFound
	}
	return conv, nil
}

// List returns stored session ids using the ZSET index with lazy cleanup of
// expired entries.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
