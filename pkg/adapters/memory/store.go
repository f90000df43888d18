// Package memory provides an in-memory SessionStore, suitable for tests and
// single-process deployments.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Store implements ports.SessionStore in memory. Safe for concurrent use.
// Sessions round-trip through JSON on save and load so callers observe the
// same isolation (and entity detachment) as a real persistence backend.
type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	active map[string]string // ownerKey -> active session id
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data:   make(map[string][]byte),
		active: make(map[string]string),
	}
}

// Save persists the session snapshot and maintains the active-owner index.
func (s *Store) Save(ctx context.Context, conv *domain.Conversation) error {
	raw, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[conv.ID] = raw
	if conv.Status == domain.StatusActive {
		s.active[conv.OwnerKey] = conv.ID
	} else if s.active[conv.OwnerKey] == conv.ID {
		delete(s.active, conv.OwnerKey)
	}
	return nil
}

// FindByID retrieves a session regardless of status.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	s.mu.RLock()
	raw, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return unmarshalConversation(raw)
}

// FindActiveByOwner retrieves the owner's single active session.
func (s *Store) FindActiveByOwner(ctx context.Context, ownerKey string) (*domain.Conversation, error) {
	s.mu.RLock()
	id, ok := s.active[ownerKey]
	var raw []byte
	if ok {
		raw = s.data[id]
	}
	s.mu.RUnlock()
	if !ok || raw == nil {
		return nil, domain.ErrSessionNotFound
	}
	return unmarshalConversation(raw)
}

// List returns all stored session ids in deterministic order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func unmarshalConversation(raw []byte) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &conv, nil
}
