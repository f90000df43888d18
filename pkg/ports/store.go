package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// SessionStore defines the interface for persisting conversation sessions.
// Terminal sessions are retained as audit records; only FindActiveByOwner is
// restricted to active ones.
type SessionStore interface {
	// Save persists the session, replacing any previous snapshot.
	Save(ctx context.Context, conv *domain.Conversation) error

	// FindByID retrieves a session regardless of status.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	FindByID(ctx context.Context, id string) (*domain.Conversation, error)

	// FindActiveByOwner retrieves the single active session for an owner key.
	// Returns domain.ErrSessionNotFound when the owner has no active session.
	FindActiveByOwner(ctx context.Context, ownerKey string) (*domain.Conversation, error)

	// List returns the ids of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
