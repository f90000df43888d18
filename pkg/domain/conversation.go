package domain

import (
	"time"

	"github.com/aretw0/parley/pkg/entity"
)

// Status describes the lifecycle stage of a conversation.
type Status string

const (
	StatusActive    Status = "active"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

// HistoryEntry records one applied transition. History is append-only.
type HistoryEntry struct {
	Event     string    `json:"event"`
	FromState string    `json:"fromState"`
	ToState   string    `json:"toState"`
	Timestamp time.Time `json:"timestamp"`
}

// TransitionResult is the inspectable outcome of ProcessInput. An unmatched
// event yields Applied == false with no further detail: the engine treats
// out-of-script input as expected, and leaves any user-facing fallback to the
// orchestration layer or adapters.
type TransitionResult struct {
	Applied   bool   `json:"applied"`
	Event     string `json:"event"`
	FromState string `json:"fromState"`
	ToState   string `json:"toState"`
}

// Conversation is the stateful session aggregate: one live instance of a
// template bound to one external actor. It holds no reference to the template
// objects themselves, so template edits never retroactively invalidate
// in-flight sessions; the orchestration layer re-resolves the template on
// every operation.
type Conversation struct {
	ID         string `json:"id"`
	OwnerKey   string `json:"ownerKey"`
	ChannelKey string `json:"channelKey,omitempty"`
	TemplateID string `json:"templateId"`
	Status     Status `json:"status"`

	CurrentStateID string         `json:"currentStateId"`
	Context        map[string]any `json:"context"`
	History        []HistoryEntry `json:"history"`

	// Entity optionally holds evolving, guarded business data (e.g. a
	// qualification form) alongside the flat context map.
	Entity *entity.Entity `json:"entity,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewConversation creates an active session at the given initial state with
// empty context and history. It does not verify that initialStateID belongs
// to any particular TransitionTable; that consistency check is the template
// binding layer's responsibility.
func NewConversation(id, ownerKey, templateID, initialStateID string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:             id,
		OwnerKey:       ownerKey,
		TemplateID:     templateID,
		Status:         StatusActive,
		CurrentStateID: initialStateID,
		Context:        make(map[string]any),
		History:        make([]HistoryEntry, 0),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AttachEntity embeds a runtime entity instance into the session. Assigned
// keys matching one of its properties are written through the guarded path
// instead of the context map.
func (c *Conversation) AttachEntity(e *entity.Entity) {
	c.Entity = e
}

// ProcessInput attempts a transition for the given event. On a match the
// state change, context merge, and history append happen as one atomic
// in-memory step; an unmatched event mutates nothing and is reported through
// the result rather than an error. A guard rejection from the embedded entity
// aborts the whole transition before any write.
func (c *Conversation) ProcessInput(table *TransitionTable, event string, payload map[string]any) (TransitionResult, error) {
	if c.Status != StatusActive {
		return TransitionResult{}, ErrConversationInactive
	}

	tr, ok := table.FindTransition(c.CurrentStateID, event)
	if !ok {
		return TransitionResult{
			Applied:   false,
			Event:     event,
			FromState: c.CurrentStateID,
			ToState:   c.CurrentStateID,
		}, nil
	}

	resolved := make(map[string]any, len(tr.Assign))
	for key, expr := range tr.Assign {
		resolved[key] = ResolveAssign(expr, payload)
	}

	// Guards evaluate against pre-write values only, so checking every
	// entity-bound key before the first write keeps the transition atomic.
	for key, value := range resolved {
		if c.Entity != nil && c.Entity.Has(key) {
			if err := c.Entity.CheckSet(key, value); err != nil {
				return TransitionResult{}, err
			}
		}
	}

	from := c.CurrentStateID
	c.CurrentStateID = tr.Target
	for key, value := range resolved {
		if c.Entity != nil && c.Entity.Has(key) {
			if err := c.Entity.Set(key, value); err != nil {
				// Unreachable after CheckSet; surface rather than swallow.
				return TransitionResult{}, err
			}
			continue
		}
		c.Context[key] = value
	}

	now := time.Now().UTC()
	c.History = append(c.History, HistoryEntry{
		Event:     event,
		FromState: from,
		ToState:   c.CurrentStateID,
		Timestamp: now,
	})
	c.UpdatedAt = now

	return TransitionResult{
		Applied:   true,
		Event:     event,
		FromState: from,
		ToState:   c.CurrentStateID,
	}, nil
}

// Finish marks the session as successfully completed. Terminal status is
// sticky: a second call fails with ErrConversationInactive and changes
// nothing.
func (c *Conversation) Finish() error {
	return c.terminate(StatusFinished)
}

// Cancel marks the session as abandoned. Same stickiness as Finish.
func (c *Conversation) Cancel() error {
	return c.terminate(StatusCancelled)
}

func (c *Conversation) terminate(status Status) error {
	if c.Status != StatusActive {
		return ErrConversationInactive
	}
	if len(c.History) == 0 {
		return ErrEmptyHistory
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Active reports whether the session still accepts input.
func (c *Conversation) Active() bool {
	return c.Status == StatusActive
}

// Validate checks the aggregate's own invariants. Stores and tests may use it
// as a defensive assertion; the aggregate keeps them by construction.
func (c *Conversation) Validate() error {
	if c.ID == "" {
		return &DefinitionError{Ref: "id", Reason: "required"}
	}
	if c.Status != StatusActive && len(c.History) == 0 {
		return ErrEmptyHistory
	}
	for i := 1; i < len(c.History); i++ {
		if c.History[i].Timestamp.Before(c.History[i-1].Timestamp) {
			return &DefinitionError{Ref: c.ID, Reason: "history timestamps must be non-decreasing"}
		}
	}
	return nil
}
