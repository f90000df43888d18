package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrTemplateNotFound is returned when a template ID cannot be resolved.
var ErrTemplateNotFound = errors.New("template not found")

// ErrConversationInactive is returned when a mutation is attempted on a
// conversation whose status is no longer active. Terminal status is sticky.
var ErrConversationInactive = errors.New("conversation is not active")

// ErrEmptyHistory is returned when a conversation that never transitioned is
// asked to terminate.
var ErrEmptyHistory = errors.New("conversation without transitions cannot be terminated")

// DefinitionError represents a single structural problem in a template
// definition (transition table, view map, or the pairing of both).
// Construction fails fast: no malformed value object is ever produced.
type DefinitionError struct {
	Ref    string // The offending identifier (state id, event, ...)
	Reason string // Human-readable reason for failure
}

func (e *DefinitionError) Error() string {
	if e.Ref == "" {
		return e.Reason
	}
	return fmt.Sprintf("%q: %s", e.Ref, e.Reason)
}

// AggregateError represents multiple definition failures reported together.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d definition errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// DefinitionErrors returns all wrapped errors if err is an AggregateError.
// Otherwise returns nil.
func DefinitionErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
