package entity

import (
	"errors"
	"fmt"
)

// ErrDetached is returned when a mutation is attempted on an entity that was
// restored from persistence but not yet rehydrated by its factory.
var ErrDetached = errors.New("entity is detached from its descriptor")

// ErrUnknownMethod is returned by Call for a method the descriptor does not
// declare.
var ErrUnknownMethod = errors.New("unknown entity method")

// GuardError is a mutation rejected by a guard rule. The error message is the
// guard's configured message, verbatim; callers decide how to surface it.
type GuardError struct {
	Property string
	Message  string
}

func (e *GuardError) Error() string {
	return e.Message
}

// ValidationError represents a single field-level failure: a value that does
// not match its declared kind, or a reference to an undeclared property.
type ValidationError struct {
	Property string
	Reason   string
	Value    any
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("property %q: %s", e.Property, e.Reason)
	}
	return fmt.Sprintf("property %q: %s (got %T)", e.Property, e.Reason, e.Value)
}

// AggregateError reports every problem found while compiling a descriptor.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d descriptor errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}
