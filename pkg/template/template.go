package template

import (
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/entity"
)

// Template is the immutable pair of a TransitionTable and a ViewMap, plus an
// optional entity factory for sessions that carry guarded business data.
type Template struct {
	id      string
	table   *domain.TransitionTable
	views   *domain.ViewMap
	factory *entity.Factory
}

// New binds a table and a view map into a template. It enforces the coverage
// invariant: every state reachable from the initial state must have a view
// node. All missing states are reported together.
func New(id string, table *domain.TransitionTable, views *domain.ViewMap, factory *entity.Factory) (*Template, error) {
	if id == "" {
		return nil, &domain.DefinitionError{Ref: "id", Reason: "required"}
	}
	if table == nil {
		return nil, &domain.DefinitionError{Ref: id, Reason: "transition table is required"}
	}
	if views == nil {
		return nil, &domain.DefinitionError{Ref: id, Reason: "view map is required"}
	}

	var errs []error
	for _, stateID := range table.ReachableStates() {
		if views.Node(stateID) == nil {
			errs = append(errs, &domain.DefinitionError{Ref: stateID, Reason: "reachable state has no view node"})
		}
	}
	if len(errs) > 0 {
		return nil, &domain.AggregateError{Errors: errs}
	}

	return &Template{id: id, table: table, views: views, factory: factory}, nil
}

// ID returns the template identifier.
func (t *Template) ID() string {
	return t.id
}

// Table returns the transition table.
func (t *Template) Table() *domain.TransitionTable {
	return t.table
}

// Views returns the view map.
func (t *Template) Views() *domain.ViewMap {
	return t.views
}

// Factory returns the entity factory, or nil when the template declares no
// embedded entity.
func (t *Template) Factory() *entity.Factory {
	return t.factory
}

// NewEntity materializes a fresh entity instance for a new session, or nil
// when the template declares none.
func (t *Template) NewEntity(initial map[string]any) (*entity.Entity, error) {
	if t.factory == nil {
		return nil, nil
	}
	return t.factory.New(initial)
}

// Rehydrate re-attaches the template's entity rules to a session restored
// from persistence. It is a no-op for templates without an entity or sessions
// without one attached.
func (t *Template) Rehydrate(conv *domain.Conversation) error {
	if t.factory == nil || conv == nil || conv.Entity == nil {
		return nil
	}
	if !conv.Entity.Detached() {
		return nil
	}
	return t.factory.Rehydrate(conv.Entity)
}
