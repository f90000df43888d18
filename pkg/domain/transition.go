package domain

import (
	"sort"
	"strings"
)

// PayloadPrefix marks an assign expression that resolves against the event
// payload instead of being taken as a literal.
const PayloadPrefix = "payload."

// Transition defines a rule to move from one state to another when an event
// is received.
type Transition struct {
	// Target is the state the session moves to.
	Target string `json:"target" yaml:"target" mapstructure:"target"`

	// Assign maps context keys to value expressions resolved at transition
	// time. A string expression of the form "payload.<field>" takes the
	// field from the event payload; any other value is merged as a literal.
	Assign map[string]any `json:"assign,omitempty" yaml:"assign,omitempty" mapstructure:"assign"`
}

// StateDefinition declares the outgoing transitions of one state, keyed by
// event name.
type StateDefinition struct {
	On map[string]Transition `json:"on" yaml:"on" mapstructure:"on"`
}

// TableDefinition is the JSON-shaped document a TransitionTable is built from.
// It round-trips exactly through serialization.
type TableDefinition struct {
	InitialState string                     `json:"initialState" yaml:"initialState" mapstructure:"initialState"`
	States       map[string]StateDefinition `json:"states" yaml:"states" mapstructure:"states"`
}

// TransitionTable is an immutable value object describing the full event
// graph of one conversation template. A single table may back any number of
// concurrent sessions; lookups are side-effect free and safe for concurrent
// readers.
type TransitionTable struct {
	initialState string
	states       map[string]map[string]Transition
}

// NewTransitionTable builds a table from its definition. It fails with a
// DefinitionError if the initial state or any transition target is not a
// declared state.
func NewTransitionTable(def TableDefinition) (*TransitionTable, error) {
	if def.InitialState == "" {
		return nil, &DefinitionError{Ref: "initialState", Reason: "required"}
	}
	if len(def.States) == 0 {
		return nil, &DefinitionError{Ref: "states", Reason: "at least one state is required"}
	}
	if _, ok := def.States[def.InitialState]; !ok {
		return nil, &DefinitionError{Ref: def.InitialState, Reason: "initial state is not a declared state"}
	}

	states := make(map[string]map[string]Transition, len(def.States))
	for id, state := range def.States {
		on := make(map[string]Transition, len(state.On))
		for event, tr := range state.On {
			if tr.Target == "" {
				return nil, &DefinitionError{Ref: id + "/" + event, Reason: "transition target is required"}
			}
			if _, ok := def.States[tr.Target]; !ok {
				return nil, &DefinitionError{Ref: tr.Target, Reason: "transition target is not a declared state"}
			}
			on[event] = copyTransition(tr)
		}
		states[id] = on
	}

	return &TransitionTable{
		initialState: def.InitialState,
		states:       states,
	}, nil
}

// InitialState returns the state new sessions start in.
func (t *TransitionTable) InitialState() string {
	return t.initialState
}

// FindTransition looks up the transition for (stateID, event). The second
// return value reports whether a transition is defined; an unmatched pair is
// expected input, not an error.
func (t *TransitionTable) FindTransition(stateID, event string) (Transition, bool) {
	on, ok := t.states[stateID]
	if !ok {
		return Transition{}, false
	}
	tr, ok := on[event]
	return tr, ok
}

// StateIDs returns all declared state ids in deterministic order.
func (t *TransitionTable) StateIDs() []string {
	ids := make([]string, 0, len(t.states))
	for id := range t.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReachableStates returns every state reachable from the initial state via
// zero or more transitions, in deterministic order.
func (t *TransitionTable) ReachableStates() []string {
	visited := map[string]bool{t.initialState: true}
	queue := []string{t.initialState}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, tr := range t.states[current] {
			if !visited[tr.Target] {
				visited[tr.Target] = true
				queue = append(queue, tr.Target)
			}
		}
	}

	ids := make([]string, 0, len(visited))
	for id := range visited {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Definition reconstructs the JSON-shaped document for this table.
func (t *TransitionTable) Definition() TableDefinition {
	states := make(map[string]StateDefinition, len(t.states))
	for id, on := range t.states {
		def := StateDefinition{On: make(map[string]Transition, len(on))}
		for event, tr := range on {
			def.On[event] = copyTransition(tr)
		}
		states[id] = def
	}
	return TableDefinition{InitialState: t.initialState, States: states}
}

// ResolveAssign evaluates a single assign expression against an event payload.
func ResolveAssign(expr any, payload map[string]any) any {
	if s, ok := expr.(string); ok && strings.HasPrefix(s, PayloadPrefix) {
		return payload[strings.TrimPrefix(s, PayloadPrefix)]
	}
	return expr
}

func copyTransition(tr Transition) Transition {
	out := Transition{Target: tr.Target}
	if tr.Assign != nil {
		out.Assign = make(map[string]any, len(tr.Assign))
		for k, v := range tr.Assign {
			out.Assign[k] = v
		}
	}
	return out
}
