package entity

import (
	"encoding/json"
	"sort"
)

// Entity is one materialized property bag. It lives inside a single session
// and is mutated in place through the session's lifetime; it is not safe for
// concurrent writers (sessions are serialized per owner upstream).
type Entity struct {
	name    string
	values  map[string]any
	props   map[string]Property // nil when detached (restored, not rehydrated)
	guards  map[string][]Guard
	methods map[string]Method
}

// Name returns the descriptor name this entity was created from.
func (e *Entity) Name() string {
	return e.name
}

// Has reports whether the entity declares a property with this name.
func (e *Entity) Has(name string) bool {
	_, ok := e.values[name]
	return ok
}

// Get returns a property's current value. The second return value is false
// for undeclared properties.
func (e *Entity) Get(name string) (any, bool) {
	v, ok := e.values[name]
	return v, ok
}

// CheckSet verifies that writing value to the named property would be
// accepted, without mutating anything. Guards are evaluated in declared order
// against the current (pre-write) value; the first violated guard wins.
func (e *Entity) CheckSet(name string, value any) error {
	if e.props == nil {
		return ErrDetached
	}
	prop, ok := e.props[name]
	if !ok {
		return &ValidationError{Property: name, Reason: "not declared"}
	}
	current := e.values[name]
	for _, g := range e.guards[name] {
		holds, err := g.Condition.Holds(current)
		if err != nil || !holds {
			return &GuardError{Property: name, Message: g.Message}
		}
	}
	if err := prop.Kind.Validate(value); err != nil {
		return &ValidationError{Property: name, Reason: err.Error(), Value: value}
	}
	return nil
}

// Set writes a property value. On any failure the property keeps its
// pre-write value; there is no partial state change.
func (e *Entity) Set(name string, value any) error {
	if err := e.CheckSet(name, value); err != nil {
		return err
	}
	e.values[name] = value
	return nil
}

// Call invokes a descriptor-declared method with this entity as its receiver.
func (e *Entity) Call(name string, args ...any) (any, error) {
	if e.props == nil {
		return nil, ErrDetached
	}
	m, ok := e.methods[name]
	if !ok {
		return nil, ErrUnknownMethod
	}
	return m(e, args...)
}

// Values returns a copy of the current property values.
func (e *Entity) Values() map[string]any {
	out := make(map[string]any, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// PropertyNames returns the declared property names in deterministic order.
func (e *Entity) PropertyNames() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detached reports whether the entity was restored from persistence and still
// needs Factory.Rehydrate before it accepts writes.
func (e *Entity) Detached() bool {
	return e.props == nil
}

type entityJSON struct {
	Name   string         `json:"name"`
	Values map[string]any `json:"values"`
}

// MarshalJSON serializes the family name and property values. Guard rules and
// methods live in the descriptor and are re-attached via Factory.Rehydrate
// after loading.
func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(entityJSON{Name: e.name, Values: e.values})
}

// UnmarshalJSON restores a detached entity: values only, no rules.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var raw entityJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.name = raw.Name
	e.values = raw.Values
	if e.values == nil {
		e.values = make(map[string]any)
	}
	e.props = nil
	e.guards = nil
	e.methods = nil
	return nil
}
