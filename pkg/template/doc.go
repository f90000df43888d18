// Package template pairs a transition table with a view map (and optionally a
// runtime-entity descriptor) into one reusable conversation script.
//
// Binding is where the combined invariant lives: every state reachable from
// the table's initial state must have a view node, checked once at template
// construction rather than assumed at render time. Templates are immutable;
// re-registering an id only affects sessions started afterwards.
//
// Definitions are JSON-shaped documents that also parse from YAML; they
// round-trip exactly through serialization.
package template
