// Package session orchestrates conversation sessions: it loads or creates a
// Conversation, feeds it an external event, persists the outcome, and tells
// the render port what to present. Processing is serialized per owner key so
// at most one transition is in flight per session at a time.
package session
