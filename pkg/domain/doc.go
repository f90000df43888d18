/*
Package domain contains the core domain models and business logic for the Parley engine.

It defines the fundamental entities of the conversation runtime: the immutable
TransitionTable and ViewMap value objects that make up a script template, and the
Conversation aggregate that advances through them. This package is kept pure and
free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - TransitionTable: Immutable state/event/target map, self-validated at construction.
  - ViewMap: Immutable state id -> view descriptor lookup.
  - Conversation: One live session of a template bound to one external actor.
  - TransitionResult: The inspectable outcome of feeding an event to a session.
*/
package domain
