/*
Package ports defines the driven ports (interfaces) for the Parley engine.

These interfaces decouple the conversation runtime from external
implementations, allowing the orchestration layer to work with various
session stores, template sources, rendering channels, and lock providers.

# Key Interfaces

  - TemplateSource: Resolves a template id to its immutable script pair.
  - SessionStore: Persists and loads Conversation aggregates.
  - ViewRenderer: Presents a view descriptor on an outbound channel.
  - DistributedLocker: Serializes per-owner processing across replicas.
*/
package ports
