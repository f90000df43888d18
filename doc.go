/*
Package parley is a conversation runtime engine for scripted, multi-step
dialogs with external actors (chat-platform users, interactive CLIs, test
harnesses).

It walks a declaratively-defined state machine and tells the host what view to
render for each state. The engine manages transitions, context assignment,
guarded business data, and session persistence, while your application
("Host") owns the channel I/O: parsing inbound webhooks into normalized events
and turning view descriptors into provider-specific messages. This Hexagonal
Architecture lets the same script template run behind any adapter.

# Key Features

  - Declarative scripts: a template is a JSON-shaped transition table plus a
    view map, validated structurally at load time.
  - Guarded runtime entities: sessions can carry dynamically-described,
    rule-checked business records without a compile-time schema per bot.
  - Per-owner serialization: at most one transition in flight per session,
    locally and (optionally) across replicas via a distributed lock.
  - Pluggable persistence: in-memory and Redis session stores out of the box.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/parley"
	)

	func main() {
		engine, err := parley.New(parley.WithTemplateDir("./templates"))
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		if _, err := engine.Start(ctx, "qualification", "user-42", "chat-42"); err != nil {
			log.Fatal(err)
		}

		// Feed normalized events from your channel adapter.
		result, err := engine.ProcessInput(ctx, "user-42", "GREETING", nil)
		if err != nil {
			log.Fatal(err)
		}
		if !result.Applied {
			// Out-of-script input: the engine ignored it; surface a
			// fallback message if your UX wants one.
		}
	}
*/
package parley
