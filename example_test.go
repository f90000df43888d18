package parley_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/template"
)

// ExampleNew demonstrates driving a conversation entirely in memory. This is
// the embedded usage: no server, no Redis, just the engine as a library.
func ExampleNew() {
	// 1. Define the template: a transition table, a view per reachable
	// state, and (optionally) a guarded entity.
	doc, err := template.Parse([]byte(`
id: onboarding
fsm:
  initialState: welcome
  states:
    welcome:
      on:
        GREETING:
          target: ask_name
    ask_name:
      on:
        NAME_GIVEN:
          target: done
          assign:
            name: payload.name
    done: {}
views:
  nodes:
    welcome:
      component: message
      props:
        text: Hello! Say hi to begin.
    ask_name:
      component: question
      props:
        text: What is your name?
    done:
      component: summary
`))
	if err != nil {
		log.Fatal(err)
	}
	tpl, err := doc.Build()
	if err != nil {
		log.Fatal(err)
	}

	// 2. Initialize the engine with the template registered.
	engine, err := parley.New(parley.WithTemplate(tpl))
	if err != nil {
		log.Fatal(err)
	}

	// 3. Start a session for one external actor.
	ctx := context.Background()
	started, err := engine.Start(ctx, "onboarding", "user-42", "user-42")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("state:", started.Conversation.CurrentStateID)

	// 4. Feed normalized events. Out-of-script input is a no-op, not an
	// error.
	result, err := engine.ProcessInput(ctx, "user-42", "WAVE", nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("applied:", result.Applied)

	if _, err := engine.ProcessInput(ctx, "user-42", "GREETING", nil); err != nil {
		log.Fatal(err)
	}
	result, err = engine.ProcessInput(ctx, "user-42", "NAME_GIVEN", map[string]any{"name": "Ada"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("state:", result.Conversation.CurrentStateID)
	fmt.Println("name:", result.Conversation.Context["name"])

	// 5. Close out the session.
	conv, err := engine.Finish(ctx, "user-42")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("status:", conv.Status)

	// Output:
	// state: welcome
	// applied: false
	// state: done
	// name: Ada
	// status: finished
}
