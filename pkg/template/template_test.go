package template_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/template"
)

func buildParts(t *testing.T) (*domain.TransitionTable, *domain.ViewMap) {
	t.Helper()
	table, err := domain.NewTransitionTable(domain.TableDefinition{
		InitialState: "welcome",
		States: map[string]domain.StateDefinition{
			"welcome": {On: map[string]domain.Transition{"GO": {Target: "done"}}},
			"done":    {},
		},
	})
	require.NoError(t, err)

	views, err := domain.NewViewMap(domain.ViewMapDefinition{
		Nodes: map[string]domain.ViewNode{
			"welcome": {Component: "message", Props: map[string]any{"text": "Hi"}},
			"done":    {Component: "summary"},
		},
	})
	require.NoError(t, err)
	return table, views
}

func TestNew(t *testing.T) {
	table, views := buildParts(t)

	tpl, err := template.New("survey", table, views, nil)
	require.NoError(t, err)
	assert.Equal(t, "survey", tpl.ID())
	assert.Same(t, table, tpl.Table())
	assert.Same(t, views, tpl.Views())
	assert.Nil(t, tpl.Factory())

	instance, err := tpl.NewEntity(nil)
	require.NoError(t, err)
	assert.Nil(t, instance)
}

func TestNew_CoverageInvariant(t *testing.T) {
	table, _ := buildParts(t)

	// "done" is reachable but has no view node.
	views, err := domain.NewViewMap(domain.ViewMapDefinition{
		Nodes: map[string]domain.ViewNode{
			"welcome": {Component: "message"},
		},
	})
	require.NoError(t, err)

	_, err = template.New("survey", table, views, nil)
	require.Error(t, err)

	issues := domain.DefinitionErrors(err)
	require.Len(t, issues, 1)

	var defErr *domain.DefinitionError
	require.ErrorAs(t, issues[0], &defErr)
	assert.Equal(t, "done", defErr.Ref)
}

func TestNew_UnreachableStateNeedsNoView(t *testing.T) {
	table, err := domain.NewTransitionTable(domain.TableDefinition{
		InitialState: "welcome",
		States: map[string]domain.StateDefinition{
			"welcome": {},
			"island":  {},
		},
	})
	require.NoError(t, err)

	views, err := domain.NewViewMap(domain.ViewMapDefinition{
		Nodes: map[string]domain.ViewNode{
			"welcome": {Component: "message"},
		},
	})
	require.NoError(t, err)

	_, err = template.New("survey", table, views, nil)
	assert.NoError(t, err)
}

const surveyYAML = `
id: survey
fsm:
  initialState: welcome
  states:
    welcome:
      on:
        GREETING:
          target: question
    question:
      on:
        ANSWER_A:
          target: done
          assign:
            choice: a
        ANSWER_B:
          target: done
          assign:
            choice: payload.value
    done: {}
views:
  nodes:
    welcome:
      component: message
      props:
        text: Welcome!
    question:
      component: choice
      props:
        options: [a, b]
    done:
      component: summary
entity:
  name: response
  properties:
    choice:
      kind: string
`

func TestParse_YAML(t *testing.T) {
	doc, err := template.Parse([]byte(surveyYAML))
	require.NoError(t, err)
	assert.Equal(t, "survey", doc.ID)
	assert.Equal(t, "welcome", doc.FSM.InitialState)
	require.NotNil(t, doc.Entity)
	assert.Equal(t, "response", doc.Entity.Name)

	tpl, err := doc.Build()
	require.NoError(t, err)
	assert.NotNil(t, tpl.Factory())

	tr, ok := tpl.Table().FindTransition("question", "ANSWER_B")
	require.True(t, ok)
	assert.Equal(t, "payload.value", tr.Assign["choice"])
}

func TestParse_JSON(t *testing.T) {
	raw, err := json.Marshal(map[string]any{
		"id": "mini",
		"fsm": map[string]any{
			"initialState": "a",
			"states": map[string]any{
				"a": map[string]any{"on": map[string]any{"NEXT": map[string]any{"target": "b"}}},
				"b": map[string]any{},
			},
		},
		"views": map[string]any{
			"nodes": map[string]any{
				"a": map[string]any{"component": "message"},
				"b": map[string]any{"component": "message"},
			},
		},
	})
	require.NoError(t, err)

	doc, err := template.Parse(raw)
	require.NoError(t, err)

	tpl, err := doc.Build()
	require.NoError(t, err)
	assert.Equal(t, "mini", tpl.ID())
}

func TestDecode(t *testing.T) {
	raw := map[string]any{
		"id": "mini",
		"fsm": map[string]any{
			"initialState": "a",
			"states": map[string]any{
				"a": map[string]any{},
			},
		},
		"views": map[string]any{
			"nodes": map[string]any{
				"a": map[string]any{"component": "message"},
			},
		},
	}

	doc, err := template.Decode(raw)
	require.NoError(t, err)

	tpl, err := doc.Build()
	require.NoError(t, err)
	assert.Equal(t, "mini", tpl.ID())
}

func TestRehydrate(t *testing.T) {
	doc, err := template.Parse([]byte(surveyYAML))
	require.NoError(t, err)
	tpl, err := doc.Build()
	require.NoError(t, err)

	conv := domain.NewConversation("c1", "u1", tpl.ID(), tpl.Table().InitialState())
	instance, err := tpl.NewEntity(nil)
	require.NoError(t, err)
	conv.AttachEntity(instance)

	data, err := json.Marshal(conv)
	require.NoError(t, err)
	var loaded domain.Conversation
	require.NoError(t, json.Unmarshal(data, &loaded))

	require.NotNil(t, loaded.Entity)
	assert.True(t, loaded.Entity.Detached())

	require.NoError(t, tpl.Rehydrate(&loaded))
	assert.False(t, loaded.Entity.Detached())
	require.NoError(t, loaded.Entity.Set("choice", "a"))

	// Idempotent, and a no-op without an entity.
	require.NoError(t, tpl.Rehydrate(&loaded))
	require.NoError(t, tpl.Rehydrate(domain.NewConversation("c2", "u2", tpl.ID(), "welcome")))
}

func TestRegistry(t *testing.T) {
	registry := template.NewRegistry()

	ctx := context.Background()

	_, err := registry.FindTemplateByID(ctx, "survey")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)

	doc, err := template.Parse([]byte(surveyYAML))
	require.NoError(t, err)
	tpl, err := doc.Build()
	require.NoError(t, err)
	require.NoError(t, registry.Register(tpl))

	found, err := registry.FindTemplateByID(ctx, "survey")
	require.NoError(t, err)
	assert.Same(t, tpl, found)
	assert.Equal(t, []string{"survey"}, registry.IDs())

	assert.Error(t, registry.Register(nil))
}
