package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/pkg/domain"
)

func TestNewViewMap(t *testing.T) {
	views, err := domain.NewViewMap(domain.ViewMapDefinition{
		Nodes: map[string]domain.ViewNode{
			"welcome": {Component: "message", Props: map[string]any{"text": "Hi there"}},
			"done":    {Component: "summary"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"done", "welcome"}, views.NodeIDs())

	node := views.Node("welcome")
	require.NotNil(t, node)
	assert.Equal(t, "message", node.Component)
	assert.Equal(t, "Hi there", node.Props["text"])

	assert.Nil(t, views.Node("ghost"))
}

func TestNewViewMap_MissingComponent(t *testing.T) {
	_, err := domain.NewViewMap(domain.ViewMapDefinition{
		Nodes: map[string]domain.ViewNode{
			"welcome": {Props: map[string]any{"text": "Hi"}},
		},
	})
	require.Error(t, err)

	var defErr *domain.DefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Equal(t, "welcome", defErr.Ref)
}

func TestViewMap_NodeReturnsCopy(t *testing.T) {
	views, err := domain.NewViewMap(domain.ViewMapDefinition{
		Nodes: map[string]domain.ViewNode{
			"welcome": {Component: "message", Props: map[string]any{"text": "Hi"}},
		},
	})
	require.NoError(t, err)

	views.Node("welcome").Props["text"] = "tampered"
	assert.Equal(t, "Hi", views.Node("welcome").Props["text"])
}

func TestViewMap_EmptyIsValid(t *testing.T) {
	views, err := domain.NewViewMap(domain.ViewMapDefinition{})
	require.NoError(t, err)
	assert.Empty(t, views.NodeIDs())
}
