package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/pkg/entity"
)

func leadDescriptor() entity.Descriptor {
	return entity.Descriptor{
		Name: "lead",
		Properties: map[string]entity.Property{
			"name":      {Kind: entity.KindString},
			"score":     {Kind: entity.KindNumber, Default: 0},
			"qualified": {Kind: entity.KindBool, Default: false},
		},
		Guards: []entity.Guard{
			{
				Property:  "name",
				Condition: entity.Condition{Operator: entity.OpEmpty},
				Message:   "name is already set",
			},
			{
				Property:  "qualified",
				Condition: entity.Condition{Operator: entity.OpGte, Value: 10},
				Message:   "not enough score to qualify",
			},
		},
	}
}

func TestDefine(t *testing.T) {
	factory, err := entity.Define(leadDescriptor())
	require.NoError(t, err)
	assert.Equal(t, "lead", factory.Name())
}

func TestDefine_AggregatesErrors(t *testing.T) {
	_, err := entity.Define(entity.Descriptor{
		Properties: map[string]entity.Property{
			"age":  {Kind: "integer"},
			"name": {Kind: entity.KindString, Default: 42},
		},
		Guards: []entity.Guard{
			{Property: "ghost", Condition: entity.Condition{Operator: entity.OpEmpty}},
			{Property: "name", Condition: entity.Condition{Operator: "matches"}},
		},
	})
	require.Error(t, err)

	var agg *entity.AggregateError
	require.ErrorAs(t, err, &agg)
	// missing name, bad kind, bad default, undeclared guard target, bad operator
	assert.Len(t, agg.Errors, 5)
}

func TestFactory_New_Defaults(t *testing.T) {
	factory, err := entity.Define(leadDescriptor())
	require.NoError(t, err)

	instance, err := factory.New(nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"name":      nil,
		"score":     0,
		"qualified": false,
	}, instance.Values())
	assert.Equal(t, []string{"name", "qualified", "score"}, instance.PropertyNames())
	assert.False(t, instance.Detached())
}

func TestFactory_New_LenientOverlay(t *testing.T) {
	factory, err := entity.Define(leadDescriptor())
	require.NoError(t, err)

	// Unknown keys are dropped silently; known keys override defaults.
	instance, err := factory.New(map[string]any{
		"score":   5,
		"unknown": "ignored",
	})
	require.NoError(t, err)

	got, _ := instance.Get("score")
	assert.Equal(t, 5, got)
	assert.False(t, instance.Has("unknown"))
}

func TestFactory_New_KindMismatch(t *testing.T) {
	factory, err := entity.Define(leadDescriptor())
	require.NoError(t, err)

	_, err = factory.New(map[string]any{"score": "high"})
	require.Error(t, err)

	var valErr *entity.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "score", valErr.Property)
}

func TestFactory_Rehydrate(t *testing.T) {
	factory, err := entity.Define(leadDescriptor())
	require.NoError(t, err)

	instance, err := factory.New(map[string]any{"name": "Ada"})
	require.NoError(t, err)

	restored := roundTrip(t, instance)
	assert.True(t, restored.Detached())
	assert.ErrorIs(t, restored.Set("score", 3), entity.ErrDetached)

	require.NoError(t, factory.Rehydrate(restored))
	assert.False(t, restored.Detached())
	require.NoError(t, restored.Set("score", 3))

	// Guards survive rehydration.
	err = restored.Set("name", "Eve")
	var guardErr *entity.GuardError
	require.ErrorAs(t, err, &guardErr)
}

func TestFactory_Rehydrate_BackfillsNewProperties(t *testing.T) {
	factory, err := entity.Define(leadDescriptor())
	require.NoError(t, err)

	instance, err := factory.New(nil)
	require.NoError(t, err)
	restored := roundTrip(t, instance)

	// Simulate a descriptor that gained a property since the session was saved.
	desc := leadDescriptor()
	desc.Properties["source"] = entity.Property{Kind: entity.KindString, Default: "unknown"}
	wider, err := entity.Define(desc)
	require.NoError(t, err)

	require.NoError(t, wider.Rehydrate(restored))
	got, ok := restored.Get("source")
	assert.True(t, ok)
	assert.Equal(t, "unknown", got)
}

func TestFactory_Rehydrate_WrongFamily(t *testing.T) {
	factory, err := entity.Define(leadDescriptor())
	require.NoError(t, err)

	other, err := entity.Define(entity.Descriptor{
		Name:       "ticket",
		Properties: map[string]entity.Property{"subject": {Kind: entity.KindString}},
	})
	require.NoError(t, err)

	instance, err := other.New(nil)
	require.NoError(t, err)
	assert.Error(t, factory.Rehydrate(instance))
	assert.Error(t, factory.Rehydrate(nil))
}
