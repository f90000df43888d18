package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/pkg/domain"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405")

	newConv := func(id, owner string) *domain.Conversation {
		conv := domain.NewConversation(id, owner, "contract-template", "start")
		conv.Context["foo"] = "bar"
		return conv
	}

	t.Run("Save and FindByID", func(t *testing.T) {
		id := "contract-session-" + suffix
		conv := newConv(id, "owner-"+suffix)

		err := store.Save(ctx, conv)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.FindByID(ctx, id)
		require.NoError(t, err, "FindByID should not return error")
		assert.Equal(t, conv.ID, loaded.ID)
		assert.Equal(t, conv.CurrentStateID, loaded.CurrentStateID)
		assert.Equal(t, "bar", loaded.Context["foo"])
		assert.Equal(t, domain.StatusActive, loaded.Status)
	})

	t.Run("FindByID Non-Existent", func(t *testing.T) {
		_, err := store.FindByID(ctx, "non-existent-"+suffix)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("FindActiveByOwner", func(t *testing.T) {
		owner := "active-owner-" + suffix
		conv := newConv("active-session-"+suffix, owner)
		require.NoError(t, store.Save(ctx, conv))

		loaded, err := store.FindActiveByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, conv.ID, loaded.ID)
	})

	t.Run("FindActiveByOwner Ignores Terminal Sessions", func(t *testing.T) {
		owner := "finished-owner-" + suffix
		conv := newConv("finished-session-"+suffix, owner)
		_, err := conv.ProcessInput(mustTable(t), "GO", nil)
		require.NoError(t, err)
		require.NoError(t, conv.Finish())
		require.NoError(t, store.Save(ctx, conv))

		_, err = store.FindActiveByOwner(ctx, owner)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "terminal sessions must not resolve as active")

		// The audit record itself is retained.
		loaded, err := store.FindByID(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFinished, loaded.Status)
	})

	t.Run("Load Isolation", func(t *testing.T) {
		id := "isolation-session-" + suffix
		conv := newConv(id, "isolation-owner-"+suffix)
		require.NoError(t, store.Save(ctx, conv))

		first, err := store.FindByID(ctx, id)
		require.NoError(t, err)
		first.Context["mutated"] = true

		second, err := store.FindByID(ctx, id)
		require.NoError(t, err)
		assert.NotContains(t, second.Context, "mutated", "loads must not share mutable state")
	})

	t.Run("List", func(t *testing.T) {
		id1 := "list-session-1-" + suffix
		id2 := "list-session-2-" + suffix
		require.NoError(t, store.Save(ctx, newConv(id1, "list-owner-1-"+suffix)))
		require.NoError(t, store.Save(ctx, newConv(id2, "list-owner-2-"+suffix)))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

func mustTable(t *testing.T) *domain.TransitionTable {
	t.Helper()
	table, err := domain.NewTransitionTable(domain.TableDefinition{
		InitialState: "start",
		States: map[string]domain.StateDefinition{
			"start": {On: map[string]domain.Transition{"GO": {Target: "end"}}},
			"end":   {On: map[string]domain.Transition{}},
		},
	})
	if err != nil {
		t.Fatalf("failed to build contract table: %v", err)
	}
	return table
}
