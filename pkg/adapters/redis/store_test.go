package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisadapter "github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

func newTestStore(t *testing.T, opts ...redisadapter.Option) (*redisadapter.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := redisadapter.NewFromClient(client, opts...)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newTestStore(t)
	ports.RunSessionStoreContract(t, store)
}

func TestRedisStore_OwnerIndex(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	table, err := domain.NewTransitionTable(domain.TableDefinition{
		InitialState: "start",
		States: map[string]domain.StateDefinition{
			"start": {On: map[string]domain.Transition{"GO": {Target: "end"}}},
			"end":   {},
		},
	})
	require.NoError(t, err)

	conv := domain.NewConversation("s1", "owner", "tpl", "start")
	require.NoError(t, store.Save(ctx, conv))

	active, err := store.FindActiveByOwner(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, "s1", active.ID)

	_, err = conv.ProcessInput(table, "GO", nil)
	require.NoError(t, err)
	require.NoError(t, conv.Cancel())
	require.NoError(t, store.Save(ctx, conv))

	_, err = store.FindActiveByOwner(ctx, "owner")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Audit record survives termination.
	loaded, err := store.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, loaded.Status)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	store, mr := newTestStore(t, redisadapter.WithTTL(50*time.Millisecond))
	ctx := context.Background()

	conv := domain.NewConversation("s1", "owner", "tpl", "start")
	require.NoError(t, store.Save(ctx, conv))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	// Let the wall clock pass the index score, then expire the keys.
	time.Sleep(1100 * time.Millisecond)
	mr.FastForward(2 * time.Second)

	_, err = store.FindByID(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// List prunes the index entry lazily.
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	store, mr := newTestStore(t, redisadapter.WithPrefix("custom:"))
	ctx := context.Background()

	conv := domain.NewConversation("s1", "owner", "tpl", "start")
	require.NoError(t, store.Save(ctx, conv))

	assert.True(t, mr.Exists("custom:session:s1"))
	assert.True(t, mr.Exists("custom:owner:owner"))
}
