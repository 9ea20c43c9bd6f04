package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_InvalidType(t *testing.T) {
	_, err := NewStore(StoreType("bolt"))
	assert.ErrorIs(t, err, ErrInvalidStoreType)
}

func TestNewStore_RedisWithoutClient(t *testing.T) {
	_, err := NewStore(StoreTypeRedis)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewStore_PostgresWithoutPool(t *testing.T) {
	_, err := NewStore(StoreTypePostgres)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMemoryStore_Roundtrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(StoreTypeMemory)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "k", "v1"))
	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", value)

	require.NoError(t, store.Set(ctx, "k", "v2"))
	value, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", value)

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_DeleteMissingIsNoop(t *testing.T) {
	store, err := NewStore(StoreTypeMemory)
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Delete(context.Background(), "never-set"))
}
