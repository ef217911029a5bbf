package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Total int64  `json:"total"`
}

func TestJSONHelpersRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, SetJSON(ctx, store, "k", payload{Name: "daily", Total: 10500}, time.Minute))

	got, err := GetJSON[payload](ctx, store, "k")
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "daily", Total: 10500}, *got)

	_, err = GetJSON[payload](ctx, store, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Second))
	_, err := store.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestDeleteManyKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), 0))

	require.NoError(t, store.Delete(ctx, "a", "b", "c"))
	assert.Equal(t, 0, store.Len())
}

func TestNoopAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	store := Noop()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
