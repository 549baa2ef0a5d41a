package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, found, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v", v)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", "v", -time.Second))
	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting an absent key is not an error.
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestMemoryCacheDeletePattern(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	wallet := "balance:11111111-1111-1111-1111-111111111111:"
	other := "balance:22222222-2222-2222-2222-222222222222:"
	require.NoError(t, c.Set(ctx, wallet+"real", "100", time.Minute))
	require.NoError(t, c.Set(ctx, wallet+"bonus", "50", time.Minute))
	require.NoError(t, c.Set(ctx, other+"real", "7", time.Minute))

	require.NoError(t, c.DeletePattern(ctx, wallet+"*"))

	_, found, _ := c.Get(ctx, wallet+"real")
	assert.False(t, found)
	_, found, _ = c.Get(ctx, wallet+"bonus")
	assert.False(t, found)
	_, found, _ = c.Get(ctx, other+"real")
	assert.True(t, found)
}
