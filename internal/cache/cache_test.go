package cache

import (
	"context"
	"go-newsroom/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *SQLiteCache {
	t.Helper()
	c, err := NewSQLite("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSQLiteCache_SetGetDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "category:editorial:politics", []byte("7"), time.Minute))
	got, err := c.Get(ctx, "category:editorial:politics")
	require.NoError(t, err)
	assert.Equal(t, []byte("7"), got)

	require.NoError(t, c.Set(ctx, "category:editorial:politics", []byte("8"), time.Minute))
	got, err = c.Get(ctx, "category:editorial:politics")
	require.NoError(t, err)
	assert.Equal(t, []byte("8"), got, "set must overwrite")

	require.NoError(t, c.Delete(ctx, "category:editorial:politics"))
	_, err = c.Get(ctx, "category:editorial:politics")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSQLiteCache_Expiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	now = now.Add(59 * time.Second)
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(config.CacheConfig{Driver: "memcached"})
	assert.Error(t, err)
}

func TestNew_SQLite(t *testing.T) {
	c, err := New(config.CacheConfig{Driver: "sqlite", FilePath: "file::memory:"})
	require.NoError(t, err)
	defer c.Close()
	assert.IsType(t, &SQLiteCache{}, c)
}
