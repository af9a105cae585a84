package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openmakers/badgegate/internal/database/testutil"
	"github.com/openmakers/badgegate/internal/models"
)

func newDatabaseStore(t *testing.T) (*DatabaseStore, *fakeClock) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
	store := NewDatabaseStore(db)
	store.now = clock.Now
	return store, clock
}

func TestDatabaseStoreSetOverwrites(t *testing.T) {
	store, _ := newDatabaseStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "fallback_store", []byte("v1"), time.Minute))
	require.NoError(t, store.Set(ctx, "fallback_store", []byte("v2"), time.Minute))

	value, ok, err := store.Get(ctx, "fallback_store")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", string(value))

	var count int64
	require.NoError(t, store.db.Model(&models.CacheEntry{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestDatabaseStoreExpiredEntryIsMiss(t *testing.T) {
	store, clock := newDatabaseStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	clock.Advance(2 * time.Minute)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDatabaseStoreIncrementWithTTL(t *testing.T) {
	store, clock := newDatabaseStore(t)
	ctx := context.Background()

	count, _, err := store.IncrementWithTTL(ctx, "rate:1", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	count, ttl, err := store.IncrementWithTTL(ctx, "rate:1", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.LessOrEqual(t, ttl, time.Minute)

	clock.Advance(2 * time.Minute)
	count, _, err = store.IncrementWithTTL(ctx, "rate:1", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestDatabaseStorePurgeExpired(t *testing.T) {
	store, clock := newDatabaseStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, store.Set(ctx, "forever", []byte("3"), 0))

	clock.Advance(10 * time.Minute)

	removed, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var keys []string
	require.NoError(t, store.db.Model(&models.CacheEntry{}).Order("key").Pluck("key", &keys).Error)
	require.Equal(t, []string{"forever", "long"}, keys)
}

func TestDatabaseStoreDelete(t *testing.T) {
	store, _ := newDatabaseStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx))

	_, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)
}
