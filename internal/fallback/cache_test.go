package fallback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openmakers/badgegate/internal/cache"
	"github.com/openmakers/badgegate/internal/catalog"
)

type stubBuilder struct {
	mu     sync.Mutex
	calls  int
	err    error
	serial string
	// hook runs inside Build before it returns.
	hook func()
}

func (b *stubBuilder) Build(context.Context) (Snapshot, error) {
	b.mu.Lock()
	b.calls++
	err, serial, hook := b.err, b.serial, b.hook
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return Snapshot{}, err
	}
	snapshot := Snapshot{Users: []User{{ID: "u1", UUID: "u1", CardSerial: serial}}}
	snapshot.normalize()
	return snapshot, nil
}

func (b *stubBuilder) set(serial string, err error) {
	b.mu.Lock()
	b.serial, b.err = serial, err
	b.mu.Unlock()
}

func (b *stubBuilder) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type recordingReporter struct {
	errs []error
}

func (r *recordingReporter) Report(_ context.Context, _ string, err error) {
	r.errs = append(r.errs, err)
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestCache(t *testing.T, settings Settings) (*Cache, *stubBuilder, *cache.MemoryStore, *clock, *recordingReporter) {
	t.Helper()

	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryStore(cache.WithClock(clk.Now))
	builder := &stubBuilder{serial: "1"}
	reporter := &recordingReporter{}

	c, err := NewCache(builder, store, settings, reporter)
	require.NoError(t, err)
	return c, builder, store, clk, reporter
}

func TestCacheServesStoredSnapshotUntilExpiry(t *testing.T) {
	settings := DefaultSettings()
	settings.Lifetime = 5 * time.Minute
	c, builder, _, clk, _ := newTestCache(t, settings)
	ctx := context.Background()

	first, err := c.GetPayload(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "1", first.Users[0].CardSerial)

	builder.set("2", nil)
	cached, err := c.GetPayload(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "1", cached.Users[0].CardSerial)
	require.Equal(t, 1, builder.callCount())

	clk.now = clk.now.Add(6 * time.Minute)
	fresh, err := c.GetPayload(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "2", fresh.Users[0].CardSerial)
	require.Equal(t, 2, builder.callCount())
}

func TestCacheLifetimeIsClampedToMinimum(t *testing.T) {
	settings := DefaultSettings()
	settings.Lifetime = time.Second
	c, builder, _, clk, _ := newTestCache(t, settings)
	ctx := context.Background()

	_, err := c.GetPayload(ctx, false)
	require.NoError(t, err)

	clk.now = clk.now.Add(30 * time.Second)
	_, err = c.GetPayload(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 1, builder.callCount())

	clk.now = clk.now.Add(31 * time.Second)
	_, err = c.GetPayload(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 2, builder.callCount())
}

func TestCacheForceRefreshRebuilds(t *testing.T) {
	c, builder, _, _, _ := newTestCache(t, DefaultSettings())
	ctx := context.Background()

	_, err := c.GetPayload(ctx, false)
	require.NoError(t, err)

	builder.set("2", nil)
	refreshed, err := c.GetPayload(ctx, true)
	require.NoError(t, err)
	require.Equal(t, "2", refreshed.Users[0].CardSerial)

	cached, err := c.GetPayload(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "2", cached.Users[0].CardSerial)
}

func TestCacheInvalidateReflectsNewData(t *testing.T) {
	c, builder, _, _, _ := newTestCache(t, DefaultSettings())
	ctx := context.Background()

	_, err := c.GetPayload(ctx, false)
	require.NoError(t, err)

	builder.set("changed", nil)
	require.NoError(t, c.Invalidate(ctx))

	snapshot, err := c.GetPayload(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "changed", snapshot.Users[0].CardSerial)
}

func TestCacheBuildStartedBeforeInvalidateIsNotStored(t *testing.T) {
	c, builder, store, _, _ := newTestCache(t, DefaultSettings())
	ctx := context.Background()

	builder.hook = func() {
		require.NoError(t, c.Invalidate(ctx))
	}

	snapshot, err := c.GetPayload(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "1", snapshot.Users[0].CardSerial)

	_, ok, err := store.Get(ctx, CacheKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheBuildFailureKeepsPreviousEntry(t *testing.T) {
	c, builder, _, _, reporter := newTestCache(t, DefaultSettings())
	ctx := context.Background()

	_, err := c.GetPayload(ctx, false)
	require.NoError(t, err)

	builder.set("2", errors.New("db down"))
	require.Error(t, c.Warm(ctx))
	require.Len(t, reporter.errs, 1)

	builder.set("2", nil)
	cached, err := c.GetPayload(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "1", cached.Users[0].CardSerial)
}

func TestCacheBuildFailureOnEmptySlotStaysEmpty(t *testing.T) {
	c, builder, store, _, reporter := newTestCache(t, DefaultSettings())
	ctx := context.Background()

	builder.set("1", errors.New("db down"))
	_, err := c.GetPayload(ctx, false)
	require.Error(t, err)
	require.Len(t, reporter.errs, 1)

	_, ok, err := store.Get(ctx, CacheKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheUnreadableEntryIsMiss(t *testing.T) {
	c, builder, store, _, _ := newTestCache(t, DefaultSettings())
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, CacheKey, []byte("{not json"), time.Hour))

	snapshot, err := c.GetPayload(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "1", snapshot.Users[0].CardSerial)
	require.Equal(t, 1, builder.callCount())
}

func TestCacheDisabledAlwaysBuilds(t *testing.T) {
	settings := DefaultSettings()
	settings.CacheEnabled = false
	c, builder, store, _, _ := newTestCache(t, settings)
	ctx := context.Background()

	require.NoError(t, c.Warm(ctx))
	require.Zero(t, builder.callCount())

	_, err := c.GetPayload(ctx, false)
	require.NoError(t, err)
	_, err = c.GetPayload(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 2, builder.callCount())

	_, ok, err := store.Get(ctx, CacheKey)
	require.NoError(t, err)
	require.False(t, ok)
}

type failingStore struct {
	cache.Store
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("store unavailable")
}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store unavailable")
}

func TestCacheStoreFailuresStillReturnPayload(t *testing.T) {
	builder := &stubBuilder{serial: "1"}
	c, err := NewCache(builder, failingStore{}, DefaultSettings(), nil)
	require.NoError(t, err)

	snapshot, err := c.GetPayload(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, "1", snapshot.Users[0].CardSerial)
}

func TestNewCacheValidation(t *testing.T) {
	_, err := NewCache(nil, cache.NewMemoryStore(), DefaultSettings(), nil)
	require.Error(t, err)

	_, err = NewCache(&stubBuilder{}, nil, DefaultSettings(), nil)
	require.Error(t, err)

	settings := DefaultSettings()
	settings.CacheEnabled = false
	_, err = NewCache(&stubBuilder{}, nil, settings, nil)
	require.NoError(t, err)
}

func TestCacheRebuildsSeeBadgesBehindMemoizedCatalog(t *testing.T) {
	f := newBuildFixture(t)
	ctx := context.Background()
	f.badge(t, "Door", "door")

	memoized, err := catalog.New(f.db, catalog.WithMemoTTL(30*time.Second))
	require.NoError(t, err)
	builder, err := NewBuilder(f.members, memoized, f.store, DefaultSettings())
	require.NoError(t, err)
	c, err := NewCache(builder, cache.NewMemoryStore(), DefaultSettings(), nil)
	require.NoError(t, err)

	first, err := c.GetPayload(ctx, false)
	require.NoError(t, err)
	require.Len(t, first.Tools, 1)

	// Prime the memo the way the evaluator would between requests.
	_, err = memoized.List(ctx)
	require.NoError(t, err)

	f.badge(t, "Laser", "laser")

	require.NoError(t, c.Invalidate(ctx))
	afterInvalidate, err := c.GetPayload(ctx, false)
	require.NoError(t, err)
	require.Len(t, afterInvalidate.Tools, 2)

	f.badge(t, "Lathe", "lathe")

	require.NoError(t, c.Warm(ctx))
	warmed, err := c.GetPayload(ctx, false)
	require.NoError(t, err)
	require.Len(t, warmed.Tools, 3)
}
