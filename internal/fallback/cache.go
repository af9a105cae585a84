package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/openmakers/badgegate/internal/cache"
	"github.com/openmakers/badgegate/pkg/logger"
	"github.com/openmakers/badgegate/pkg/metrics"
)

// CacheKey is the store key of the cached snapshot.
const CacheKey = "fallback_store"

// SnapshotBuilder produces snapshots.
type SnapshotBuilder interface {
	Build(ctx context.Context) (Snapshot, error)
}

// ErrorReporter receives build failures.
type ErrorReporter interface {
	Report(ctx context.Context, component string, err error)
}

// Cache serves snapshots from a cache.Store, rebuilding on miss, expiry or forced refresh.
type Cache struct {
	builder  SnapshotBuilder
	store    cache.Store
	settings Settings
	reporter ErrorReporter
	log      *zap.Logger

	// mu serialises write-back against Invalidate; generation changes on every invalidation.
	mu         sync.Mutex
	generation uint64
}

// NewCache constructs a Cache. The reporter may be nil.
func NewCache(builder SnapshotBuilder, store cache.Store, settings Settings, reporter ErrorReporter) (*Cache, error) {
	if builder == nil {
		return nil, errors.New("fallback cache: builder is required")
	}
	if store == nil && settings.CacheEnabled {
		return nil, errors.New("fallback cache: store is required when caching is enabled")
	}
	return &Cache{
		builder:  builder,
		store:    store,
		settings: settings,
		reporter: reporter,
		log:      logger.WithModule("fallback"),
	}, nil
}

// Enabled reports whether snapshots are cached.
func (c *Cache) Enabled() bool {
	return c.settings.CacheEnabled
}

// GetPayload returns the cached snapshot, building a fresh one when the slot is empty or expired
// or when forceRefresh is set. With caching disabled every call builds.
func (c *Cache) GetPayload(ctx context.Context, forceRefresh bool) (Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if !c.settings.CacheEnabled {
		metrics.SnapshotCache.WithLabelValues("bypass").Inc()
		return c.build(ctx)
	}

	if !forceRefresh {
		if snapshot, ok := c.lookup(ctx); ok {
			metrics.SnapshotCache.WithLabelValues("hit").Inc()
			return snapshot, nil
		}
		metrics.SnapshotCache.WithLabelValues("miss").Inc()
	} else {
		metrics.SnapshotCache.WithLabelValues("refresh").Inc()
	}

	generation := c.currentGeneration()

	snapshot, err := c.build(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	c.writeBack(ctx, generation, snapshot)
	return snapshot, nil
}

// Warm rebuilds and stores the snapshot. It does nothing when caching is disabled.
func (c *Cache) Warm(ctx context.Context) error {
	if !c.settings.CacheEnabled {
		return nil
	}
	_, err := c.GetPayload(ctx, true)
	return err
}

// Invalidate empties the slot. Builds already in flight will not store their result.
func (c *Cache) Invalidate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	if c.store == nil {
		return nil
	}
	if err := c.store.Delete(ctx, CacheKey); err != nil {
		return fmt.Errorf("fallback cache: invalidate: %w", err)
	}
	return nil
}

func (c *Cache) lookup(ctx context.Context) (Snapshot, bool) {
	raw, ok, err := c.store.Get(ctx, CacheKey)
	if err != nil {
		c.log.Warn("fallback cache read failed", zap.Error(err))
		return Snapshot{}, false
	}
	if !ok {
		return Snapshot{}, false
	}

	var snapshot Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		c.log.Warn("discarding unreadable fallback cache entry", zap.Error(err))
		return Snapshot{}, false
	}
	snapshot.normalize()
	return snapshot, true
}

func (c *Cache) build(ctx context.Context) (Snapshot, error) {
	snapshot, err := c.builder.Build(ctx)
	if err != nil {
		wrapped := fmt.Errorf("fallback cache: build snapshot: %w", err)
		if c.reporter != nil {
			c.reporter.Report(ctx, "fallback", wrapped)
		} else {
			c.log.Error("fallback snapshot build failed", zap.Error(wrapped))
		}
		return Snapshot{}, wrapped
	}
	return snapshot, nil
}

func (c *Cache) writeBack(ctx context.Context, generation uint64, snapshot Snapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		c.log.Error("unable to encode fallback snapshot", zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		c.log.Debug("skipping fallback cache write after invalidation")
		return
	}
	if err := c.store.Set(ctx, CacheKey, payload, c.settings.CacheLifetime()); err != nil {
		c.log.Error("unable to persist fallback export cache", zap.Error(err))
	}
}

func (c *Cache) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}
