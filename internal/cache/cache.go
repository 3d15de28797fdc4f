package cache

import (
	"context"
	"encoding/binary"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/kjstillabower/evapotranspiration-service/internal/models"
)

// Cache stores evaluated results keyed by their input record.
// Get returns cached data if present and not expired, Set stores data with TTL.
type Cache interface {
	Get(ctx context.Context, key string) (models.Result, bool, error)
	Set(ctx context.Context, key string, value models.Result, ttl time.Duration) error
}

// Key returns a stable cache key for r: the xxhash of the IEEE-754 bits of every field in
// canonical order. Records that differ in any bit (including -0 vs 0) get different keys.
func Key(r models.Record) string {
	d := xxhash.New()
	var buf [8]byte
	for _, v := range r.Values() {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = d.Write(buf[:])
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// DefaultMaxEntries bounds an InMemoryCache built by NewInMemoryCache.
const DefaultMaxEntries = 10000

// sweepInterval is the minimum time between full scans for expired entries.
const sweepInterval = time.Minute

// InMemoryCache implements Cache using a mutex-guarded map with TTL-based expiration.
// Keys come from request input, so the map is bounded: Set sweeps expired entries at most once per
// sweepInterval and, when still full, evicts the entry closest to expiry.
type InMemoryCache struct {
	mu         sync.Mutex
	data       map[string]cacheEntry
	maxEntries int
	nextSweep  time.Time
	now        func() time.Time
}

type cacheEntry struct {
	value     models.Result
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache holding at most DefaultMaxEntries results.
func NewInMemoryCache() *InMemoryCache {
	return NewInMemoryCacheWithCapacity(DefaultMaxEntries)
}

// NewInMemoryCacheWithCapacity creates an in-memory cache holding at most maxEntries results.
// Non-positive maxEntries selects DefaultMaxEntries.
func NewInMemoryCacheWithCapacity(maxEntries int) *InMemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &InMemoryCache{
		data:       make(map[string]cacheEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns (result, true, nil) on hit and (zero, false, nil) on miss or expiry.
func (c *InMemoryCache) Get(ctx context.Context, key string) (models.Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Result{}, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.data[key]
	if !ok {
		return models.Result{}, false, nil
	}
	if c.now().After(entry.expiresAt) {
		delete(c.data, key)
		return models.Result{}, false, nil
	}
	return entry.value, true, nil
}

// Set stores value for ttl.
func (c *InMemoryCache) Set(ctx context.Context, key string, value models.Result, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	_, exists := c.data[key]
	if !now.Before(c.nextSweep) || (!exists && len(c.data) >= c.maxEntries) {
		c.sweepLocked(now)
	}
	if !exists && len(c.data) >= c.maxEntries {
		c.evictLocked()
	}
	c.data[key] = cacheEntry{
		value:     value,
		expiresAt: now.Add(ttl),
	}
	return nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// sweepLocked removes every expired entry. Must be called with mu held.
func (c *InMemoryCache) sweepLocked(now time.Time) {
	for k, e := range c.data {
		if now.After(e.expiresAt) {
			delete(c.data, k)
		}
	}
	c.nextSweep = now.Add(sweepInterval)
}

// evictLocked removes the entry closest to expiry. Must be called with mu held.
func (c *InMemoryCache) evictLocked() {
	var victim string
	var earliest time.Time
	first := true
	for k, e := range c.data {
		if first || e.expiresAt.Before(earliest) {
			victim, earliest, first = k, e.expiresAt, false
		}
	}
	if !first {
		delete(c.data, victim)
	}
}
