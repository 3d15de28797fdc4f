package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/kjstillabower/evapotranspiration-service/internal/models"
)

const keyPrefix = "et:"

// maxRelativeExp is the largest relative expiration memcached accepts; larger values are read as
// absolute unix time.
const maxRelativeExp = 30 * 24 * 60 * 60

// MemcachedCache implements Cache using memcached. Values are stored as JSON.
type MemcachedCache struct {
	client *memcache.Client
}

// NewMemcachedCache creates a MemcachedCache. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and maxIdleConns
// use package defaults if zero.
func NewMemcachedCache(addrs string, timeout time.Duration, maxIdleConns int) (*MemcachedCache, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		return nil, fmt.Errorf("memcached: no server addresses in %q", addrs)
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedCache{client: client}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Get implements Cache.Get. Returns false, nil on cache miss; false, err on error.
func (c *MemcachedCache) Get(ctx context.Context, key string) (models.Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Result{}, false, err
	}
	item, err := c.client.Get(keyPrefix + key)
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return models.Result{}, false, nil
		}
		return models.Result{}, false, fmt.Errorf("memcached get: %w", err)
	}
	var res models.Result
	if err := json.Unmarshal(item.Value, &res); err != nil {
		return models.Result{}, false, fmt.Errorf("memcached decode: %w", err)
	}
	return res, true, nil
}

// Set implements Cache.Set.
func (c *MemcachedCache) Set(ctx context.Context, key string, value models.Result, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("memcached encode: %w", err)
	}
	if err := c.client.Set(&memcache.Item{
		Key:        keyPrefix + key,
		Value:      raw,
		Expiration: expirationSeconds(ttl),
	}); err != nil {
		return fmt.Errorf("memcached set: %w", err)
	}
	return nil
}

// expirationSeconds converts ttl to a relative memcached expiration, rounding sub-second TTLs up
// to one second and falling back to one hour when ttl is non-positive or too large.
func expirationSeconds(ttl time.Duration) int32 {
	if ttl <= 0 || ttl > maxRelativeExp*time.Second {
		return 3600
	}
	sec := int32((ttl + time.Second - 1) / time.Second)
	return sec
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *MemcachedCache) Ping() error {
	return c.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (c *MemcachedCache) Close() error {
	return c.client.Close()
}
