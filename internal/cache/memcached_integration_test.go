//go:build integration
// +build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/kjstillabower/evapotranspiration-service/internal/models"
)

// TestMemcachedCache_GetSet_Integration verifies a round trip through a running memcached.
func TestMemcachedCache_GetSet_Integration(t *testing.T) {
	c, err := NewMemcachedCache("localhost:11211", 500*time.Millisecond, 2)
	if err != nil {
		t.Fatalf("NewMemcachedCache() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	val := sampleResult()
	key := Key(models.DemoRecord())
	if err := c.Set(ctx, key, val, time.Minute); err != nil {
		t.Skipf("Set failed (memcached may not be running): %v", err)
	}

	got, ok, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if got != val {
		t.Errorf("Get() = %+v, want %+v", got, val)
	}
}

// TestMemcachedCache_Get_Miss_Integration verifies a miss on an unknown key.
func TestMemcachedCache_Get_Miss_Integration(t *testing.T) {
	c, err := NewMemcachedCache("localhost:11211", 500*time.Millisecond, 2)
	if err != nil {
		t.Fatalf("NewMemcachedCache() error = %v", err)
	}
	defer c.Close()

	_, ok, err := c.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Skipf("Get failed (memcached may not be running): %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for miss")
	}
}
