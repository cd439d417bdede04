package cache

import (
	"testing"
	"time"

	"storefront-backend/pkg/cache"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCacheDeletePrefix(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	c.Set("stats:kpis:a", 1, time.Minute)
	c.Set("stats:kpis:b", 2, time.Minute)
	c.Set("other", 3, time.Minute)

	assert.Equal(t, 2, c.DeletePrefix("stats:"))

	_, found := c.Get("stats:kpis:a")
	assert.False(t, found)
	v, found := cache.GetAs[int](c, "other")
	assert.True(t, found)
	assert.Equal(t, 3, v)
}

func TestGetAsTypeMismatchIsMiss(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	c.Set("k", "string value", time.Minute)

	_, found := cache.GetAs[int](c, "k")
	assert.False(t, found)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	c.Set("short", 1, 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	_, found := c.Get("short")
	assert.False(t, found)
}
