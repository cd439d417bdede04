package cache

import "time"

// CacheService defines the behavior for caching mechanisms
type CacheService interface {
	// Get returns the value and true if present and unexpired.
	Get(key string) (interface{}, bool)

	// Set adds a value to the cache with a duration
	Set(key string, value interface{}, duration time.Duration)

	Delete(key string)

	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(prefix string) int
}

// GetAs is Get with a typed result. A value of another type is a miss.
func GetAs[T any](c CacheService, key string) (T, bool) {
	var zero T
	val, found := c.Get(key)
	if !found {
		return zero, false
	}
	typed, ok := val.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
