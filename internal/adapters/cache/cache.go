// Package cache provides the best-effort key-value layer for derived views.
// Entries are never authoritative: absence or staleness only degrades
// freshness, never correctness.
package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encoded derived views under TTL-bound keys.
type Cache interface {
	// GetJSON decodes the value at key into dest. Returns false on a miss.
	GetJSON(ctx context.Context, key string, dest any) (bool, error)

	// SetJSON encodes val and stores it under key for ttl.
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error

	// Delete removes the given keys.
	Delete(ctx context.Context, keys ...string) error

	// DeletePattern removes all keys matching a glob pattern.
	DeletePattern(ctx context.Context, pattern string) error
}

// Noop is a Cache that misses every read and accepts every write. It stands
// in when no cache backend is configured.
type Noop struct{}

func (Noop) GetJSON(context.Context, string, any) (bool, error)        { return false, nil }
func (Noop) SetJSON(context.Context, string, any, time.Duration) error { return nil }
func (Noop) Delete(context.Context, ...string) error                   { return nil }
func (Noop) DeletePattern(context.Context, string) error               { return nil }
