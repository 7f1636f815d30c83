// Package cache stores registry answers across resolutions.
//
// Backends:
//
//   - Null: never stores anything
//   - Memory: in-process map with expiry, for tests and long-running tools
//   - File: one JSON entry per key under a directory, for the CLI
//   - Redis: shared cache for multi-instance deployments
//
// Values are opaque bytes. A zero TTL keeps an entry until it is deleted or
// evicted by the backend.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the value for key. The bool is false on a miss or an
	// expired entry.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key. A zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Key builds a cache key from parts. The parts are hashed so keys have a
// fixed length and no separators leak into backend paths.
func Key(prefix string, parts ...string) string {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
	}
	return prefix + ":" + strconv.FormatUint(h.Sum64(), 16)
}

// Null is a no-op cache that never stores anything.
// Useful for testing or when caching should be disabled.
type Null struct{}

// Get always returns a cache miss.
func (Null) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set does nothing.
func (Null) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete does nothing.
func (Null) Delete(context.Context, string) error { return nil }

// Close does nothing.
func (Null) Close() error { return nil }

// Ensure Null implements Cache.
var _ Cache = Null{}
