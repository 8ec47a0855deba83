// Package cache stores build fingerprints between invocations.
//
// The build runner records, per rule, the fingerprint of the inputs it last
// built from. A later build with an identical fingerprint whose outputs are
// still on disk can skip the rule. Keys come from a [Keyer] so that several
// workspaces can share one cache directory.
package cache

import (
	"context"
	"time"
)

// TTLRule is how long a rule fingerprint stays valid. Zero means forever.
const TTLRule time.Duration = 0

// Cache is a byte-oriented key/value store.
type Cache interface {
	// Get returns the value for key and whether it was found.
	// Expired or corrupt entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}
