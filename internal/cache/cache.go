// Package cache stores raw LLM response bodies keyed by request
// digest, so deterministic calls replay without hitting the network.
package cache

import "context"

// Store is a key-value cache for raw response JSON. Get returns
// (nil, nil) on a miss. Implementations must be safe for concurrent
// use; both backends here upsert atomically, which satisfies the
// single-writer requirement for shared caches.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}
