// Package cache provides the content-addressed inference cache: a fail-open
// get/compute/set wrapper over a key/value store with expiry.
//
// The cache is an optimization, never a correctness dependency. A backend
// failure on get falls through to the computation; a backend failure on set
// is logged and swallowed. The only error GetOrCompute ever returns is the
// computation's own.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrCacheMiss indicates the key is not present in the backend. Backends
// translate their native miss signal to this sentinel.
var ErrCacheMiss = errors.New("cache miss")

// Store is a key/value store with per-entry expiry.
type Store interface {
	// Get returns the cached value for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL, overwriting any
	// previous entry. Concurrent writers of the same key are last-writer-
	// wins, which is acceptable because values for a key are computed from
	// the same deterministic input.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases backend resources.
	Close() error
}

// BackendKind identifies a supported cache backend. The set is closed and
// unknown strings are rejected at construction time.
type BackendKind string

const (
	// BackendRedis is the shared production cache.
	BackendRedis BackendKind = "redis"

	// BackendMemory is a process-local expirable LRU, for development and
	// tests.
	BackendMemory BackendKind = "memory"
)

// UnknownBackendError is returned when configuration names a cache backend
// outside the closed set.
type UnknownBackendError struct {
	Kind string
}

func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("cache: unknown backend kind %q (supported: %s, %s)", e.Kind, BackendRedis, BackendMemory)
}

// ParseBackendKind validates a configured cache backend name.
func ParseBackendKind(s string) (BackendKind, error) {
	switch BackendKind(s) {
	case BackendRedis, BackendMemory:
		return BackendKind(s), nil
	default:
		return "", &UnknownBackendError{Kind: s}
	}
}

// GetOrCompute returns the cached value for key when present; otherwise it
// runs compute, caches the result, and returns it.
//
// Failure handling is fail-open throughout:
//   - a backend error during Get is logged and treated as a miss;
//   - a backend error during Set is logged and swallowed;
//   - a compute error propagates verbatim and nothing is cached.
//
// The Set only runs after a fully successful compute, so cancellation never
// leaves a partial cache write behind.
func GetOrCompute(ctx context.Context, store Store, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	value, err := store.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		log.Printf("cache: get %s failed, computing instead: %v", key, err)
	}

	result, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := store.Set(ctx, key, result, ttl); err != nil {
		log.Printf("cache: set %s failed (result still returned): %v", key, err)
	}
	return result, nil
}
