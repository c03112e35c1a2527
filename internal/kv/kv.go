// Package kv defines the TTL-bearing key-value store contract the auth core
// is built on. Every consistency rule in the core reduces to single-key
// atomicity, which implementations must provide natively.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or its TTL has passed.
var ErrNotFound = errors.New("kv: key not found")

// Store is a string key-value store with per-key TTL. All operations are
// atomic at single-key granularity. Implementations own expiry: an expired
// key behaves exactly like an absent one even if physical deletion is lazy.
type Store interface {
	// Get returns the value for key, or ErrNotFound when absent/expired.
	Get(ctx context.Context, key string) (string, error)

	// Set writes value under key with the given TTL, overwriting any
	// previous value and TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX writes value only if the key is absent (or expired). Returns
	// false without writing when a live key already exists.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteIfEquals atomically deletes key only when its current live value
	// equals expected. Returns true when the delete happened. A mismatch or
	// absent key returns false and leaves any stored value untouched.
	DeleteIfEquals(ctx context.Context, key, expected string) (bool, error)

	// Increment atomically adds one to the counter at key and returns the new
	// count. The TTL is applied when the counter is created and left alone on
	// subsequent increments.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
