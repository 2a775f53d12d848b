// ABOUTME: Store interface for durable widget identity persistence
// ABOUTME: Defines the get/set/delete contract implemented by pluggable drivers

package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested key does not exist
var ErrNotFound = errors.New("key not found")

// Store is the minimal key-value capability the widget engine needs for
// persisted identity (the guest session id, keyed by widget id). Values are
// opaque non-empty strings. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set writes the value for key, overwriting any existing value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store
	Close() error
}
