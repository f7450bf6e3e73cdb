package ports

import "context"

// KVStore defines the durable key-value medium behind the visibility records.
// Values are opaque structured text; callers own serialization.
type KVStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
