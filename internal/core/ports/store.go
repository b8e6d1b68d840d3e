package ports

import "context"

// Store is a durable key-value store of opaque values.
type Store interface {
	// Get returns the value stored at key, or nil if there is none.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value at key, replacing any previous one.
	Set(ctx context.Context, key string, value []byte) error
}
