package storage

import "context"

// Ports for outbound adapters.
type (
	// Store is a flat key-value store. Set replaces the whole value.
	Store interface {
		// Get returns the value under key; found is false when nothing was stored.
		Get(ctx context.Context, key string) (value []byte, found bool, err error)
		Set(ctx context.Context, key string, value []byte) error
	}

	// Pinger is implemented by stores that can report their health.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
