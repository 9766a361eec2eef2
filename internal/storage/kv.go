package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: not found")

// KV is scoped durable storage of opaque blobs.
type KV interface {
	// Get returns ErrNotFound when the key has never been set or was removed.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Remove of an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Lister is implemented by backends that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

const (
	ScopeHydrate   = "hydrate"
	ScopeScheduler = "scheduler"
)
