// Package storage provides the best-effort key-value store backing the
// widget's persisted state: one session-id entry per bot id and one
// feedback-state entry per browsing session. Every caller treats absence or
// failure as the default path, so a broken store degrades to ephemeral
// in-memory state without failing any widget operation.
package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("key not found")
	ErrInvalidStoreType = errors.New("invalid store type")
	ErrInvalidConfig    = errors.New("invalid store configuration")
)

// Store is a minimal string key-value contract shared by all drivers.
type Store interface {
	// Get retrieves a value. Returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set writes a value, creating or overwriting the key.
	Set(ctx context.Context, key, value string) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases driver resources.
	Close() error
}
