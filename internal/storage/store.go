// Package storage is the key-value store the tracker persists its state in.
// Values are opaque JSON documents; the typed view lives in repository.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// Store is a get/set/remove key-value store. Get returns ErrNotFound for an
// absent key; Remove of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}
