package store

import (
	"context"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// LocalStorage is the client's durable key-value storage. Values are opaque
// strings (the sync core stores JSON). Every method may fail; callers decide
// whether a failure is fatal.
type LocalStorage interface {
	// GetItem returns the value under key. ok is false when the key is absent.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error
}
