package utils

import "github.com/google/uuid"

// IDFunc returns a fresh identifier for a record or a queued operation.
type IDFunc func() string

// NewTimeOrderedID returns a UUIDv7 so ids created later sort after earlier
// ones. A random v4 is used when the v7 clock source fails.
func NewTimeOrderedID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
