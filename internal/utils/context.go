// Package utils holds small helpers shared by the habit tracker client and
// the document server: request context values, JWT handling, JSON over HTTP,
// the resty client, time-ordered ids and content fingerprints.
package utils

import "context"

type contextKey string

func (c contextKey) String() string {
	return "utils context key " + string(c)
}

const (
	userIDKey      = contextKey("userID")
	operationIDKey = contextKey("operationID")
)

// IdempotencyKeyHeader carries the id of a queued operation on a document
// write. The server applies a write with a given key at most once.
const IdempotencyKeyHeader = "Idempotency-Key"

// WithUserID returns a copy of ctx carrying the id of the authenticated
// document owner.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext returns the owner stored by [WithUserID]. It reports
// false when no positive id is present.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}

// WithOperationID returns a copy of ctx carrying the id of the queued
// operation a write belongs to.
func WithOperationID(ctx context.Context, opID string) context.Context {
	return context.WithValue(ctx, operationIDKey, opID)
}

// GetOperationIDFromContext returns the id stored by [WithOperationID].
func GetOperationIDFromContext(ctx context.Context) (string, bool) {
	opID, ok := ctx.Value(operationIDKey).(string)
	return opID, ok && opID != ""
}
