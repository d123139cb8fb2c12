package models

import (
	"time"
)

// OpKind is the kind of a queued mutation.
type OpKind string

const (
	OpCreate OpKind = "CREATE"
	OpUpdate OpKind = "UPDATE"
	OpDelete OpKind = "DELETE"
	// OpIncrement is an update that carries a numeric delta. It is applied
	// remotely as an atomic increment so concurrent deltas never overwrite
	// each other.
	OpIncrement OpKind = "INCREMENT"
)

// QueuedOperation is one mutation that the remote store has not confirmed yet.
type QueuedOperation struct {
	// ID is unique per operation.
	ID string `json:"id"`
	// Seq is a monotonic sequence number assigned by the queue; drain order
	// is ascending Seq.
	Seq        int64      `json:"seq"`
	Kind       OpKind     `json:"kind"`
	Collection Collection `json:"collection"`
	TargetID   string     `json:"target_id"`
	// Payload is the full document for CREATE and the patch for UPDATE.
	Payload map[string]any `json:"payload,omitempty"`
	// Field and Delta describe an INCREMENT.
	Field string  `json:"field,omitempty"`
	Delta float64 `json:"delta,omitempty"`

	CreatedAt    time.Time `json:"created_at"`
	AttemptCount int       `json:"attempt_count"`
	LastError    string    `json:"last_error,omitempty"`

	// HoldUntil keeps the operation away from the sync engine until the given
	// moment. Deletes are held for the undo window.
	HoldUntil *time.Time `json:"hold_until,omitempty"`
}

// Held reports whether the operation may not be sent yet.
func (op QueuedOperation) Held(now time.Time) bool {
	return op.HoldUntil != nil && now.Before(*op.HoldUntil)
}

// Path returns the remote document path targeted by op.
func (op QueuedOperation) Path(userID int64) DocPath {
	return NewDocPath(userID, op.Collection, op.TargetID)
}

// Patch returns the remote patch for UPDATE and INCREMENT operations.
func (op QueuedOperation) Patch() Patch {
	if op.Kind == OpIncrement {
		return IncrementPatch(op.Field, op.Delta)
	}
	return Patch(CloneFields(op.Payload))
}

// Apply returns the effect of op on a record whose current fields are given.
// exists reports whether the record is present before and after the operation.
func (op QueuedOperation) Apply(fields map[string]any, exists bool) (map[string]any, bool) {
	switch op.Kind {
	case OpCreate:
		if op.Collection == CollectionUser && exists {
			return MergeFields(fields, op.Payload), true
		}
		return CloneFields(op.Payload), true
	case OpUpdate:
		if !exists {
			return fields, false
		}
		return MergeFields(fields, op.Payload), true
	case OpDelete:
		return nil, false
	case OpIncrement:
		if !exists {
			return fields, false
		}
		out := CloneFields(fields)
		if out == nil {
			out = make(map[string]any, 1)
		}
		current, _ := ToFloat(out[op.Field])
		out[op.Field] = current + op.Delta
		return out, true
	}
	return fields, exists
}
