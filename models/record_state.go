package models

// RecordState is the sync lifecycle state of a single record.
//
//	Optimistic --RetryScheduled--> Queued --Confirmed--> Confirmed
//	    |                            |
//	    +----------Rejected----------+------------------> Failed
//
// A Mutated event always moves the record back to Optimistic, and a remote
// Snapshot moves a record without pending operations to Confirmed.
type RecordState string

const (
	// StateOptimistic marks a local change that is queued and not attempted yet.
	StateOptimistic RecordState = "optimistic"
	// StateQueued marks a change whose remote application failed transiently
	// and waits for a retry.
	StateQueued RecordState = "queued"
	// StateConfirmed marks a record that matches the remote store.
	StateConfirmed RecordState = "confirmed"
	// StateFailed marks a record whose last operation was rejected permanently.
	StateFailed RecordState = "failed"
)

// RecordEvent drives [RecordState] transitions.
type RecordEvent int

const (
	// EventMutated is emitted when the façade applies a local mutation.
	EventMutated RecordEvent = iota
	// EventRetryScheduled is emitted when a transient failure leaves the
	// operation queued.
	EventRetryScheduled
	// EventConfirmed is emitted when the last pending operation succeeded.
	EventConfirmed
	// EventRejected is emitted on a permanent failure.
	EventRejected
	// EventSnapshot is emitted when a remote snapshot replaced the base copy.
	EventSnapshot
)

// Next returns the state that follows s after ev. pending tells whether the
// record still has queued operations after the event.
func (s RecordState) Next(ev RecordEvent, pending bool) RecordState {
	switch ev {
	case EventMutated:
		return StateOptimistic
	case EventRetryScheduled:
		return StateQueued
	case EventRejected:
		return StateFailed
	case EventConfirmed:
		if pending {
			return s
		}
		return StateConfirmed
	case EventSnapshot:
		if pending {
			if s == "" || s == StateConfirmed {
				return StateOptimistic
			}
			return s
		}
		return StateConfirmed
	}
	return s
}
