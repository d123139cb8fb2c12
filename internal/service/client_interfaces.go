package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-habit-tracker/models"
)

// CacheStore keeps the last known remote snapshot of every collection of a
// user. It is an optimization: reads never fail and writes are best effort.
type CacheStore interface {
	// Load returns the cached records, or nil when nothing usable is cached.
	Load(ctx context.Context, userID int64, collection models.Collection) []models.Record

	// Save replaces the cached records. Failures are logged and switch the
	// store to memory for the rest of the session.
	Save(ctx context.Context, userID int64, collection models.Collection, records []models.Record)
}

// ConnectivityMonitor is the single source of truth for whether the client
// is online.
type ConnectivityMonitor interface {
	Online() bool

	// SetOnline records the current status. Subscribers are called only on
	// transitions.
	SetOnline(online bool)

	// ReportFailure lets remote callers flag network failures without waiting
	// for the next probe. Errors that do not indicate lost connectivity are
	// ignored.
	ReportFailure(err error)

	// Subscribe registers fn for status transitions.
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// EnqueueResult describes what [OperationQueue.Enqueue] did.
type EnqueueResult struct {
	// Op is the stored operation with its id and sequence number assigned.
	// It is zero when Collapsed is true.
	Op models.QueuedOperation

	// Collapsed is true when a DELETE removed a pending CREATE together with
	// every later operation of the same target instead of being queued.
	Collapsed bool

	// Dropped holds the operations removed by the collapse, in queue order.
	Dropped []models.QueuedOperation
}

// OperationQueue is the ordered, durable list of mutations not yet confirmed
// by the remote store. Operations are ordered by a monotonic sequence number
// and the order survives restarts.
type OperationQueue interface {
	// Load restores the persisted queue.
	Load(ctx context.Context) error

	// Enqueue appends op. Returns [ErrTargetDeleted] for an UPDATE or
	// INCREMENT whose target has a pending DELETE.
	Enqueue(ctx context.Context, op models.QueuedOperation) (EnqueueResult, error)

	// Dequeue removes a finished operation and reports whether it was queued.
	Dequeue(ctx context.Context, opID string) bool

	// PeekAll returns a copy of the queue in drain order.
	PeekAll() []models.QueuedOperation

	// Pending returns the queued operations of one record in drain order.
	Pending(collection models.Collection, targetID string) []models.QueuedOperation

	// Cancel removes a held operation that has not been taken by the sync
	// engine. It reports false once the hold has expired or the operation is
	// in flight.
	Cancel(ctx context.Context, opID string, now time.Time) bool

	// Next takes the head of the queue for remote application. It reports
	// false when the queue is empty, the head is held, or another operation
	// is already in flight.
	Next(now time.Time) (models.QueuedOperation, bool)

	// Release returns an in-flight operation to the queue untouched.
	Release(opID string)

	// MarkAttempt records a failed remote attempt.
	MarkAttempt(ctx context.Context, opID string, err error)

	Len() int
}

// SyncEngine drains the operation queue against the remote store.
type SyncEngine interface {
	// Drain applies queued operations in order until the queue is empty, the
	// head is held by an undo window, or an operation fails transiently after
	// all retries. It is a no-op while offline, and concurrent calls share a
	// single drain.
	Drain(ctx context.Context) error

	// MarkReconnected makes the next successful drain report how many
	// changes it synced.
	MarkReconnected()
}

// StateUpdater is the path through which the sync engine and the listener
// bridge change local state. Only the mutation service implements it.
type StateUpdater interface {
	// Sending is called when the sync engine hands op to the remote store.
	Sending(op models.QueuedOperation)

	// Confirm dequeues op after the remote store applied it and folds it into
	// the base snapshot unless a snapshot received since Sending covers it.
	Confirm(ctx context.Context, op models.QueuedOperation)

	// Reject dequeues op after a permanent failure. The local effect is kept
	// and the record is marked failed.
	Reject(ctx context.Context, op models.QueuedOperation, err error)

	// RetryScheduled marks the target of op as waiting for a retry.
	RetryScheduled(op models.QueuedOperation)

	// ApplySnapshot replaces the base snapshot of collection. Pending
	// operations stay on top of it.
	ApplySnapshot(ctx context.Context, collection models.Collection, records []models.Record)

	// Revision counts the local changes folded into the base of collection
	// since startup. A snapshot identical to the last one applied must still
	// be merged once Revision has moved.
	Revision(collection models.Collection) uint64
}

// MutationService is the only entry point feature code uses to change tasks,
// goals and the profile counters. Every call changes local state before it
// returns and never waits for the network; remote failures are reported
// through the [Notifier].
type MutationService interface {
	// Load restores the cached base snapshots and the pending queue.
	Load(ctx context.Context) error

	Create(ctx context.Context, collection models.Collection, fields map[string]any) (models.Record, error)
	Update(ctx context.Context, collection models.Collection, id string, patch models.Patch) error
	// Delete removes the record locally and queues a DELETE held for the
	// undo window.
	Delete(ctx context.Context, collection models.Collection, id string) (*UndoHandle, error)
	Increment(ctx context.Context, collection models.Collection, id, field string, delta float64) error

	List(collection models.Collection) []models.Record
	Get(collection models.Collection, id string) (models.Record, bool)

	// OnChange registers fn to be called after the local view of a collection
	// changed.
	OnChange(fn func(collection models.Collection)) (unsubscribe func())
}

// ListenerBridge keeps one live subscription per collection and merges
// remote snapshots into local state.
type ListenerBridge interface {
	Start(ctx context.Context, collections ...models.Collection) error
	// Stop tears every subscription down. No snapshot is applied after Stop
	// returns.
	Stop()
}

// Notifier is the user-visible notification channel.
type Notifier interface {
	Notify(n models.Notification)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(n models.Notification)

func (f NotifierFunc) Notify(n models.Notification) {
	f(n)
}
