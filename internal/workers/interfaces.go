// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface and a Workers aggregate that allows
// starting and stopping multiple workers in a unified way.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
//
// Start launches the worker's goroutine and returns immediately. Stop cancels
// it and blocks until the goroutine has exited. Stop is safe to call on a
// worker that is not running.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}

// Drainer is the part of the sync engine the drain worker needs.
type Drainer interface {
	Drain(ctx context.Context) error
}

// Prober reports whether the document server is reachable.
type Prober interface {
	Ping(ctx context.Context) error
}

// StatusSetter receives the result of every probe.
type StatusSetter interface {
	SetOnline(online bool)
}
