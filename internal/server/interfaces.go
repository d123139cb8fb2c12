package server

import "context"

// Server defines the lifecycle contract of the transport servers managed by
// this package.
type Server interface {
	// RunServer serves requests and blocks until ctx is done or serving
	// fails. A clean shutdown returns nil.
	RunServer(ctx context.Context) error

	// Shutdown gracefully stops the server within the deadline of ctx.
	Shutdown(ctx context.Context) error
}
