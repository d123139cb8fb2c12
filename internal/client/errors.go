package client

import "errors"

// ErrServerUnreachable is returned by [App.Sync] when the health probe fails.
var ErrServerUnreachable = errors.New("document server is unreachable")
