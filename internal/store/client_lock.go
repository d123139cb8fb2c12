package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// FileLock is an exclusive advisory lock on a file.
type FileLock interface {
	// TryLockContext retries every retryInterval until the lock is taken or
	// ctx is done.
	TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error)
	Unlock() error
}

// NewFileLock returns a FileLock on path backed by gofrs/flock.
func NewFileLock(path string) FileLock {
	return flock.New(path)
}

// acquireLock takes lock within timeout. Another client process holding it
// yields [ErrLocalStorageLocked].
func acquireLock(ctx context.Context, lock FileLock, timeout time.Duration) error {
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, 50*time.Millisecond)
	if locked {
		return nil
	}
	if err == nil || lockCtx.Err() != nil {
		return ErrLocalStorageLocked
	}
	return fmt.Errorf("error acquiring local storage lock: %w", err)
}
