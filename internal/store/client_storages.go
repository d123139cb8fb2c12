package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-habit-tracker/internal/config"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/migrations"
)

const lockTimeout = 2 * time.Second

// ClientStorages groups the client-side storage used by the sync core.
type ClientStorages struct {
	// Local is the durable key-value storage holding cached collections and
	// the operation queue.
	Local LocalStorage

	// Durable is false when the client runs on [MemoryStorage] because the
	// SQLite database could not be opened.
	Durable bool

	db   *DB
	lock FileLock
}

// NewClientStorages initialises the client storage layer:
//  1. Takes an exclusive lock on "<path>.lock" so that a single client
//     process owns the queue. A held lock is reported as
//     [ErrLocalStorageLocked].
//  2. Opens the SQLite file at cfg.Path and migrates it.
//  3. If opening or migrating fails, falls back to [MemoryStorage] and logs a
//     warning; the session keeps working without durability.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, log *logger.Logger) (*ClientStorages, error) {
	log.Info().Msg("creating new client storages...")

	if err := createLocalDBFileIfNotExists(cfg.Path + ".lock"); err != nil {
		return nil, fmt.Errorf("error preparing lock file: %w", err)
	}
	lock := NewFileLock(cfg.Path + ".lock")
	if err := acquireLock(ctx, lock, lockTimeout); err != nil {
		return nil, err
	}

	db, err := openMigratedSQLite(ctx, cfg.Path, log)
	if err != nil {
		log.Warn().Err(err).
			Str("func", "NewClientStorages").
			Msg("local database unavailable, falling back to in-memory storage")
		return &ClientStorages{
			Local:   NewMemoryStorage(),
			Durable: false,
			lock:    lock,
		}, nil
	}

	return &ClientStorages{
		Local:   NewSQLiteLocalStorage(db, log),
		Durable: true,
		db:      db,
		lock:    lock,
	}, nil
}

func openMigratedSQLite(ctx context.Context, path string, log *logger.Logger) (*DB, error) {
	db, err := NewConnectSQLite(ctx, path, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err = db.Migrate(ctx, migrations.SQLite); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}

// Close closes the database and releases the process lock.
func (s *ClientStorages) Close() error {
	var errs []error
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	if s.lock != nil {
		errs = append(errs, s.lock.Unlock())
	}
	return errors.Join(errs...)
}
