package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/migrations"
)

const (
	dbMaxRetries   = 3
	dbRetryBackoff = 50 * time.Millisecond
)

// ErrorClassificator decides whether a failed database call may succeed when
// repeated.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// DB is a database handle shared by the repositories of one process.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// Migrate applies the embedded migrations of dialect.
func (db *DB) Migrate(ctx context.Context, dialect migrations.Dialect) error {
	applied, err := migrations.Migrate(ctx, db.DB, dialect)
	if err != nil {
		return err
	}
	if applied > 0 {
		db.logger.Info().Str("dialect", string(dialect)).Int("applied", applied).Msg("database migrated")
	}
	return nil
}

// withRetry runs fn until it succeeds, fails with an error the classifier
// deems final, or the retries run out. Errors still retryable at the end are
// wrapped with [ErrStorageUnavailable], rejections with [ErrDocumentRejected].
func (db *DB) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.errorClassificator == nil {
		return rejected(fn(ctx))
	}

	backoff := retry.WithMaxRetries(dbMaxRetries, retry.NewExponential(dbRetryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && db.errorClassificator.Classify(err) == Retryable {
			db.logger.Warn().Err(err).Msg("retrying database call")
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil && db.errorClassificator.Classify(err) == Retryable {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	return rejected(err)
}

func rejected(err error) error {
	if err != nil && IsRejection(err) {
		return fmt.Errorf("%w: %w", ErrDocumentRejected, err)
	}
	return err
}

// sqlExecutor is satisfied by both *sql.DB and *sql.Tx.
type sqlExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
