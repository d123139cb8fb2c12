package store

import "errors"

var (
	ErrDocumentNotFound = errors.New("document not found")

	// ErrStorageUnavailable wraps database errors that were still retryable
	// after the last attempt.
	ErrStorageUnavailable = errors.New("storage temporarily unavailable")

	// ErrLocalStorageLocked means another client process holds the lock file
	// of the local database.
	ErrLocalStorageLocked = errors.New("local storage is locked by another process")

	ErrInvalidDocument = errors.New("document is not valid JSON")

	// ErrDocumentRejected wraps data exceptions and integrity violations:
	// the statement is well formed but the stored document cannot take it.
	ErrDocumentRejected = errors.New("document rejected by the database")
)

// SQL stage errors. Repositories wrap the driver error with one of them so
// logs show which step failed.
var (
	ErrBuildingSQLQuery     = errors.New("build sql query")
	ErrExecutingQuery       = errors.New("run sql query")
	ErrBeginningTransaction = errors.New("begin transaction")
	ErrCommitingTransaction = errors.New("commit transaction")
	ErrExecutingStatement   = errors.New("execute sql statement")
	ErrScanningRow          = errors.New("scan document row")
	ErrScanningRows         = errors.New("scan document rows")
)
