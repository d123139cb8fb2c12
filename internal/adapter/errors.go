package adapter

import "errors"

// Sentinel errors returned by [DocumentAdapter] implementations. HTTP status
// codes are mapped onto them by mapHTTPError.
var (
	// ErrBadRequest is returned for 400 and other unrecognised 4xx answers.
	ErrBadRequest = errors.New("invalid argument")
	// ErrUnauthorized is returned for 401.
	ErrUnauthorized = errors.New("client unauthorized")
	// ErrForbidden is returned for 403.
	ErrForbidden = errors.New("permission denied")
	// ErrNotFound is returned for 404.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned for 409; the server aborted a contended write.
	ErrConflict = errors.New("aborted")
	// ErrTooManyRequests is returned for 429.
	ErrTooManyRequests = errors.New("resource exhausted")
	// ErrInternalServerError is returned for 500.
	ErrInternalServerError = errors.New("internal server error")
	// ErrUnavailable is returned for 502, 503 and 504.
	ErrUnavailable = errors.New("service unavailable")
	// ErrDeadlineExceeded is returned for 408 and for client-side timeouts.
	ErrDeadlineExceeded = errors.New("deadline exceeded")
	// ErrNetwork wraps failures that happened before any response arrived.
	ErrNetwork = errors.New("network error")
)

// ErrorClass tells the sync engine what to do with a failed write.
type ErrorClass int

const (
	// ClassTransient failures are retried with backoff; the operation stays
	// queued.
	ClassTransient ErrorClass = iota
	// ClassPermanent failures will never succeed; the operation is dropped
	// and the user is told.
	ClassPermanent
)

// String returns a lowercase name used in logs.
func (c ErrorClass) String() string {
	if c == ClassPermanent {
		return "permanent"
	}
	return "transient"
}

// Classify maps an adapter error to its class. Only errors that are known to
// be permanent are classified so; anything unrecognised is transient and will
// be retried.
func Classify(err error) ErrorClass {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrNotFound):
		return ClassPermanent
	default:
		return ClassTransient
	}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return err != nil && Classify(err) == ClassTransient
}
