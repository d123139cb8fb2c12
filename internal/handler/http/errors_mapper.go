package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-habit-tracker/internal/service"
	"github.com/MKhiriev/go-habit-tracker/internal/store"
	"github.com/MKhiriev/go-habit-tracker/internal/validators"
)

var errorStatusMap = map[error]int{
	service.ErrNoUserID:         http.StatusUnauthorized,
	service.ErrTokenIsExpired:   http.StatusUnauthorized,
	service.ErrInvalidToken:     http.StatusUnauthorized,
	service.ErrDocumentNotFound: http.StatusNotFound,

	ErrInvalidIdempotencyKey: http.StatusBadRequest,

	validators.ErrInvalidUserID:     http.StatusBadRequest,
	validators.ErrInvalidCollection: http.StatusBadRequest,
	validators.ErrInvalidDocumentID: http.StatusBadRequest,
	validators.ErrInvalidFieldName:  http.StatusBadRequest,
	validators.ErrInvalidIncrement:  http.StatusBadRequest,
	validators.ErrIncrementInSet:    http.StatusBadRequest,
	validators.ErrNoFieldsToUpdate:  http.StatusBadRequest,
	validators.ErrEmptyBatch:        http.StatusBadRequest,
	validators.ErrBatchTooLarge:     http.StatusRequestEntityTooLarge,
	validators.ErrInvalidWriteKind:  http.StatusBadRequest,

	store.ErrDocumentNotFound:   http.StatusNotFound,
	store.ErrStorageUnavailable: http.StatusServiceUnavailable,
	store.ErrDocumentRejected:   http.StatusBadRequest,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// writeError answers with the status mapped from err. Internal failures are
// reported without their details.
func writeError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		http.Error(w, http.StatusText(status), status)
		return
	}
	http.Error(w, err.Error(), status)
}
