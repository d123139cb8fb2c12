package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

var statusErrors = map[int]error{
	http.StatusBadRequest:          ErrBadRequest,
	http.StatusUnprocessableEntity: ErrBadRequest,
	http.StatusUnauthorized:        ErrUnauthorized,
	http.StatusForbidden:           ErrForbidden,
	http.StatusNotFound:            ErrNotFound,
	http.StatusConflict:            ErrConflict,
	http.StatusRequestTimeout:      ErrDeadlineExceeded,
	http.StatusTooManyRequests:     ErrTooManyRequests,
	http.StatusInternalServerError: ErrInternalServerError,
	http.StatusBadGateway:          ErrUnavailable,
	http.StatusServiceUnavailable:  ErrUnavailable,
	http.StatusGatewayTimeout:      ErrUnavailable,
}

// mapHTTPError turns a non-2xx response into one of the adapter sentinels,
// keeping the response body as detail. Unlisted 4xx codes are bad requests.
func mapHTTPError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	detail := strings.TrimSpace(resp.String())
	if detail == "" {
		detail = http.StatusText(code)
	}

	if sentinel, ok := statusErrors[code]; ok {
		return fmt.Errorf("%w: %s", sentinel, detail)
	}
	if code >= http.StatusBadRequest && code < http.StatusInternalServerError {
		return fmt.Errorf("%w: http %d: %s", ErrBadRequest, code, detail)
	}
	return fmt.Errorf("http %d: %s", code, detail)
}

// mapTransportError wraps an error returned before any response was read.
func mapTransportError(op string, err error) error {
	kind := ErrNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrDeadlineExceeded
	}
	return fmt.Errorf("%s request: %w: %w", op, kind, err)
}
