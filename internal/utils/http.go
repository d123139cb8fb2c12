package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrBodyTooLarge is returned by [ReadJSON] when the body exceeds its limit.
var ErrBodyTooLarge = errors.New("request body too large")

// WriteJSON writes data as a JSON response with statusCode. When data cannot
// be encoded nothing but a 500 is written.
func WriteJSON(w http.ResponseWriter, data any, statusCode int) (int, error) {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "error writing data to JSON", http.StatusInternalServerError)
		return 0, fmt.Errorf("error writing data to JSON: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return w.Write(body)
}

// ReadJSON decodes one JSON value from the request body into v. At most
// maxBytes are read; a larger body yields [ErrBodyTooLarge].
func ReadJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("error decoding JSON body: %w", err)
	}
	return nil
}
