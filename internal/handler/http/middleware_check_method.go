// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/MKhiriev/go-habit-tracker/internal/logger"
)

// CheckHTTPMethod returns a handler meant to be registered with
// chi's MethodNotAllowed. A path that exists but is requested with an
// unsupported method is answered with 404 instead of 405, so callers cannot
// probe which routes exist.
func CheckHTTPMethod() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("method is not allowed for route")
		http.NotFound(w, r)
	}
}
