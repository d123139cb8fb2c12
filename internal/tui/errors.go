// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"errors"

	"github.com/MKhiriev/go-habit-tracker/internal/adapter"
	"github.com/MKhiriev/go-habit-tracker/internal/service"
)

var ErrUserQuit = errors.New("user quit the board")

// humanizeError turns sync core and transport errors into short status
// lines.
func humanizeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, service.ErrTargetDeleted):
		return "This item is being deleted. Undo the delete first"
	case errors.Is(err, service.ErrRecordNotFound):
		return "The item no longer exists"
	case errors.Is(err, adapter.ErrUnauthorized):
		return "The server rejected the token. Issue a new one with `habits token` and pass it with --token"
	case errors.Is(err, adapter.ErrNetwork), errors.Is(err, adapter.ErrDeadlineExceeded), errors.Is(err, adapter.ErrUnavailable):
		return "Server is unreachable. Changes are kept locally"
	}
	return err.Error()
}
