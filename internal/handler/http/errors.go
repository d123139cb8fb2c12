// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Bearer token extraction failures. All of them end in 401.
var (
	ErrEmptyAuthorizationHeader   = errors.New("missing Authorization header")
	ErrInvalidAuthorizationHeader = errors.New("malformed Authorization header")
	ErrUnsupportedAuthScheme      = errors.New("authorization scheme must be Bearer")
)

// ErrInvalidIdempotencyKey is answered with 400.
var ErrInvalidIdempotencyKey = errors.New("idempotency key is too long")
