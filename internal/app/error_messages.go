// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains shared message constants of the document server.
//
// The Msg* constants are written into HTTP response bodies and log entries
// so that the API words its failures the same way everywhere.
package app

const (
	// MsgInvalidJSON is returned when a request body cannot be decoded.
	MsgInvalidJSON = "Invalid JSON was passed"

	// MsgBodyTooLarge is returned when a request body exceeds the size limit
	// of the endpoint.
	MsgBodyTooLarge = "request body is too large"

	// MsgInvalidMergeFlag is returned when the merge query parameter of a
	// set request is not a boolean.
	MsgInvalidMergeFlag = "invalid merge flag"

	// MsgNoUserIDProvided is returned when a handler requires the user id of
	// the bearer token but none is present in the request context.
	MsgNoUserIDProvided = "no user ID was given"

	// MsgBatchLengthMismatch is returned when the declared length of a batch
	// differs from the number of writes it carries.
	MsgBatchLengthMismatch = "batch length does not match writes"

	// MsgInvalidGzip is returned when a gzip encoded request body is corrupt.
	MsgInvalidGzip = "Invalid gzip data"

	// MsgSubscriptionClosed is the close reason of a change feed whose
	// subscription ended on the server side.
	MsgSubscriptionClosed = "subscription closed"
)
