// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the client side of the remote document store.
//
// [DocumentAdapter] is the only way the sync core talks to the server. The
// package ships an HTTP/REST implementation built on resty with websocket
// subscriptions ([NewHTTPDocumentAdapter]) and two connectivity probers: the
// HTTP health endpoint and the standard gRPC health service.
//
// Transport failures are mapped to the sentinel values in errors.go, and
// [Classify] decides whether a failed write is worth retrying.
package adapter

import (
	"context"

	"github.com/MKhiriev/go-habit-tracker/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/document_adapter_mock.go -package=mock

// DocumentAdapter is the remote document store as seen by the client. The
// owner of every path is the subject of the bearer token; the UserID carried
// by a [models.DocPath] is used only for local bookkeeping.
type DocumentAdapter interface {
	// SetToken stores the bearer token attached to all subsequent requests.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter.
	Token() string

	// Get fetches one document. Returns [ErrNotFound] when it does not exist.
	Get(ctx context.Context, path models.DocPath) (models.Document, error)

	// List fetches every document of a collection.
	List(ctx context.Context, path models.DocPath) ([]models.Document, error)

	// Set writes a whole document. With opts.Merge the fields are merged into
	// an existing document instead of replacing it.
	Set(ctx context.Context, path models.DocPath, data map[string]any, opts models.SetOptions) error

	// Update applies a partial patch to an existing document. Increment values
	// are applied atomically by the server. Returns [ErrNotFound] when the
	// document does not exist.
	Update(ctx context.Context, path models.DocPath, patch models.Patch) error

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, path models.DocPath) error

	// BatchWrite applies all writes atomically.
	BatchWrite(ctx context.Context, writes []models.BatchWrite) error

	// Subscribe delivers the full collection at path to onSnapshot, first
	// immediately and then after every change. Transport errors are passed to
	// onError and the subscription reconnects until unsubscribe is called or
	// ctx is done.
	Subscribe(ctx context.Context, path models.DocPath, onSnapshot func(models.Snapshot), onError func(error)) (unsubscribe func(), err error)
}

// Prober reports whether the document server is reachable.
type Prober interface {
	Ping(ctx context.Context) error
}
