package store

import (
	"context"

	"github.com/MKhiriev/go-habit-tracker/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/document_repository_mock.go -package=mock

// DocumentRepository persists user documents of the remote document store.
// Every path carries its owner; a repository never reads across users.
type DocumentRepository interface {
	Get(ctx context.Context, path models.DocPath) (models.Document, error)
	List(ctx context.Context, path models.DocPath) ([]models.Document, error)
	// Set creates or replaces the document. With opts.Merge the fields are
	// merged into an existing document.
	Set(ctx context.Context, path models.DocPath, data map[string]any, opts models.SetOptions) error
	// Update applies patch to an existing document. Increments are applied
	// atomically in the same statement.
	Update(ctx context.Context, path models.DocPath, patch models.Patch) error
	// Delete removes the document. Deleting a missing document succeeds.
	Delete(ctx context.Context, path models.DocPath) error
	// BatchWrite applies writes of userID in one transaction.
	BatchWrite(ctx context.Context, userID int64, writes []models.BatchWrite) error
}
