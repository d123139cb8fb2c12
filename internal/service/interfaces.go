package service

import (
	"context"

	"github.com/MKhiriev/go-habit-tracker/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/document_service_mock.go -package=mock

// DocumentService is the server side of the remote document store. Every
// successful write is followed by a snapshot to the subscribers of the
// written collection.
type DocumentService interface {
	Get(ctx context.Context, path models.DocPath) (models.Document, error)
	List(ctx context.Context, path models.DocPath) ([]models.Document, error)
	Set(ctx context.Context, path models.DocPath, data map[string]any, opts models.SetOptions) error
	Update(ctx context.Context, path models.DocPath, patch models.Patch) error
	Delete(ctx context.Context, path models.DocPath) error
	BatchWrite(ctx context.Context, userID int64, writes []models.BatchWrite) error

	// Subscribe returns a channel receiving the current snapshot of the
	// collection at path and then one after every change. Only the latest
	// undelivered snapshot is kept. cancel closes the channel.
	Subscribe(ctx context.Context, path models.DocPath) (snapshots <-chan models.Snapshot, cancel func(), err error)
}

// AuthService validates and issues bearer tokens. Accounts are managed
// elsewhere; a token's subject is the user id.
type AuthService interface {
	CreateToken(ctx context.Context, userID int64) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

// HealthService reports whether the server can serve document requests.
type HealthService interface {
	Check(ctx context.Context) error
}
