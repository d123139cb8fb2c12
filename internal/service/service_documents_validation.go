package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-habit-tracker/internal/validators"
	"github.com/MKhiriev/go-habit-tracker/models"
)

// DocumentServiceWrapper defines middleware composition for DocumentService.
// Implementations wrap an existing DocumentService to add behavior such as
// validating.
type DocumentServiceWrapper interface {
	Wrap(DocumentService) DocumentService
}

// DocumentValidationService rejects malformed paths, documents and batches
// before they reach the inner service.
type DocumentValidationService struct {
	inner     DocumentService
	validator validators.Validator
}

func NewDocumentValidationService() DocumentServiceWrapper {
	return &DocumentValidationService{
		validator: validators.NewDocumentValidator(),
	}
}

func (v *DocumentValidationService) Get(ctx context.Context, path models.DocPath) (models.Document, error) {
	if err := v.validator.Validate(ctx, path, validators.FieldDocumentPath); err != nil {
		return models.Document{}, fmt.Errorf("error validating document path: %w", err)
	}

	return v.inner.Get(ctx, path)
}

func (v *DocumentValidationService) List(ctx context.Context, path models.DocPath) ([]models.Document, error) {
	if err := v.validator.Validate(ctx, path, validators.FieldPath); err != nil {
		return nil, fmt.Errorf("error validating collection path: %w", err)
	}

	return v.inner.List(ctx, path)
}

func (v *DocumentValidationService) Set(ctx context.Context, path models.DocPath, data map[string]any, opts models.SetOptions) error {
	if err := v.validator.Validate(ctx, path, validators.FieldDocumentPath); err != nil {
		return fmt.Errorf("error validating document path: %w", err)
	}
	if err := v.validator.Validate(ctx, data, validators.FieldDocument); err != nil {
		return fmt.Errorf("error validating document before saving: %w", err)
	}

	return v.inner.Set(ctx, path, models.Sanitize(data), opts)
}

func (v *DocumentValidationService) Update(ctx context.Context, path models.DocPath, patch models.Patch) error {
	if err := v.validator.Validate(ctx, path, validators.FieldDocumentPath); err != nil {
		return fmt.Errorf("error validating document path: %w", err)
	}
	if err := v.validator.Validate(ctx, patch, validators.FieldPatch); err != nil {
		return fmt.Errorf("error validating patch: %w", err)
	}

	return v.inner.Update(ctx, path, patch)
}

func (v *DocumentValidationService) Delete(ctx context.Context, path models.DocPath) error {
	if err := v.validator.Validate(ctx, path, validators.FieldDocumentPath); err != nil {
		return fmt.Errorf("error validating document path: %w", err)
	}

	return v.inner.Delete(ctx, path)
}

func (v *DocumentValidationService) BatchWrite(ctx context.Context, userID int64, writes []models.BatchWrite) error {
	if userID <= 0 {
		return ErrNoUserID
	}
	if err := v.validator.Validate(ctx, writes); err != nil {
		return fmt.Errorf("error validating batch: %w", err)
	}

	return v.inner.BatchWrite(ctx, userID, writes)
}

func (v *DocumentValidationService) Subscribe(ctx context.Context, path models.DocPath) (<-chan models.Snapshot, func(), error) {
	if err := v.validator.Validate(ctx, path, validators.FieldPath); err != nil {
		return nil, nil, fmt.Errorf("error validating collection path: %w", err)
	}

	return v.inner.Subscribe(ctx, path)
}

func (v *DocumentValidationService) Wrap(service DocumentService) DocumentService {
	v.inner = service
	return v
}
