package validators

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/MKhiriev/go-habit-tracker/models"
)

const (
	// FieldPath validates a path addressing a collection or a document.
	FieldPath = "path"
	// FieldDocumentPath validates a path that must address a document.
	FieldDocumentPath = "document_path"
	// FieldDocument validates the data of a whole-document write.
	FieldDocument = "document"
	// FieldPatch validates the data of a partial update.
	FieldPatch = "patch"
)

const (
	MaxIDLength        = 128
	MaxFieldNameLength = 128
	MaxBatchWrites     = 500
)

type DocumentValidator struct {
}

func NewDocumentValidator() Validator {
	return &DocumentValidator{}
}

// Validate checks paths, documents, patches and batches. For a
// map[string]any the field selects the rule: [FieldDocument] (default)
// rejects increments, [FieldPatch] allows them. For a path, [FieldDocumentPath]
// requires a document id.
func (v *DocumentValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.DocPath:
		return v.validatePath(value, has(fields, FieldDocumentPath))
	case *models.DocPath:
		return v.validatePath(*value, has(fields, FieldDocumentPath))

	case models.Patch:
		return v.validatePatch(value)
	case map[string]any:
		if has(fields, FieldPatch) {
			return v.validatePatch(models.ParsePatch(value))
		}
		return v.validateDocument(value)

	case []models.BatchWrite:
		return v.validateBatch(value)
	}

	return fmt.Errorf("%w: %T", ErrUnsupportedType, obj)
}

func (v *DocumentValidator) validatePath(path models.DocPath, requireID bool) error {
	if path.UserID <= 0 {
		return ErrInvalidUserID
	}
	if !path.Collection.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, path.Collection)
	}
	if path.DocID == "" {
		if requireID && path.Collection != models.CollectionUser {
			return fmt.Errorf("%w: empty", ErrInvalidDocumentID)
		}
		return nil
	}
	if len(path.DocID) > MaxIDLength || strings.ContainsAny(path.DocID, "/?#") {
		return fmt.Errorf("%w: %q", ErrInvalidDocumentID, path.DocID)
	}
	return nil
}

func (v *DocumentValidator) validateDocument(data map[string]any) error {
	for name, value := range data {
		if err := ValidateFieldName(name); err != nil {
			return err
		}
		if _, ok := models.AsIncrement(value); ok {
			return fmt.Errorf("%w: field %q", ErrIncrementInSet, name)
		}
	}
	return nil
}

func (v *DocumentValidator) validatePatch(patch models.Patch) error {
	if len(patch) == 0 {
		return ErrNoFieldsToUpdate
	}
	for name, value := range patch {
		if err := ValidateFieldName(name); err != nil {
			return err
		}
		if inc, ok := models.AsIncrement(value); ok {
			if math.IsNaN(inc.Delta) || math.IsInf(inc.Delta, 0) {
				return fmt.Errorf("%w: field %q", ErrInvalidIncrement, name)
			}
		}
	}
	return nil
}

func (v *DocumentValidator) validateBatch(writes []models.BatchWrite) error {
	if len(writes) == 0 {
		return ErrEmptyBatch
	}
	if len(writes) > MaxBatchWrites {
		return fmt.Errorf("%w: %d writes, at most %d", ErrBatchTooLarge, len(writes), MaxBatchWrites)
	}

	for i, write := range writes {
		// the owner is filled in by the caller; any positive id passes here
		path := models.NewDocPath(1, write.Collection, write.DocID)
		if err := v.validatePath(path, true); err != nil {
			return fmt.Errorf("write %d: %w", i, err)
		}

		var err error
		switch write.Kind {
		case models.WriteSet:
			err = v.validateDocument(write.Data)
		case models.WriteUpdate:
			err = v.validatePatch(models.ParsePatch(write.Data))
		case models.WriteDelete:
		default:
			err = fmt.Errorf("%w: %q", ErrInvalidWriteKind, write.Kind)
		}
		if err != nil {
			return fmt.Errorf("write %d: %w", i, err)
		}
	}
	return nil
}

// ValidateFieldName rejects names the document store cannot address: empty,
// too long, dotted, or starting with '$'.
func ValidateFieldName(name string) error {
	if name == "" || len(name) > MaxFieldNameLength || strings.Contains(name, ".") || strings.HasPrefix(name, "$") {
		return fmt.Errorf("%w: %q", ErrInvalidFieldName, name)
	}
	return nil
}

func has(fields []string, want string) bool {
	for _, f := range fields {
		if f == want {
			return true
		}
	}
	return false
}
