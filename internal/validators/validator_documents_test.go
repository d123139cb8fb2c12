package validators

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-habit-tracker/models"
)

func TestDocumentValidator_Path(t *testing.T) {
	v := NewDocumentValidator()
	ctx := context.Background()

	tests := []struct {
		name    string
		path    models.DocPath
		fields  []string
		wantErr error
	}{
		{name: "document", path: models.NewDocPath(1, models.CollectionTasks, "t1"), fields: []string{FieldDocumentPath}},
		{name: "collection", path: models.NewCollectionPath(1, models.CollectionGoals)},
		{name: "profile", path: models.NewDocPath(1, models.CollectionUser, ""), fields: []string{FieldDocumentPath}},
		{name: "no user", path: models.NewDocPath(0, models.CollectionTasks, "t1"), wantErr: ErrInvalidUserID},
		{name: "unknown collection", path: models.DocPath{UserID: 1, Collection: "notes"}, wantErr: ErrInvalidCollection},
		{name: "missing id", path: models.NewCollectionPath(1, models.CollectionTasks), fields: []string{FieldDocumentPath}, wantErr: ErrInvalidDocumentID},
		{name: "slash in id", path: models.NewDocPath(1, models.CollectionTasks, "a/b"), wantErr: ErrInvalidDocumentID},
		{name: "long id", path: models.NewDocPath(1, models.CollectionTasks, strings.Repeat("x", MaxIDLength+1)), wantErr: ErrInvalidDocumentID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(ctx, tt.path, tt.fields...)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDocumentValidator_DocumentAndPatch(t *testing.T) {
	v := NewDocumentValidator()
	ctx := context.Background()

	require.NoError(t, v.Validate(ctx, map[string]any{"title": "Run", "done": false}))
	assert.ErrorIs(t, v.Validate(ctx, map[string]any{"score": map[string]any{"$increment": 1.0}}), ErrIncrementInSet)
	assert.ErrorIs(t, v.Validate(ctx, map[string]any{"a.b": 1}), ErrInvalidFieldName)
	assert.ErrorIs(t, v.Validate(ctx, map[string]any{"$set": 1}), ErrInvalidFieldName)

	require.NoError(t, v.Validate(ctx, map[string]any{"score": map[string]any{"$increment": 1.0}}, FieldPatch))
	require.NoError(t, v.Validate(ctx, models.IncrementPatch("score", -3)))
	assert.ErrorIs(t, v.Validate(ctx, models.Patch{}), ErrNoFieldsToUpdate)
	assert.ErrorIs(t, v.Validate(ctx, models.IncrementPatch("score", math.Inf(1))), ErrInvalidIncrement)
}

func TestDocumentValidator_Batch(t *testing.T) {
	v := NewDocumentValidator()
	ctx := context.Background()

	valid := []models.BatchWrite{
		{Kind: models.WriteSet, Collection: models.CollectionTasks, DocID: "t1", Data: map[string]any{"title": "Run"}},
		{Kind: models.WriteUpdate, Collection: models.CollectionUser, Data: map[string]any{"score": map[string]any{"$increment": 2.0}}},
		{Kind: models.WriteDelete, Collection: models.CollectionGoals, DocID: "g1"},
	}
	require.NoError(t, v.Validate(ctx, valid))

	assert.ErrorIs(t, v.Validate(ctx, []models.BatchWrite{}), ErrEmptyBatch)
	assert.ErrorIs(t, v.Validate(ctx, make([]models.BatchWrite, MaxBatchWrites+1)), ErrBatchTooLarge)
	assert.ErrorIs(t, v.Validate(ctx, []models.BatchWrite{{Kind: "upsert", Collection: models.CollectionTasks, DocID: "t1"}}), ErrInvalidWriteKind)
	assert.ErrorIs(t, v.Validate(ctx, []models.BatchWrite{{Kind: models.WriteDelete, Collection: models.CollectionTasks}}), ErrInvalidDocumentID)
	assert.ErrorIs(t, v.Validate(ctx, []models.BatchWrite{{Kind: models.WriteSet, Collection: models.CollectionTasks, DocID: "t1", Data: map[string]any{"n": models.Increment{Delta: 1}}}}), ErrIncrementInSet)
}

func TestDocumentValidator_UnsupportedType(t *testing.T) {
	err := NewDocumentValidator().Validate(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestValidateFieldName(t *testing.T) {
	assert.NoError(t, ValidateFieldName("completed_at"))
	assert.Error(t, ValidateFieldName(""))
	assert.Error(t, ValidateFieldName(strings.Repeat("f", MaxFieldNameLength+1)))
}
