package store

import (
	"encoding/json"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-habit-tracker/models"
)

const (
	documentsTable         = "documents"
	appliedOperationsTable = "applied_operations"
)

const (
	upsertReplaceSuffix = `ON CONFLICT (user_id, collection, doc_id) DO UPDATE SET
		data = EXCLUDED.data,
		version = documents.version + 1,
		updated_at = now()`

	upsertMergeSuffix = `ON CONFLICT (user_id, collection, doc_id) DO UPDATE SET
		data = documents.data || EXCLUDED.data,
		version = documents.version + 1,
		updated_at = now()`

	// incrementExpr adds a delta to a numeric field inside the jsonb column.
	// A missing or non-numeric field counts as zero, so the cast never sees
	// a string or a boolean.
	incrementExpr = `jsonb_set(?, ARRAY[?]::text[], to_jsonb(CASE jsonb_typeof(data->?) WHEN 'number' THEN (data->>?)::numeric ELSE 0 END + ?::numeric), true)`
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func whereDocument(path models.DocPath) sq.And {
	return sq.And{
		sq.Eq{"user_id": path.UserID},
		sq.Eq{"collection": string(path.Collection)},
		sq.Eq{"doc_id": path.DocID},
	}
}

func buildGetDocumentQuery(path models.DocPath) (string, []any, error) {
	return psql.
		Select("doc_id", "data", "version", "updated_at").
		From(documentsTable).
		Where(whereDocument(path)).
		ToSql()
}

func buildListDocumentsQuery(path models.DocPath) (string, []any, error) {
	return psql.
		Select("doc_id", "data", "version", "updated_at").
		From(documentsTable).
		Where(sq.Eq{"user_id": path.UserID}).
		Where(sq.Eq{"collection": string(path.Collection)}).
		OrderBy("created_at", "doc_id").
		ToSql()
}

func buildSetDocumentQuery(path models.DocPath, data map[string]any, merge bool) (string, []any, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	suffix := upsertReplaceSuffix
	if merge {
		suffix = upsertMergeSuffix
	}

	return psql.
		Insert(documentsTable).
		Columns("user_id", "collection", "doc_id", "data").
		Values(path.UserID, string(path.Collection), path.DocID, sq.Expr("?::jsonb", string(encoded))).
		Suffix(suffix).
		ToSql()
}

// buildUpdateDocumentQuery builds a single UPDATE that merges plain fields
// into data and applies every increment relative to the stored value.
func buildUpdateDocumentQuery(path models.DocPath, patch models.Patch) (string, []any, error) {
	plain, increments := patch.Split()

	var data sq.Sqlizer = sq.Expr("data")
	if len(plain) > 0 {
		encoded, err := json.Marshal(plain)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		data = sq.Expr("data || ?::jsonb", string(encoded))
	}

	fields := make([]string, 0, len(increments))
	for field := range increments {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	for _, field := range fields {
		data = sq.Expr(incrementExpr, data, field, field, field, increments[field])
	}

	return psql.
		Update(documentsTable).
		Set("data", data).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", sq.Expr("now()")).
		Where(whereDocument(path)).
		ToSql()
}

func buildDeleteDocumentQuery(path models.DocPath) (string, []any, error) {
	return psql.
		Delete(documentsTable).
		Where(whereDocument(path)).
		ToSql()
}

// buildClaimOperationQuery inserts the idempotency key of a write. It affects
// no rows when the key was recorded before.
func buildClaimOperationQuery(userID int64, opID string) (string, []any, error) {
	return psql.
		Insert(appliedOperationsTable).
		Columns("user_id", "op_id").
		Values(userID, opID).
		Suffix("ON CONFLICT (user_id, op_id) DO NOTHING").
		ToSql()
}
