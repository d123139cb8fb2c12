package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-habit-tracker/models"
)

func TestBuildUpdateDocumentQuery(t *testing.T) {
	path := models.NewDocPath(3, models.CollectionUser, "")

	t.Run("plain fields and increments in one statement", func(t *testing.T) {
		patch := models.Patch{
			"name":   "Ann",
			"streak": models.Increment{Delta: 1},
			"score":  models.Increment{Delta: -2.5},
		}

		query, args, err := buildUpdateDocumentQuery(path, patch)
		require.NoError(t, err)

		// increments are nested in field order: score first, streak outermost
		assert.Equal(t,
			"UPDATE documents SET data = "+
				"jsonb_set(jsonb_set(data || $1::jsonb, ARRAY[$2]::text[], "+
				"to_jsonb(CASE jsonb_typeof(data->$3) WHEN 'number' THEN (data->>$4)::numeric ELSE 0 END + $5::numeric), true), "+
				"ARRAY[$6]::text[], "+
				"to_jsonb(CASE jsonb_typeof(data->$7) WHEN 'number' THEN (data->>$8)::numeric ELSE 0 END + $9::numeric), true), "+
				"version = version + 1, updated_at = now() "+
				"WHERE (user_id = $10 AND collection = $11 AND doc_id = $12)",
			query)
		assert.Equal(t, []any{
			`{"name":"Ann"}`,
			"score", "score", "score", -2.5,
			"streak", "streak", "streak", float64(1),
			int64(3), "user", "3",
		}, args)
	})

	t.Run("empty patch only bumps version", func(t *testing.T) {
		query, _, err := buildUpdateDocumentQuery(path, models.Patch{})
		require.NoError(t, err)
		assert.Contains(t, query, "SET data = data, version = version + 1")
	})

	t.Run("unencodable value", func(t *testing.T) {
		_, _, err := buildUpdateDocumentQuery(path, models.Patch{"bad": math.NaN()})
		require.ErrorIs(t, err, ErrInvalidDocument)
	})
}

func TestBuildSetDocumentQuery(t *testing.T) {
	path := models.NewDocPath(3, models.CollectionTasks, "t1")

	query, args, err := buildSetDocumentQuery(path, map[string]any{"title": "Run"}, true)
	require.NoError(t, err)
	assert.Contains(t, query, "INSERT INTO documents (user_id,collection,doc_id,data) VALUES ($1,$2,$3,$4::jsonb)")
	assert.Contains(t, query, "data = documents.data || EXCLUDED.data")
	assert.Equal(t, []any{int64(3), "tasks", "t1", `{"title":"Run"}`}, args)
}

func TestBuildClaimOperationQuery(t *testing.T) {
	query, args, err := buildClaimOperationQuery(7, "op-1")
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO applied_operations (user_id,op_id) VALUES ($1,$2) ON CONFLICT (user_id, op_id) DO NOTHING",
		query)
	assert.Equal(t, []any{int64(7), "op-1"}, args)
}
