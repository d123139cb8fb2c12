package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	return entry
}

func TestNewLogger_StandardFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("habits-server")
	l.Logger = l.Output(&buf)

	l.Info().Msg("listening")

	entry := decodeEntry(t, buf.Bytes())
	assert.Equal(t, "habits-server", entry["role"])
	assert.Contains(t, entry, zerolog.TimestampFieldName)
	assert.Contains(t, entry, "func")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestNop_DiscardsOutput(t *testing.T) {
	l := Nop()
	require.NotNil(t, l)
	assert.Equal(t, zerolog.Disabled, l.GetLevel())
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	parent := &Logger{zerolog.New(&buf).With().Str("role", "habits-client").Logger()}

	child := parent.WithFields(map[string]any{"user_id": int64(7), "collection": "tasks"})
	assert.NotSame(t, parent, child)

	child.Info().Msg("drained")
	entry := decodeEntry(t, buf.Bytes())
	assert.Equal(t, "habits-client", entry["role"])
	assert.Equal(t, float64(7), entry["user_id"])
	assert.Equal(t, "tasks", entry["collection"])

	buf.Reset()
	parent.Info().Msg("parent")
	assert.NotContains(t, decodeEntry(t, buf.Bytes()), "user_id")
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).With().Str("trace_id", "t-1").Logger()

	FromContext(zl.WithContext(context.Background())).Info().Msg("from context")
	assert.Equal(t, "t-1", decodeEntry(t, buf.Bytes())["trace_id"])

	require.NotNil(t, FromContext(context.Background()))
}

func TestFromRequest(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).With().Str("trace_id", "t-2").Logger()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)

	require.NotNil(t, FromRequest(req))

	req = req.WithContext(zl.WithContext(req.Context()))
	FromRequest(req).Info().Msg("from request")
	assert.Equal(t, "t-2", decodeEntry(t, buf.Bytes())["trace_id"])
}

func TestNewClientLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "client.log")
	l := NewClientLogger("habits-client", FileOptions{Path: path, MaxSizeMB: 1})

	l.Info().Str("op_id", "op-1").Msg("queued")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	entry := decodeEntry(t, data)
	assert.Equal(t, "habits-client", entry["role"])
	assert.Equal(t, "op-1", entry["op_id"])
}
