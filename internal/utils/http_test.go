package utils

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		status   int
		wantBody string
	}{
		{name: "object", data: map[string]string{"status": "ok"}, status: http.StatusOK, wantBody: `{"status":"ok"}`},
		{name: "empty list", data: []int{}, status: http.StatusOK, wantBody: `[]`},
		{name: "custom status", data: map[string]int{"length": 0}, status: http.StatusAccepted, wantBody: `{"length":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			n, err := WriteJSON(w, tt.data, tt.status)
			require.NoError(t, err)
			assert.Equal(t, len(tt.wantBody), n)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestWriteJSON_Unencodable(t *testing.T) {
	w := httptest.NewRecorder()

	_, err := WriteJSON(w, map[string]float64{"score": math.Inf(1)}, http.StatusOK)
	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestReadJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		limit   int64
		wantErr error
		wantAny bool
	}{
		{name: "valid", body: `{"title":"Run"}`, limit: 1024},
		{name: "malformed", body: `{"title":`, limit: 1024, wantAny: true},
		{name: "too large", body: `{"title":"` + strings.Repeat("a", 64) + `"}`, limit: 16, wantErr: ErrBodyTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var got map[string]any
			err := ReadJSON(w, r, &got, tt.limit)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAny:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrBodyTooLarge)
			default:
				require.NoError(t, err)
				assert.Equal(t, "Run", got["title"])
			}
		})
	}
}
