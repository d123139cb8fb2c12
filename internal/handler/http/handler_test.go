package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-habit-tracker/internal/config"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/mock"
	"github.com/MKhiriev/go-habit-tracker/internal/service"
	"github.com/MKhiriev/go-habit-tracker/models"
)

const (
	testUserID int64 = 42
	testToken        = "valid-token"
)

type testHandler struct {
	handler *Handler
	router  http.Handler
	docs    *mock.MockDocumentService
	auth    *mock.MockAuthService
}

func newTestHandler(t *testing.T) *testHandler {
	t.Helper()
	ctrl := gomock.NewController(t)
	docs := mock.NewMockDocumentService(ctrl)
	auth := mock.NewMockAuthService(ctrl)

	h := NewHandler(
		&service.Services{AuthService: auth, DocumentService: docs},
		config.Server{RequestTimeout: 5 * time.Second},
		logger.Nop(),
	)

	return &testHandler{handler: h, router: h.Init(), docs: docs, auth: auth}
}

// authorized lets testToken through the auth middleware as testUserID.
func (th *testHandler) authorized() {
	th.auth.EXPECT().ParseToken(gomock.Any(), testToken).
		Return(models.Token{UserID: testUserID}, nil).
		AnyTimes()
}

func (th *testHandler) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		buf := &bytes.Buffer{}
		require.NoError(t, json.NewEncoder(buf).Encode(b))
		reader = buf
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	th.router.ServeHTTP(rr, req)
	return rr
}
