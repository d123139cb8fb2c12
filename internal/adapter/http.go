package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-habit-tracker/internal/config"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/utils"
	"github.com/MKhiriev/go-habit-tracker/models"
	"github.com/go-resty/resty/v2"
)

const (
	collectionRoute = "/api/docs/{collection}"
	documentRoute   = "/api/docs/{collection}/{id}"
	batchRoute      = "/api/docs/batch"
	healthRoute     = "/api/health"
)

// HTTPDocumentAdapter implements [DocumentAdapter] and [Prober] over the
// document server's REST API.
type HTTPDocumentAdapter struct {
	client  *utils.HTTPClient
	baseURL string

	mu    sync.RWMutex
	token string

	// reconnect backoff of subscriptions
	minBackoff time.Duration
	maxBackoff time.Duration

	logger *logger.Logger
}

// NewHTTPDocumentAdapter constructs the HTTP/REST implementation of
// [DocumentAdapter]. It normalises and validates the base URL, configures the
// underlying resty client with the request timeout and stores the bearer
// token from appCfg.
//
// Returns an error if adapterCfg.BaseURL is empty or cannot be parsed.
func NewHTTPDocumentAdapter(adapterCfg config.ClientAdapter, appCfg config.ClientApp, log *logger.Logger) (*HTTPDocumentAdapter, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client := utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout)

	return &HTTPDocumentAdapter{
		client:     client,
		baseURL:    baseURL,
		token:      strings.TrimSpace(appCfg.Token),
		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
		logger:     log,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [DocumentAdapter].
func (h *HTTPDocumentAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [DocumentAdapter].
func (h *HTTPDocumentAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Get implements [DocumentAdapter].
func (h *HTTPDocumentAdapter) Get(ctx context.Context, path models.DocPath) (models.Document, error) {
	resp, err := h.documentRequest(ctx, path).Get(documentRoute)
	if err != nil {
		return models.Document{}, mapTransportError("get", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Document{}, err
	}

	var doc models.Document
	if err = json.Unmarshal(resp.Body(), &doc); err != nil {
		return models.Document{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// List implements [DocumentAdapter].
func (h *HTTPDocumentAdapter) List(ctx context.Context, path models.DocPath) ([]models.Document, error) {
	resp, err := h.authedRequest(ctx).
		SetPathParam("collection", path.Collection.String()).
		Get(collectionRoute)
	if err != nil {
		return nil, mapTransportError("list", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var list models.ListResponse
	if err = json.Unmarshal(resp.Body(), &list); err != nil {
		return nil, fmt.Errorf("decode document list: %w", err)
	}
	return list.Documents, nil
}

// Set implements [DocumentAdapter].
func (h *HTTPDocumentAdapter) Set(ctx context.Context, path models.DocPath, data map[string]any, opts models.SetOptions) error {
	resp, err := h.documentRequest(ctx, path).
		SetQueryParam("merge", strconv.FormatBool(opts.Merge)).
		SetHeader("Content-Type", "application/json").
		SetBody(data).
		Put(documentRoute)
	if err != nil {
		return mapTransportError("set", err)
	}

	return mapHTTPError(resp)
}

// Update implements [DocumentAdapter]. An operation id stored with
// [utils.WithOperationID] is sent as the idempotency key.
func (h *HTTPDocumentAdapter) Update(ctx context.Context, path models.DocPath, patch models.Patch) error {
	req := h.documentRequest(ctx, path).
		SetHeader("Content-Type", "application/json").
		SetBody(patch)
	if opID, ok := utils.GetOperationIDFromContext(ctx); ok {
		req.SetHeader(utils.IdempotencyKeyHeader, opID)
	}

	resp, err := req.Patch(documentRoute)
	if err != nil {
		return mapTransportError("update", err)
	}

	return mapHTTPError(resp)
}

// Delete implements [DocumentAdapter].
func (h *HTTPDocumentAdapter) Delete(ctx context.Context, path models.DocPath) error {
	resp, err := h.documentRequest(ctx, path).Delete(documentRoute)
	if err != nil {
		return mapTransportError("delete", err)
	}

	return mapHTTPError(resp)
}

// BatchWrite implements [DocumentAdapter].
func (h *HTTPDocumentAdapter) BatchWrite(ctx context.Context, writes []models.BatchWrite) error {
	req := models.BatchRequest{Writes: writes, Length: len(writes)}

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(batchRoute)
	if err != nil {
		return mapTransportError("batch", err)
	}

	return mapHTTPError(resp)
}

// Ping implements [Prober] using the unauthenticated health endpoint.
func (h *HTTPDocumentAdapter) Ping(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get(healthRoute)
	if err != nil {
		return mapTransportError("health", err)
	}

	return mapHTTPError(resp)
}

func (h *HTTPDocumentAdapter) documentRequest(ctx context.Context, path models.DocPath) *resty.Request {
	return h.authedRequest(ctx).SetPathParams(map[string]string{
		"collection": path.Collection.String(),
		"id":         path.DocID,
	})
}

func (h *HTTPDocumentAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetAuthToken(token)
	}
	return req
}
