package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-habit-tracker/internal/app"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/utils"
	"github.com/MKhiriev/go-habit-tracker/models"
	"github.com/go-chi/chi/v5"
)

const (
	maxDocumentBodyBytes = 1 << 20
	maxBatchBodyBytes    = 8 << 20
	maxIdempotencyKeyLen = 128
)

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	path, ok := collectionPathFromRequest(w, r)
	if !ok {
		return
	}

	docs, err := h.services.DocumentService.List(ctx, path)
	if err != nil {
		log.Err(err).Str("func", "*Handler.list").Str("path", path.String()).Msg("error listing documents")
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}

	utils.WriteJSON(w, models.ListResponse{Documents: docs, Length: len(docs)}, http.StatusOK)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	path, ok := docPathFromRequest(w, r)
	if !ok {
		return
	}

	doc, err := h.services.DocumentService.Get(ctx, path)
	if err != nil {
		log.Err(err).Str("func", "*Handler.get").Str("path", path.String()).Msg("error getting document")
		writeError(w, err)
		return
	}

	utils.WriteJSON(w, doc, http.StatusOK)
}

func (h *Handler) set(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	path, ok := docPathFromRequest(w, r)
	if !ok {
		return
	}

	var opts models.SetOptions
	if raw := r.URL.Query().Get("merge"); raw != "" {
		merge, err := strconv.ParseBool(raw)
		if err != nil {
			log.Err(err).Str("func", "*Handler.set").Msg("invalid merge flag")
			http.Error(w, app.MsgInvalidMergeFlag, http.StatusBadRequest)
			return
		}
		opts.Merge = merge
	}

	var data map[string]any
	if !decodeBody(w, r, &data, maxDocumentBodyBytes, "*Handler.set") {
		return
	}

	if err := h.services.DocumentService.Set(ctx, path, data, opts); err != nil {
		log.Err(err).Str("func", "*Handler.set").Str("path", path.String()).Msg("error setting document")
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	path, ok := docPathFromRequest(w, r)
	if !ok {
		return
	}

	if key := r.Header.Get(utils.IdempotencyKeyHeader); key != "" {
		if len(key) > maxIdempotencyKeyLen {
			log.Error().Str("func", "*Handler.update").Int("length", len(key)).Msg("idempotency key too long")
			writeError(w, ErrInvalidIdempotencyKey)
			return
		}
		ctx = utils.WithOperationID(ctx, key)
	}

	var raw map[string]any
	if !decodeBody(w, r, &raw, maxDocumentBodyBytes, "*Handler.update") {
		return
	}

	if err := h.services.DocumentService.Update(ctx, path, models.ParsePatch(raw)); err != nil {
		log.Err(err).Str("func", "*Handler.update").Str("path", path.String()).Msg("error updating document")
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	path, ok := docPathFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.services.DocumentService.Delete(ctx, path); err != nil {
		log.Err(err).Str("func", "*Handler.delete").Str("path", path.String()).Msg("error deleting document")
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) batchWrite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.batchWrite").Msg(app.MsgNoUserIDProvided)
		http.Error(w, app.MsgNoUserIDProvided, http.StatusUnauthorized)
		return
	}

	var request models.BatchRequest
	if !decodeBody(w, r, &request, maxBatchBodyBytes, "*Handler.batchWrite") {
		return
	}
	if request.Length != 0 && request.Length != len(request.Writes) {
		log.Error().Str("func", "*Handler.batchWrite").
			Int("length", request.Length).
			Int("writes", len(request.Writes)).
			Msg("batch length mismatch")
		http.Error(w, app.MsgBatchLengthMismatch, http.StatusBadRequest)
		return
	}

	if err := h.services.DocumentService.BatchWrite(ctx, userID, request.Writes); err != nil {
		log.Err(err).Str("func", "*Handler.batchWrite").Int("writes", len(request.Writes)).Msg("error applying batch")
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// collectionPathFromRequest builds the owner-scoped collection path of the
// request. It writes 401 when the request carries no user.
func collectionPathFromRequest(w http.ResponseWriter, r *http.Request) (models.DocPath, bool) {
	userID, found := utils.GetUserIDFromContext(r.Context())
	if !found {
		logger.FromRequest(r).Error().Msg(app.MsgNoUserIDProvided)
		http.Error(w, app.MsgNoUserIDProvided, http.StatusUnauthorized)
		return models.DocPath{}, false
	}

	return models.NewCollectionPath(userID, models.Collection(chi.URLParam(r, "collection"))), true
}

func docPathFromRequest(w http.ResponseWriter, r *http.Request) (models.DocPath, bool) {
	path, ok := collectionPathFromRequest(w, r)
	if !ok {
		return path, false
	}

	path.DocID = chi.URLParam(r, "id")
	return path, true
}

// decodeBody reads the JSON body into v and answers 400 or 413 itself when
// it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, limit int64, fn string) bool {
	err := utils.ReadJSON(w, r, v, limit)
	if err == nil {
		return true
	}

	log := logger.FromRequest(r)
	if errors.Is(err, utils.ErrBodyTooLarge) {
		log.Err(err).Str("func", fn).Msg(app.MsgBodyTooLarge)
		http.Error(w, app.MsgBodyTooLarge, http.StatusRequestEntityTooLarge)
		return false
	}

	log.Err(err).Str("func", fn).Msg(app.MsgInvalidJSON)
	http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
	return false
}
