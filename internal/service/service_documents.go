package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/store"
	"github.com/MKhiriev/go-habit-tracker/models"
)

type documentService struct {
	repo store.DocumentRepository
	hub  *changeHub

	logger *logger.Logger
}

// NewDocumentService builds the document service over repo. Wrappers are
// applied in order, the first one being the outermost.
func NewDocumentService(repo store.DocumentRepository, logger *logger.Logger, wrappers ...DocumentServiceWrapper) DocumentService {
	var svc DocumentService = &documentService{
		repo:   repo,
		hub:    newChangeHub(),
		logger: logger,
	}

	for i := len(wrappers) - 1; i >= 0; i-- {
		svc = wrappers[i].Wrap(svc)
	}

	return svc
}

func (s *documentService) Get(ctx context.Context, path models.DocPath) (models.Document, error) {
	doc, err := s.repo.Get(ctx, path)
	if err != nil {
		return models.Document{}, mapStoreError(err)
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, path models.DocPath) ([]models.Document, error) {
	docs, err := s.repo.List(ctx, models.NewCollectionPath(path.UserID, path.Collection))
	if err != nil {
		return nil, mapStoreError(err)
	}
	return docs, nil
}

func (s *documentService) Set(ctx context.Context, path models.DocPath, data map[string]any, opts models.SetOptions) error {
	if err := s.repo.Set(ctx, path, data, opts); err != nil {
		return mapStoreError(err)
	}

	s.notify(ctx, path.UserID, path.Collection)
	return nil
}

func (s *documentService) Update(ctx context.Context, path models.DocPath, patch models.Patch) error {
	if err := s.repo.Update(ctx, path, patch); err != nil {
		return mapStoreError(err)
	}

	s.notify(ctx, path.UserID, path.Collection)
	return nil
}

func (s *documentService) Delete(ctx context.Context, path models.DocPath) error {
	if err := s.repo.Delete(ctx, path); err != nil {
		return mapStoreError(err)
	}

	s.notify(ctx, path.UserID, path.Collection)
	return nil
}

func (s *documentService) BatchWrite(ctx context.Context, userID int64, writes []models.BatchWrite) error {
	if err := s.repo.BatchWrite(ctx, userID, writes); err != nil {
		return mapStoreError(err)
	}

	touched := make(map[models.Collection]struct{}, len(models.Collections))
	for _, w := range writes {
		if _, seen := touched[w.Collection]; seen {
			continue
		}
		touched[w.Collection] = struct{}{}
		s.notify(ctx, userID, w.Collection)
	}
	return nil
}

func (s *documentService) Subscribe(ctx context.Context, path models.DocPath) (<-chan models.Snapshot, func(), error) {
	snapshots, cancel := s.hub.subscribe(path.UserID, path.Collection)

	if err := s.publishSnapshot(ctx, path.UserID, path.Collection); err != nil {
		cancel()
		return nil, nil, err
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return snapshots, cancel, nil
}

// notify publishes a fresh snapshot to the subscribers of the collection. A
// write that succeeded is not failed because the snapshot could not be built;
// subscribers catch up on the next change.
func (s *documentService) notify(ctx context.Context, userID int64, collection models.Collection) {
	if !s.hub.hasSubscribers(userID, collection) {
		return
	}

	if err := s.publishSnapshot(context.WithoutCancel(ctx), userID, collection); err != nil {
		logger.FromContext(ctx).Warn().Err(err).
			Int64("user_id", userID).
			Str("collection", collection.String()).
			Msg("failed to publish snapshot")
	}
}

func (s *documentService) publishSnapshot(ctx context.Context, userID int64, collection models.Collection) error {
	mu := s.hub.buildLock(userID, collection)
	mu.Lock()
	defer mu.Unlock()

	docs, err := s.repo.List(ctx, models.NewCollectionPath(userID, collection))
	if err != nil {
		return mapStoreError(err)
	}

	s.hub.publish(userID, models.Snapshot{Collection: collection, Documents: docs})
	return nil
}

func mapStoreError(err error) error {
	if errors.Is(err, store.ErrDocumentNotFound) {
		return fmt.Errorf("%w: %w", ErrDocumentNotFound, err)
	}
	return err
}
