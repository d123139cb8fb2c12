package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/utils"
	"github.com/MKhiriev/go-habit-tracker/models"
)

type documentRepository struct {
	*DB
	logger *logger.Logger
}

// NewDocumentRepository returns the PostgreSQL [DocumentRepository].
func NewDocumentRepository(db *DB, logger *logger.Logger) DocumentRepository {
	return &documentRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *documentRepository) Get(ctx context.Context, path models.DocPath) (models.Document, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildGetDocumentQuery(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var doc models.Document
	err = r.withRetry(ctx, func(ctx context.Context) error {
		var scanErr error
		doc, scanErr = scanDocument(r.DB.QueryRowContext(ctx, query, args...))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, ErrDocumentNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "documentRepository.Get").Str("path", path.String()).Msg("error getting document")
		return models.Document{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return doc, nil
}

func (r *documentRepository) List(ctx context.Context, path models.DocPath) ([]models.Document, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListDocumentsQuery(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var docs []models.Document
	err = r.withRetry(ctx, func(ctx context.Context) error {
		rows, err := r.DB.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
		defer rows.Close()

		docs = make([]models.Document, 0)
		for rows.Next() {
			doc, err := scanDocument(rows)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrScanningRows, err)
			}
			docs = append(docs, doc)
		}
		return rows.Err()
	})
	if err != nil {
		log.Err(err).Str("func", "documentRepository.List").Str("path", path.String()).Msg("error listing documents")
		return nil, err
	}

	return docs, nil
}

func (r *documentRepository) Set(ctx context.Context, path models.DocPath, data map[string]any, opts models.SetOptions) error {
	log := logger.FromContext(ctx)

	err := r.withRetry(ctx, func(ctx context.Context) error {
		return setDocument(ctx, r.DB, path, data, opts.Merge)
	})
	if err != nil {
		log.Err(err).Str("func", "documentRepository.Set").Str("path", path.String()).Bool("merge", opts.Merge).Msg("error saving document")
		return err
	}

	return nil
}

func (r *documentRepository) Update(ctx context.Context, path models.DocPath, patch models.Patch) error {
	log := logger.FromContext(ctx)

	err := r.withRetry(ctx, func(ctx context.Context) error {
		if opID, ok := utils.GetOperationIDFromContext(ctx); ok {
			return r.updateOnce(ctx, path, patch, opID)
		}
		return updateDocument(ctx, r.DB, path, patch)
	})
	if err != nil && !errors.Is(err, ErrDocumentNotFound) {
		log.Err(err).Str("func", "documentRepository.Update").Str("path", path.String()).Msg("error updating document")
	}

	return err
}

// updateOnce records opID and applies the patch in one transaction. A key
// that is already recorded means an earlier attempt committed, so the patch
// is skipped.
func (r *documentRepository) updateOnce(ctx context.Context, path models.DocPath, patch models.Patch, opID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	query, args, err := buildClaimOperationQuery(path.UserID, opID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	claimed, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if claimed == 0 {
		logger.FromContext(ctx).Debug().
			Str("op_id", opID).
			Str("path", path.String()).
			Msg("operation already applied, skipping")
		return nil
	}

	if err = updateDocument(ctx, tx, path, patch); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return nil
}

func (r *documentRepository) Delete(ctx context.Context, path models.DocPath) error {
	log := logger.FromContext(ctx)

	err := r.withRetry(ctx, func(ctx context.Context) error {
		return deleteDocument(ctx, r.DB, path)
	})
	if err != nil {
		log.Err(err).Str("func", "documentRepository.Delete").Str("path", path.String()).Msg("error deleting document")
		return err
	}

	return nil
}

func (r *documentRepository) BatchWrite(ctx context.Context, userID int64, writes []models.BatchWrite) error {
	log := logger.FromContext(ctx)

	err := r.withRetry(ctx, func(ctx context.Context) error {
		tx, err := r.DB.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
		}
		defer tx.Rollback()

		for _, write := range writes {
			path := models.NewDocPath(userID, write.Collection, write.DocID)
			switch write.Kind {
			case models.WriteSet:
				err = setDocument(ctx, tx, path, write.Data, write.Merge)
			case models.WriteUpdate:
				err = updateDocument(ctx, tx, path, models.ParsePatch(write.Data))
			case models.WriteDelete:
				err = deleteDocument(ctx, tx, path)
			default:
				err = fmt.Errorf("%w: unknown write kind %q", ErrInvalidDocument, write.Kind)
			}
			if err != nil {
				return err
			}
		}

		if err = tx.Commit(); err != nil {
			return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
		}
		return nil
	})
	if err != nil {
		log.Err(err).Str("func", "documentRepository.BatchWrite").Int64("user_id", userID).Int("writes", len(writes)).Msg("error applying batch")
		return err
	}

	return nil
}

func setDocument(ctx context.Context, exec sqlExecutor, path models.DocPath, data map[string]any, merge bool) error {
	query, args, err := buildSetDocumentQuery(path, data, merge)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err = exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func updateDocument(ctx context.Context, exec sqlExecutor, path models.DocPath, patch models.Patch) error {
	query, args, err := buildUpdateDocumentQuery(path, patch)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func deleteDocument(ctx context.Context, exec sqlExecutor, path models.DocPath) error {
	query, args, err := buildDeleteDocumentQuery(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err = exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (models.Document, error) {
	var (
		doc  models.Document
		raw  []byte
		when time.Time
	)
	if err := row.Scan(&doc.ID, &raw, &doc.Version, &when); err != nil {
		return models.Document{}, err
	}
	if err := json.Unmarshal(raw, &doc.Data); err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	doc.UpdatedAt = when.UTC()
	return doc, nil
}
