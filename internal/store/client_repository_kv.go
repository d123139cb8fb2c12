package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-habit-tracker/internal/logger"
)

type sqliteLocalStorage struct {
	*DB
	logger *logger.Logger
}

// NewSQLiteLocalStorage returns a [LocalStorage] backed by the kv table.
func NewSQLiteLocalStorage(db *DB, logger *logger.Logger) LocalStorage {
	return &sqliteLocalStorage{
		DB:     db,
		logger: logger,
	}
}

func (s *sqliteLocalStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, getItem, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		s.logger.Err(err).
			Str("func", "sqliteLocalStorage.GetItem").
			Str("key", key).
			Msg("failed to read item")
		return "", false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return value, true, nil
}

func (s *sqliteLocalStorage) SetItem(ctx context.Context, key, value string) error {
	if _, err := s.DB.ExecContext(ctx, setItem, key, value); err != nil {
		s.logger.Err(err).
			Str("func", "sqliteLocalStorage.SetItem").
			Str("key", key).
			Int("size", len(value)).
			Msg("failed to write item")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (s *sqliteLocalStorage) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.DB.ExecContext(ctx, removeItem, key); err != nil {
		s.logger.Err(err).
			Str("func", "sqliteLocalStorage.RemoveItem").
			Str("key", key).
			Msg("failed to remove item")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
