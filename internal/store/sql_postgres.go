// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/MKhiriev/go-habit-tracker/internal/config"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
)

const (
	pgMaxOpenConns    = 10
	pgMaxIdleConns    = 4
	pgConnMaxIdleTime = 5 * time.Minute
)

// NewConnectPostgres opens the document database through the pgx stdlib
// driver and pings it once.
func NewConnectPostgres(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	connCfg, err := pgx.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	conn := stdlib.OpenDB(*connCfg)
	conn.SetMaxOpenConns(pgMaxOpenConns)
	conn.SetMaxIdleConns(pgMaxIdleConns)
	conn.SetConnMaxIdleTime(pgConnMaxIdleTime)

	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping postgres at %s:%d: %w", connCfg.Host, connCfg.Port, err)
	}

	log.Info().
		Str("host", connCfg.Host).
		Str("database", connCfg.Database).
		Msg("connected to postgres")

	return &DB{
		DB:                 conn,
		logger:             log,
		errorClassificator: NewPostgresErrorClassifier(),
	}, nil
}
