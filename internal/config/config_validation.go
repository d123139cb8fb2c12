// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "strings"

// validate checks the server view of the merged configuration.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Server.HTTPAddress == "" || cfg.Server.RequestTimeout <= 0 {
		return ErrInvalidServerConfigs
	}

	if cfg.App.TokenSignKey == "" || cfg.App.TokenIssuer == "" {
		return ErrInvalidAppConfigs
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.Path == "" || strings.Contains(cfg.Storage.Path, ":memory:") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.BaseURL == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Sync.MaxAttempts < 1 ||
		cfg.Sync.BackoffBase <= 0 ||
		cfg.Sync.BackoffMax < cfg.Sync.BackoffBase ||
		cfg.Sync.AttemptTimeout <= 0 ||
		cfg.Sync.UndoWindow <= 0 {
		return ErrInvalidSyncConfigs
	}

	if cfg.Sync.ProbeInterval <= 0 || cfg.Sync.DrainInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	if cfg.App.Token == "" || cfg.App.UserID <= 0 {
		return ErrInvalidAppConfigs
	}

	return nil
}
