package config

import (
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"
)

// Defaults applied when no source sets a value.
const (
	defaultRequestTimeout  = 10 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultTokenDuration   = 24 * time.Hour
	defaultMaxAttempts     = 5
	defaultBackoffBase     = 500 * time.Millisecond
	defaultBackoffMax      = 30 * time.Second
	defaultAttemptTimeout  = 10 * time.Second
	defaultUndoWindow      = 5 * time.Second
	defaultProbeInterval   = 15 * time.Second
	defaultDrainInterval   = time.Minute
	defaultLocalPath       = "habits.db"
	defaultLogMaxSizeMB    = 10
)

type configBuilder struct {
	configs []*StructuredConfig
	err     error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{
		configs: make([]*StructuredConfig, 0, 4),
	}
}

// build merges the collected configs. mergo only fills zero fields, so the
// config added first has the highest priority.
func (b *configBuilder) build() (*StructuredConfig, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occurred during building config: %w", b.err)
	}

	config := new(StructuredConfig)
	for _, cfg := range b.configs {
		if err := mergo.Merge(config, cfg); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	return config, nil
}

func (b *configBuilder) withOverrides(overrides *StructuredConfig) *configBuilder {
	if overrides != nil {
		b.configs = append(b.configs, overrides)
	}
	return b
}

func (b *configBuilder) withEnv() *configBuilder {
	envCfg, err := parseEnv()
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.configs = append(b.configs, envCfg)
	return b
}

func (b *configBuilder) withFlags() *configBuilder {
	flags, err := ParseFlags()
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.configs = append(b.configs, flags)
	return b
}

func (b *configBuilder) withJSON() *configBuilder {
	var jsonPath string
	for _, cfg := range b.configs {
		if cfg.JSONFilePath != "" {
			jsonPath = cfg.JSONFilePath
			break
		}
	}

	if jsonPath == "" {
		return b
	}

	jsonCfg, err := parseJSON(jsonPath)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.configs = append(b.configs, jsonCfg)

	return b
}

func (b *configBuilder) withDefaults() *configBuilder {
	b.configs = append(b.configs, &StructuredConfig{
		App: App{
			TokenDuration: defaultTokenDuration,
		},
		Storage: Storage{
			Local: Local{Path: defaultLocalPath},
		},
		Server: Server{
			RequestTimeout:  defaultRequestTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Adapter: Adapter{
			RequestTimeout: defaultRequestTimeout,
		},
		Sync: Sync{
			MaxAttempts:    defaultMaxAttempts,
			BackoffBase:    defaultBackoffBase,
			BackoffMax:     defaultBackoffMax,
			AttemptTimeout: defaultAttemptTimeout,
			UndoWindow:     defaultUndoWindow,
			ProbeInterval:  defaultProbeInterval,
			DrainInterval:  defaultDrainInterval,
		},
		Log: Log{
			MaxSizeMB: defaultLogMaxSizeMB,
		},
	})
	return b
}
