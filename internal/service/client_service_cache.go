package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/store"
	"github.com/MKhiriev/go-habit-tracker/models"
)

type cacheStore struct {
	storage  store.LocalStorage
	fallback *store.MemoryStorage
	degraded atomic.Bool
	logger   *logger.Logger
}

// NewCacheStore returns a [CacheStore] on top of storage. After the first
// storage failure the store keeps working in memory for the session.
func NewCacheStore(storage store.LocalStorage, logger *logger.Logger) CacheStore {
	return &cacheStore{
		storage:  storage,
		fallback: store.NewMemoryStorage(),
		logger:   logger,
	}
}

func cacheKey(userID int64, collection models.Collection) string {
	return fmt.Sprintf("cache:%d:%s", userID, collection)
}

func (c *cacheStore) active() store.LocalStorage {
	if c.degraded.Load() {
		return c.fallback
	}
	return c.storage
}

func (c *cacheStore) Load(ctx context.Context, userID int64, collection models.Collection) []models.Record {
	key := cacheKey(userID, collection)

	raw, ok, err := c.active().GetItem(ctx, key)
	if err != nil {
		c.degrade(err, key)
		raw, ok, _ = c.fallback.GetItem(ctx, key)
	}
	if !ok || raw == "" {
		return nil
	}

	var records []models.Record
	if err = json.Unmarshal([]byte(raw), &records); err != nil {
		c.logger.Warn().Err(err).
			Str("func", "cacheStore.Load").
			Str("key", key).
			Msg("discarding unreadable cache entry")
		return nil
	}

	return records
}

func (c *cacheStore) Save(ctx context.Context, userID int64, collection models.Collection, records []models.Record) {
	key := cacheKey(userID, collection)

	raw, err := json.Marshal(records)
	if err != nil {
		c.logger.Err(err).Str("func", "cacheStore.Save").Str("key", key).Msg("error encoding records")
		return
	}

	if err = c.active().SetItem(ctx, key, string(raw)); err != nil {
		c.degrade(err, key)
		_ = c.fallback.SetItem(ctx, key, string(raw))
	}
}

func (c *cacheStore) degrade(err error, key string) {
	if c.degraded.CompareAndSwap(false, true) {
		c.logger.Warn().Err(err).
			Str("key", key).
			Msg("local storage failed, caching in memory for this session")
	}
}
