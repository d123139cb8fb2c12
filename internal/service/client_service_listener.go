package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/MKhiriev/go-habit-tracker/internal/adapter"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/utils"
	"github.com/MKhiriev/go-habit-tracker/models"
)

type subscription struct {
	collection  models.Collection
	mounted     atomic.Bool
	unsubscribe func()

	mu          sync.Mutex
	fingerprint string
	revision    uint64
}

type listenerBridge struct {
	userID  int64
	adapter adapter.DocumentAdapter
	monitor ConnectivityMonitor
	state   StateUpdater

	mu   sync.Mutex
	subs map[models.Collection]*subscription

	logger *logger.Logger
}

// NewListenerBridge returns the [ListenerBridge] of userID.
func NewListenerBridge(userID int64, documentAdapter adapter.DocumentAdapter, monitor ConnectivityMonitor, state StateUpdater, logger *logger.Logger) ListenerBridge {
	return &listenerBridge{
		userID:  userID,
		adapter: documentAdapter,
		monitor: monitor,
		state:   state,
		subs:    make(map[models.Collection]*subscription),
		logger:  logger,
	}
}

// Start subscribes to every collection not subscribed yet.
func (b *listenerBridge) Start(ctx context.Context, collections ...models.Collection) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, collection := range collections {
		if _, ok := b.subs[collection]; ok {
			continue
		}

		sub := &subscription{collection: collection}
		sub.mounted.Store(true)

		unsubscribe, err := b.adapter.Subscribe(ctx,
			models.NewCollectionPath(b.userID, collection),
			func(snapshot models.Snapshot) { b.onSnapshot(ctx, sub, snapshot) },
			func(err error) { b.onError(sub, err) },
		)
		if err != nil {
			sub.mounted.Store(false)
			return fmt.Errorf("error subscribing to %s: %w", collection, err)
		}
		sub.unsubscribe = unsubscribe
		b.subs[collection] = sub
	}

	return nil
}

func (b *listenerBridge) Stop() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[models.Collection]*subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.mounted.Store(false)
		// wait for a snapshot being merged right now
		sub.mu.Lock()
		sub.mu.Unlock()
		if sub.unsubscribe != nil {
			sub.unsubscribe()
		}
	}
}

func (b *listenerBridge) onSnapshot(ctx context.Context, sub *subscription, snapshot models.Snapshot) {
	if !sub.mounted.Load() {
		return
	}

	log := b.logger.With().
		Str("collection", sub.collection.String()).
		Int("documents", len(snapshot.Documents)).
		Logger()

	// an empty snapshot while offline is not evidence that the data is gone
	if len(snapshot.Documents) == 0 && !b.monitor.Online() {
		log.Debug().Msg("ignoring empty snapshot received offline")
		return
	}

	fingerprint, err := utils.Fingerprint(snapshot.Documents)
	if err != nil {
		log.Warn().Err(err).Msg("error fingerprinting snapshot")
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	// read before applying so a fold racing the merge forces the next
	// identical snapshot through
	revision := b.state.Revision(sub.collection)
	if err == nil && fingerprint == sub.fingerprint && revision == sub.revision {
		return
	}
	if !sub.mounted.Load() {
		return
	}

	if snapshot.Collection == "" {
		snapshot.Collection = sub.collection
	}
	b.state.ApplySnapshot(ctx, sub.collection, snapshot.Records())
	sub.fingerprint = fingerprint
	sub.revision = revision
	log.Debug().Msg("snapshot merged")
}

func (b *listenerBridge) onError(sub *subscription, err error) {
	if !sub.mounted.Load() {
		return
	}
	b.logger.Warn().Err(err).Str("collection", sub.collection.String()).Msg("subscription error")
	b.monitor.ReportFailure(err)
}
