package service

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-habit-tracker/internal/adapter"
	"github.com/MKhiriev/go-habit-tracker/internal/config"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/store"
)

// ClientServices is the sync core of one user session. It is built once per
// session and passed to the UI and the background workers.
type ClientServices struct {
	Cache        CacheStore
	Connectivity ConnectivityMonitor
	Queue        OperationQueue
	Mutations    *Mutations
	SyncEngine   SyncEngine
	Listener     ListenerBridge

	stopConnectivity func()
}

// NewClientServices wires the sync core of userID. The connectivity monitor
// starts offline; the first successful probe flips it online and triggers the
// first drain. Background drains run on ctx.
func NewClientServices(
	ctx context.Context,
	userID int64,
	localStore store.LocalStorage,
	documentAdapter adapter.DocumentAdapter,
	notifier Notifier,
	cfg config.ClientSync,
	log *logger.Logger,
) *ClientServices {
	cache := NewCacheStore(localStore, log)
	monitor := NewConnectivityMonitor(false, log)
	queue := NewOperationQueue(userID, localStore, log)
	mutations := NewMutations(userID, queue, cache, notifier, cfg.UndoWindow, log)
	engine := NewSyncEngine(userID, queue, documentAdapter, monitor, mutations, notifier, cfg, log)
	listener := NewListenerBridge(userID, documentAdapter, monitor, mutations, log)

	drainInBackground := func() {
		go func() {
			if err := engine.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Debug().Err(err).Msg("background drain stopped early")
			}
		}()
	}
	mutations.SetDrainTrigger(drainInBackground)

	stop := monitor.Subscribe(func(online bool) {
		if online {
			engine.MarkReconnected()
			drainInBackground()
		}
	})

	return &ClientServices{
		Cache:            cache,
		Connectivity:     monitor,
		Queue:            queue,
		Mutations:        mutations,
		SyncEngine:       engine,
		Listener:         listener,
		stopConnectivity: stop,
	}
}

// Close tears down subscriptions. Queued operations stay persisted.
func (s *ClientServices) Close() {
	s.Listener.Stop()
	if s.stopConnectivity != nil {
		s.stopConnectivity()
	}
}
