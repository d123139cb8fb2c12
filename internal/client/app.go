package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-habit-tracker/internal/adapter"
	"github.com/MKhiriev/go-habit-tracker/internal/config"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/service"
	"github.com/MKhiriev/go-habit-tracker/internal/store"
	"github.com/MKhiriev/go-habit-tracker/internal/tui"
	"github.com/MKhiriev/go-habit-tracker/internal/workers"
	"github.com/MKhiriev/go-habit-tracker/models"
)

const notificationBuffer = 32

// App owns one client session: local storage, the remote adapter, the sync
// core and the workers that keep it moving.
type App struct {
	cfg      *config.ClientConfig
	storages *store.ClientStorages
	remote   *adapter.HTTPDocumentAdapter
	prober   workers.Prober
	closers  []func() error
	notifier *service.ChannelNotifier
	services *service.ClientServices
	logger   *logger.Logger
}

var _ Client = (*App)(nil)

// NewApp opens the local storage of the configured user and restores the
// cached collections and the pending queue. Background drains started by the
// sync core live as long as ctx.
func NewApp(ctx context.Context, cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	log = log.WithFields(map[string]any{"user_id": cfg.App.UserID})

	storages, err := store.NewClientStorages(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("open local storage: %w", err)
	}
	app := &App{cfg: cfg, storages: storages, logger: log}
	app.closers = append(app.closers, storages.Close)

	app.remote, err = adapter.NewHTTPDocumentAdapter(cfg.Adapter, cfg.App, log)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("create document adapter: %w", err)
	}

	app.prober = app.remote
	if cfg.Adapter.GRPCAddress != "" {
		grpcProber, err := adapter.NewGRPCHealthProber(cfg.Adapter.GRPCAddress)
		if err != nil {
			log.Warn().Err(err).Str("address", cfg.Adapter.GRPCAddress).
				Msg("grpc health probe unavailable, probing over http")
		} else {
			app.prober = grpcProber
			app.closers = append(app.closers, grpcProber.Close)
		}
	}

	app.notifier = service.NewChannelNotifier(notificationBuffer)
	notifier := service.MultiNotifier{app.notifier, service.NewLogNotifier(log)}

	app.services = service.NewClientServices(ctx, cfg.App.UserID, storages.Local, app.remote, notifier, cfg.Sync, log)
	if err = app.services.Mutations.Load(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("restore local state: %w", err)
	}

	if !storages.Durable {
		app.notifier.Notify(models.Notification{
			Kind:    models.NotifyError,
			Message: "Local storage is unavailable. Changes made now are lost on exit",
		})
	}

	return app, nil
}

// Run shows the board until the user quits. Subscriptions and workers are
// stopped before it returns; the queue stays persisted for the next session.
func (a *App) Run(ctx context.Context) error {
	if err := a.services.Listener.Start(ctx, models.Collections...); err != nil {
		a.logger.Warn().Err(err).Msg("live updates unavailable")
	}

	background := workers.NewWorkers(
		workers.NewProbeWorker(a.prober, a.services.Connectivity, a.cfg.Sync.ProbeInterval, a.logger),
		workers.NewDrainWorker(a.services.SyncEngine, a.cfg.Sync.DrainInterval, a.logger),
	)
	background.Start(ctx)
	defer background.Stop()

	err := tui.New(a.services, a.notifier.C(), a.logger).Run(ctx)
	if errors.Is(err, tui.ErrUserQuit) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Sync probes the server once and, when it answers, drains the queue.
func (a *App) Sync(ctx context.Context) error {
	if err := a.prober.Ping(ctx); err != nil {
		a.services.Connectivity.SetOnline(false)
		return fmt.Errorf("%w: %w", ErrServerUnreachable, err)
	}

	a.services.Connectivity.SetOnline(true)
	return a.services.SyncEngine.Drain(ctx)
}

// AddTask creates a task the same way the board does.
func (a *App) AddTask(ctx context.Context, title string) (models.Record, error) {
	return a.services.Mutations.Create(ctx, models.CollectionTasks, map[string]any{
		"title": title,
		"done":  false,
	})
}

// Pending returns the queued operations in drain order.
func (a *App) Pending() []models.QueuedOperation {
	return a.services.Queue.PeekAll()
}

// Durable reports whether queued operations survive a restart.
func (a *App) Durable() bool {
	return a.storages.Durable
}

// Close stops the sync core and releases the local storage.
func (a *App) Close() error {
	if a.services != nil {
		a.services.Close()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
