package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/MKhiriev/go-habit-tracker/internal/adapter"
	"github.com/MKhiriev/go-habit-tracker/internal/config"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/utils"
	"github.com/MKhiriev/go-habit-tracker/models"
)

const drainKey = "drain"

// ErrRetriesExhausted is returned by Drain when the head of the queue kept
// failing transiently. The operation stays queued.
var ErrRetriesExhausted = errors.New("remote operation failed after all retries")

type syncEngine struct {
	userID   int64
	queue    OperationQueue
	adapter  adapter.DocumentAdapter
	monitor  ConnectivityMonitor
	state    StateUpdater
	notifier Notifier
	cfg      config.ClientSync

	group      singleflight.Group
	dirty      atomic.Bool
	reconnects atomic.Bool
	now        func() time.Time
	logger     *logger.Logger
}

// NewSyncEngine returns the [SyncEngine] draining queue for userID.
func NewSyncEngine(
	userID int64,
	queue OperationQueue,
	documentAdapter adapter.DocumentAdapter,
	monitor ConnectivityMonitor,
	state StateUpdater,
	notifier Notifier,
	cfg config.ClientSync,
	logger *logger.Logger,
) SyncEngine {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &syncEngine{
		userID:   userID,
		queue:    queue,
		adapter:  documentAdapter,
		monitor:  monitor,
		state:    state,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
	}
}

func (e *syncEngine) MarkReconnected() {
	e.reconnects.Store(true)
}

func (e *syncEngine) Drain(ctx context.Context) error {
	if !e.monitor.Online() {
		return nil
	}

	// A caller that joins a flight which already found the queue empty
	// leaves dirty set and runs another flight itself.
	e.dirty.Store(true)
	for {
		_, err, shared := e.group.Do(drainKey, func() (any, error) {
			for e.dirty.CompareAndSwap(true, false) {
				if err := e.drain(ctx); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
		if shared {
			e.logger.Debug().Msg("drain coalesced with the one in flight")
		}
		if err != nil || ctx.Err() != nil || !e.dirty.Load() {
			return err
		}
	}
}

func (e *syncEngine) drain(ctx context.Context) error {
	synced := 0
	defer func() {
		if synced > 0 && e.reconnects.CompareAndSwap(true, false) {
			e.notifier.Notify(models.Notification{
				Kind:    models.NotifySuccess,
				Message: fmt.Sprintf("Synced %d change(s)", synced),
			})
		}
	}()

	for e.monitor.Online() {
		op, ok := e.queue.Next(e.now())
		if !ok {
			return nil
		}

		log := e.logger.With().
			Str("op_id", op.ID).
			Str("kind", string(op.Kind)).
			Str("collection", op.Collection.String()).
			Str("target_id", op.TargetID).
			Logger()

		e.state.Sending(op)
		err := e.applyWithRetry(ctx, op)
		switch {
		case err == nil:
			log.Debug().Msg("operation applied")
			e.state.Confirm(ctx, op)
			synced++

		case adapter.Classify(err) == adapter.ClassPermanent:
			log.Warn().Err(err).Msg("operation rejected permanently, dropping")
			e.state.Reject(ctx, op, err)

		default:
			log.Warn().Err(err).Msg("operation failed after retries, keeping it queued")
			e.queue.Release(op.ID)
			e.state.RetryScheduled(op)
			e.monitor.ReportFailure(err)
			if ctx.Err() == nil {
				e.notifier.Notify(models.Notification{
					Kind:    models.NotifyError,
					Message: fmt.Sprintf("Sync of %s is delayed, will retry: %v", op.Collection, err),
					OpID:    op.ID,
				})
			}
			return fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
		}
	}

	return nil
}

// applyWithRetry sends op until it succeeds, fails permanently, or
// MaxAttempts attempts failed transiently. Each attempt has its own timeout.
func (e *syncEngine) applyWithRetry(ctx context.Context, op models.QueuedOperation) error {
	backoff := retry.NewExponential(e.cfg.BackoffBase)
	if e.cfg.BackoffMax > 0 {
		backoff = retry.WithCappedDuration(e.cfg.BackoffMax, backoff)
	}
	backoff = retry.WithMaxRetries(uint64(e.cfg.MaxAttempts-1), backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := e.attemptContext(ctx)
		defer cancel()

		err := e.apply(attemptCtx, op)
		if err == nil {
			return nil
		}
		e.queue.MarkAttempt(ctx, op.ID, err)
		if adapter.IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (e *syncEngine) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.AttemptTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.AttemptTimeout)
}

// apply translates op into a single remote call.
func (e *syncEngine) apply(ctx context.Context, op models.QueuedOperation) error {
	path := op.Path(e.userID)

	switch op.Kind {
	case models.OpCreate:
		opts := models.SetOptions{Merge: op.Collection == models.CollectionUser}
		return e.adapter.Set(ctx, path, op.Payload, opts)
	case models.OpUpdate, models.OpIncrement:
		return e.adapter.Update(utils.WithOperationID(ctx, op.ID), path, op.Patch())
	case models.OpDelete:
		return e.adapter.Delete(ctx, path)
	}

	return fmt.Errorf("%w: unknown operation kind %q", adapter.ErrBadRequest, op.Kind)
}
