package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-habit-tracker/internal/logger"
)

const defaultDrainInterval = 30 * time.Second

// NewDrainWorker periodically drains the operation queue. Drains are
// normally triggered by mutations and reconnects; this worker only picks up
// what those triggers missed, such as deletes whose undo window expired while
// the drain was failing.
func NewDrainWorker(drainer Drainer, interval time.Duration, log *logger.Logger) Worker {
	if interval <= 0 {
		interval = defaultDrainInterval
	}

	return &tickerJob{
		interval: interval,
		tick: func(ctx context.Context) {
			if err := drainer.Drain(ctx); err != nil && ctx.Err() == nil {
				log.Debug().Err(err).Msg("periodic drain stopped")
			}
		},
	}
}
