package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-habit-tracker/internal/logger"
)

const (
	defaultProbeInterval = 5 * time.Second
	maxProbeTimeout      = 3 * time.Second
)

// NewProbeWorker pings the server every interval and reports the result to
// status. The first probe runs immediately so the client learns its status
// at startup.
func NewProbeWorker(prober Prober, status StatusSetter, interval time.Duration, log *logger.Logger) Worker {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	timeout := min(interval, maxProbeTimeout)

	return &tickerJob{
		interval: interval,
		runFirst: true,
		tick: func(ctx context.Context) {
			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			err := prober.Ping(probeCtx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				log.Debug().Err(err).Msg("connectivity probe failed")
			}
			status.SetOnline(err == nil)
		},
	}
}
