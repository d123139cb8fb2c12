package workers

import (
	"context"
	"sync"
	"time"
)

// tickerJob calls tick every interval on its own goroutine. runFirst makes
// the first call happen right after Start instead of one interval later.
type tickerJob struct {
	interval time.Duration
	runFirst bool
	tick     func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Start stops any previously running job, then launches a background
// goroutine that calls tick every interval. The goroutine exits when ctx is
// cancelled or Stop is called.
func (j *tickerJob) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(j.interval)
		defer t.Stop()

		if j.runFirst {
			j.tick(jobCtx)
		}

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.tick(jobCtx)
			}
		}
	}()
}

func (j *tickerJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
