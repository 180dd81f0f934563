package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Janitor purges expired sessions in the background.
type Janitor struct {
	store    Store
	interval time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJanitor creates a janitor sweeping the store every interval.
func NewJanitor(store Store, interval time.Duration, logger *slog.Logger) *Janitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Janitor{
		store:    store,
		interval: interval,
		logger:   logger.With("component", "session-janitor"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the background sweep loop.
func (j *Janitor) Start() {
	j.wg.Add(1)
	go j.run()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (j *Janitor) Stop() {
	j.cancel()
	j.wg.Wait()
}

func (j *Janitor) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			deleted, err := j.store.DeleteExpired(time.Now())
			if err != nil {
				j.logger.Error("session sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				j.logger.Info("purged expired sessions", "count", deleted)
			}
		}
	}
}
