package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// pruner is implemented by backends that store expiry but never evict.
type pruner interface {
	Prune(ctx context.Context, now time.Time) (int, error)
}

// Janitor periodically removes expired session records.
type Janitor struct {
	store    pruner
	interval time.Duration
	logger   *zap.Logger
}

// NewJanitor creates a janitor sweeping every interval.
func NewJanitor(p pruner, interval time.Duration, logger *zap.Logger) *Janitor {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Janitor{store: p, interval: interval, logger: logger}
}

// Run sweeps until ctx is done. A failed sweep is logged and retried on the
// next tick.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			j.Sweep(ctx, now)
		}
	}
}

// Sweep prunes once and returns the number of removed records.
func (j *Janitor) Sweep(ctx context.Context, now time.Time) int {
	n, err := j.store.Prune(ctx, now)
	if err != nil {
		j.logger.Warn("session prune failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		j.logger.Debug("expired sessions pruned", zap.Int("removed", n))
	}
	return n
}
