package livesync

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Schedule triggers a run immediately and then every interval until ctx is done. Each
// trigger runs in its own goroutine so a slow run makes later ticks overlap and get
// dropped rather than queued. Schedule returns after the last started run ends.
func (c *Coordinator) Schedule(ctx context.Context, interval time.Duration) {
	var wg sync.WaitGroup
	defer wg.Wait()

	fire := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Trigger(ctx, "schedule"); err != nil && !errors.Is(err, ErrRunOverlap) {
				c.logger.Error("Scheduled sync failed", zap.Error(err))
			}
		}()
	}

	c.logger.Info("Sync scheduler started", zap.Duration("interval", interval), zap.Stringer("coordinator", c))
	fire()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Sync scheduler stopped")
			return
		case <-ticker.C:
			fire()
		}
	}
}
