package collectors

import (
	"context"
	"time"

	"github.com/luguas/priceye/internal/logging"
	"github.com/luguas/priceye/internal/records"
)

// RunLoop drives a collector for today's data on a fixed cadence and hands
// each non-empty batch to handleFn. Collection failures are logged and the
// loop keeps going; only context cancellation stops it.
func RunLoop(ctx context.Context, c Collector, locs []records.Location, every time.Duration, storeInDB bool, handleFn func(context.Context, []records.Record) error) {
	if every <= 0 {
		every = time.Hour
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		recs, err := c.Collect(ctx, locs, records.SingleDay(time.Now()), storeInDB)
		if err != nil {
			logging.Errorf("[%s] collect failed: %v", c.Name(), err)
		}
		if handleFn != nil && len(recs) > 0 {
			if err := handleFn(ctx, recs); err != nil {
				logging.Errorf("[%s] handler error: %v", c.Name(), err)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
