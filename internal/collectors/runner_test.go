package collectors

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/luguas/priceye/internal/records"
)

func TestRunLoop_CollectsUntilCanceled(t *testing.T) {
	f := &stubFetcher{source: records.SourceWeather, fetch: func(loc records.Location, date time.Time) (map[string]any, error) {
		return map[string]any{"v": 1}, nil
	}}
	base, _ := NewBase(BaseConfig{Fetcher: f, Normalize: passNormalize})

	var batches atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		RunLoop(ctx, base, []records.Location{{Country: "UK", City: "London"}}, 10*time.Millisecond, false,
			func(ctx context.Context, recs []records.Record) error {
				batches.Add(1)
				return nil
			})
	}()

	deadline := time.After(2 * time.Second)
	for batches.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("loop did not produce batches")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
}
