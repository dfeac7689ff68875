package collectors

import (
	"context"
	"time"

	"github.com/luguas/priceye/internal/httpx"
	"github.com/luguas/priceye/internal/records"
)

// Fetcher is the source-specific hook a concrete collector plugs into Base.
// FetchRaw retrieves one provider payload for a (location, date) pair using
// the session owned by the running collection. Implementations classify
// failures via the error taxonomy: only TransientError is retried.
type Fetcher interface {
	Source() records.Source
	FetchRaw(ctx context.Context, sess *httpx.Session, loc records.Location, date time.Time) (map[string]any, error)
}

// NormalizeFunc maps one raw provider payload into a canonical record.
type NormalizeFunc func(raw map[string]any, loc records.Location, date time.Time) (records.Record, error)

// Store is the persistence adapter collectors write through. The framework
// treats it as opaque; it never embeds query logic.
type Store interface {
	Upsert(ctx context.Context, table string, recs []records.Record) (UpsertResult, error)
}

// UpsertResult reports per-batch persistence counts.
type UpsertResult struct {
	Stored  int
	Updated int
	Failed  int
}

// Failure is the side-channel accounting for one (location, date) pair that
// failed after retry exhaustion or normalization. Batch collection continues
// past failures.
type Failure struct {
	Location records.Location
	Date     time.Time
	Err      error
}

// Collector is the batch operation exposed to schedulers and CLIs.
type Collector interface {
	Name() string
	Collect(ctx context.Context, locs []records.Location, dates records.DateRange, storeInDB bool) ([]records.Record, error)
}
