package collectors

import (
	"context"
	"sync"
	"time"

	"github.com/luguas/priceye/internal/httpx"
	"github.com/luguas/priceye/internal/logging"
	"github.com/luguas/priceye/internal/ratelimit"
	"github.com/luguas/priceye/internal/records"
)

// BaseConfig wires a concrete source into the shared collection pipeline.
type BaseConfig struct {
	Name      string
	Fetcher   Fetcher
	Normalize NormalizeFunc

	// Explode splits one fetched payload into the raw items that become
	// individual records. Nil means one payload, one record. The competitor
	// source uses it to fan a job result out into per-listing records.
	Explode func(raw map[string]any) []map[string]any

	Limiter     *ratelimit.Limiter
	Retry       RetryPolicy
	Store       Store
	Table       string
	Concurrency int

	// NewSession overrides session construction; fault-injection tests use
	// it to observe the release invariant.
	NewSession func() *httpx.Session

	// OnFailure receives per-pair and per-item failures. Optional; failures
	// are always logged regardless.
	OnFailure func(Failure)
}

// Base orchestrates collection for one source: acquire session, then for
// each (location, date) pair rate-limit, fetch with retry, normalize, and
// optionally persist. The session is released on every exit path, including
// cancellation.
type Base struct {
	cfg BaseConfig
}

// NewBase validates and builds the shared pipeline. Fetcher and Normalize
// are mandatory.
func NewBase(cfg BaseConfig) (*Base, error) {
	if cfg.Fetcher == nil {
		return nil, NewConfigError("fetcher", "required")
	}
	if cfg.Normalize == nil {
		return nil, NewConfigError("normalize", "required")
	}
	if cfg.Name == "" {
		cfg.Name = string(cfg.Fetcher.Source())
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.NewSession == nil {
		cfg.NewSession = func() *httpx.Session { return httpx.NewSession(0) }
	}
	return &Base{cfg: cfg}, nil
}

func (b *Base) Name() string { return b.cfg.Name }

type pair struct {
	loc  records.Location
	date time.Time
}

// Collect runs the pipeline for every (location, date) pair. Results come
// back in the caller's iteration order (locations outer, dates inner), not
// arrival order. One pair failing does not abort its siblings; failures go
// to the log and the OnFailure hook. Empty locations or an inverted date
// range return an empty batch without touching the network.
func (b *Base) Collect(ctx context.Context, locs []records.Location, dates records.DateRange, storeInDB bool) ([]records.Record, error) {
	days := dates.Days()
	if len(locs) == 0 || len(days) == 0 {
		return []records.Record{}, nil
	}

	pairs := make([]pair, 0, len(locs)*len(days))
	for _, loc := range locs {
		for _, d := range days {
			pairs = append(pairs, pair{loc: loc, date: d})
		}
	}

	sess := b.cfg.NewSession()
	defer sess.Close()

	results := make([][]records.Record, len(pairs))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []Failure
	)
	sem := make(chan struct{}, b.cfg.Concurrency)

	for i, p := range pairs {
		select {
		case <-ctx.Done():
			wg.Wait()
			return b.finish(ctx, results, failures, false)
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, p pair) {
			defer wg.Done()
			defer func() { <-sem }()

			recs, fails := b.collectOne(ctx, sess, p)
			results[i] = recs
			if len(fails) > 0 {
				mu.Lock()
				failures = append(failures, fails...)
				mu.Unlock()
			}
		}(i, p)
	}

	wg.Wait()
	return b.finish(ctx, results, failures, storeInDB)
}

// collectOne is the per-pair state machine: RATE_WAIT -> FETCH_ATTEMPT
// (under retry) -> NORMALIZE. A normalization failure on one item drops
// that item only.
func (b *Base) collectOne(ctx context.Context, sess *httpx.Session, p pair) ([]records.Record, []Failure) {
	fail := func(err error) ([]records.Record, []Failure) {
		return nil, []Failure{{Location: p.loc, Date: p.date, Err: err}}
	}

	if err := b.cfg.Limiter.Acquire(ctx); err != nil {
		return fail(err)
	}

	var raw map[string]any
	err := b.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		got, err := b.cfg.Fetcher.FetchRaw(ctx, sess, p.loc, p.date)
		if err != nil {
			return err
		}
		raw = got
		return nil
	})
	if err != nil {
		return fail(err)
	}

	items := []map[string]any{raw}
	if b.cfg.Explode != nil {
		items = b.cfg.Explode(raw)
	}

	var (
		recs     []records.Record
		failures []Failure
	)
	for _, item := range items {
		rec, err := b.cfg.Normalize(item, p.loc, p.date)
		if err != nil {
			failures = append(failures, Failure{Location: p.loc, Date: p.date, Err: err})
			continue
		}
		recs = append(recs, rec)
	}
	return recs, failures
}

func (b *Base) finish(ctx context.Context, results [][]records.Record, failures []Failure, storeInDB bool) ([]records.Record, error) {
	for _, f := range failures {
		logging.Errorf("[%s] %s %s: %v", b.cfg.Name, f.Location.Key(), f.Date.Format("2006-01-02"), f.Err)
		if b.cfg.OnFailure != nil {
			b.cfg.OnFailure(f)
		}
	}

	out := make([]records.Record, 0, len(results))
	for _, recs := range results {
		out = append(out, recs...)
	}

	if storeInDB && b.cfg.Store != nil && len(out) > 0 {
		res, err := b.cfg.Store.Upsert(ctx, b.cfg.Table, out)
		if err != nil {
			logging.Errorf("[%s] persist batch: %v", b.cfg.Name, err)
		} else {
			logging.Infof("[%s] persisted: stored=%d updated=%d failed=%d", b.cfg.Name, res.Stored, res.Updated, res.Failed)
		}
	}

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}
