// Package competitor collects competitor listing prices through the remote
// scraping job API. There is no fallback provider for this source: after
// retries, an unavailable scraper is fatal for that location's fetch.
package competitor

import (
	"context"
	"time"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/httpx"
	"github.com/luguas/priceye/internal/normalize"
	"github.com/luguas/priceye/internal/ratelimit"
	"github.com/luguas/priceye/internal/records"
	"github.com/luguas/priceye/internal/scrapejob"
)

const Table = "competitor_listings"

// Config wires the collector. Token is mandatory; construction fails fast
// with a configuration error before any call is attempted.
type Config struct {
	Token       string
	Job         scrapejob.Config
	Limiter     *ratelimit.Limiter
	Retry       collectors.RetryPolicy
	Store       collectors.Store
	Concurrency int
	OnFailure   func(collectors.Failure)

	// NewSession is a test hook; nil uses the default session.
	NewSession func() *httpx.Session
}

// Collector gathers competitor listings per (location, date), one record per
// listing.
type Collector struct {
	*collectors.Base
}

type fetcher struct {
	client *scrapejob.Client
}

func (f *fetcher) Source() records.Source { return records.SourceCompetitor }

// FetchRaw runs the full scraping job lifecycle for one pair. A job that
// reaches the failed terminal status comes back as a transient error and
// goes through the standard retry policy.
func (f *fetcher) FetchRaw(ctx context.Context, sess *httpx.Session, loc records.Location, date time.Time) (map[string]any, error) {
	return f.client.Run(ctx, sess, scrapejob.JobQuery{
		Country: loc.Country,
		City:    loc.City,
		Date:    records.Midnight(date).Format("2006-01-02"),
	})
}

// New builds the competitor collector.
func New(cfg Config) (*Collector, error) {
	client, err := scrapejob.New(cfg.Token, cfg.Job)
	if err != nil {
		return nil, err
	}
	base, err := collectors.NewBase(collectors.BaseConfig{
		Name:        "competitor",
		Fetcher:     &fetcher{client: client},
		Normalize:   collectors.NormalizeFunc(normalize.Listing),
		Explode:     normalize.ListingItems,
		Limiter:     cfg.Limiter,
		Retry:       cfg.Retry,
		Store:       cfg.Store,
		Table:       Table,
		Concurrency: cfg.Concurrency,
		NewSession:  cfg.NewSession,
		OnFailure:   cfg.OnFailure,
	})
	if err != nil {
		return nil, err
	}
	return &Collector{Base: base}, nil
}
