// Package currency converts amounts between currencies using a
// primary/fallback rate provider chain, with cached rates preferred over any
// network call.
package currency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/httpx"
	"github.com/luguas/priceye/internal/logging"
	"github.com/luguas/priceye/internal/normalize"
	"github.com/luguas/priceye/internal/ratelimit"
	"github.com/luguas/priceye/internal/records"
)

const Table = "currency_rates"

// UnknownCurrencyError rejects a currency code outside the supported set.
// Distinct from network failures; raised before any I/O.
type UnknownCurrencyError struct {
	Code string
}

func (e *UnknownCurrencyError) Error() string {
	return fmt.Sprintf("unknown currency code %q", e.Code)
}

// knownCurrencies is the supported ISO 4217 subset.
var knownCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "CHF": true,
	"CAD": true, "AUD": true, "NZD": true, "SEK": true, "NOK": true,
	"DKK": true, "PLN": true, "CZK": true, "HUF": true, "RON": true,
	"BGN": true, "TRY": true, "BRL": true, "MXN": true, "SGD": true,
	"HKD": true, "KRW": true, "THB": true, "MYR": true, "IDR": true,
	"INR": true, "CNY": true, "ZAR": true, "ILS": true, "AED": true,
	"PHP": true, "ISK": true,
}

// Known reports whether code is a supported currency.
func Known(code string) bool {
	return knownCurrencies[strings.ToUpper(strings.TrimSpace(code))]
}

// RateReader is a cached-rate lookup: Redis cache and the SQLite store both
// satisfy it. A (0, false, nil) result means "no cached rate", not an error.
type RateReader interface {
	ReadCachedRate(ctx context.Context, base, quote string, date time.Time) (float64, bool, error)
}

// RateWriter persists a freshly fetched rate for future lookups.
type RateWriter interface {
	SaveRate(ctx context.Context, base, quote string, date time.Time, rate float64) error
}

// Config wires the converter.
type Config struct {
	BaseCurrency string
	Primary      collectors.Strategy
	Fallback     collectors.Strategy
	Limiter      *ratelimit.Limiter
	Retry        collectors.RetryPolicy

	// Readers are consulted in order before any network call; Writers
	// receive every rate fetched over the network.
	Readers []RateReader
	Writers []RateWriter

	Store       collectors.Store
	Concurrency int
	OnFailure   func(collectors.Failure)

	// NewSession is a test hook; nil uses the default session.
	NewSession func() *httpx.Session
}

// Converter converts amounts and batch-collects daily rate records. Batch
// collection encodes pairs as locations: Country is the base code, City the
// quote code (see Pairs).
type Converter struct {
	*collectors.Base

	base       string
	chain      *collectors.Chain
	limiter    *ratelimit.Limiter
	retry      collectors.RetryPolicy
	readers    []RateReader
	writers    []RateWriter
	newSession func() *httpx.Session
}

// New builds the converter.
func New(cfg Config) (*Converter, error) {
	base := strings.ToUpper(strings.TrimSpace(cfg.BaseCurrency))
	if base == "" {
		return nil, collectors.NewConfigError("currency.base", "base currency required")
	}
	if !Known(base) {
		return nil, collectors.NewConfigError("currency.base", "unsupported currency code "+base)
	}
	if cfg.Primary == nil {
		return nil, collectors.NewConfigError("currency.primary", "primary provider required")
	}
	strategies := []collectors.Strategy{cfg.Primary}
	if cfg.Fallback != nil {
		strategies = append(strategies, cfg.Fallback)
	}
	chain, err := collectors.NewChain(records.SourceCurrency, strategies...)
	if err != nil {
		return nil, err
	}

	b, err := collectors.NewBase(collectors.BaseConfig{
		Name:        "currency",
		Fetcher:     chain,
		Normalize:   collectors.NormalizeFunc(normalize.Rates),
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

	newSession := cfg.NewSession
	if newSession == nil {
		newSession = func() *httpx.Session { return httpx.NewSession(0) }
	}

	return &Converter{
		Base:       b,
		base:       base,
		chain:      chain,
		limiter:    cfg.Limiter,
		retry:      cfg.Retry,
		readers:    cfg.Readers,
		writers:    cfg.Writers,
		newSession: newSession,
	}, nil
}

// BaseCurrency returns the configured base code.
func (c *Converter) BaseCurrency() string { return c.base }

// Pairs encodes quote currencies as collection locations for the batch
// Collect operation.
func Pairs(base string, quotes []string) []records.Location {
	base = strings.ToUpper(base)
	out := make([]records.Location, 0, len(quotes))
	for _, q := range quotes {
		q = strings.ToUpper(strings.TrimSpace(q))
		if q == "" || q == base {
			continue
		}
		out = append(out, records.Location{Country: base, City: q})
	}
	return out
}

// Convert converts amount from one currency to another for the given date.
// Converting to the same currency returns the amount unchanged with zero
// network calls; negative amounts and unknown codes are rejected before any
// I/O. Cached rates win over the network.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string, date time.Time) (float64, error) {
	if amount < 0 {
		return 0, &collectors.DomainError{Reason: fmt.Sprintf("cannot convert negative amount %v", amount)}
	}
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if !Known(from) {
		return 0, &UnknownCurrencyError{Code: from}
	}
	if !Known(to) {
		return 0, &UnknownCurrencyError{Code: to}
	}
	if from == to {
		return amount, nil
	}

	rate, err := c.Rate(ctx, from, to, date)
	if err != nil {
		return 0, err
	}
	return amount * rate, nil
}

// Rate resolves the rate for one pair and date: cached readers first, then
// the provider chain under the standard rate-limit and retry discipline.
func (c *Converter) Rate(ctx context.Context, from, to string, date time.Time) (float64, error) {
	day := records.Midnight(date)

	for _, r := range c.readers {
		rate, ok, err := r.ReadCachedRate(ctx, from, to, day)
		if err != nil {
			logging.Warnf("[currency] cached rate lookup %s/%s: %v", from, to, err)
			continue
		}
		if ok {
			return rate, nil
		}
	}

	rec, err := c.fetchPair(ctx, from, to, day)
	if err != nil {
		return 0, err
	}
	rate, ok := rec.Normalized[records.FieldRate].(float64)
	if !ok {
		return 0, &collectors.NormalizationError{Source: "rates", Reason: "rate missing from normalized record"}
	}

	for _, w := range c.writers {
		if err := w.SaveRate(ctx, from, to, day, rate); err != nil {
			logging.Warnf("[currency] save rate %s/%s: %v", from, to, err)
		}
	}
	return rate, nil
}

func (c *Converter) fetchPair(ctx context.Context, from, to string, day time.Time) (records.Record, error) {
	sess := c.newSession()
	defer sess.Close()

	loc := records.Location{Country: from, City: to}
	if err := c.limiter.Acquire(ctx); err != nil {
		return records.Record{}, err
	}

	var raw map[string]any
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		got, err := c.chain.FetchRaw(ctx, sess, loc, day)
		if err != nil {
			return err
		}
		raw = got
		return nil
	})
	if err != nil {
		return records.Record{}, err
	}
	return normalize.Rates(raw, loc, day)
}
