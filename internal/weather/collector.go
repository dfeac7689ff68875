// Package weather collects daily forecasts through a primary/fallback
// provider chain. The fallback is consulted only when the primary is
// unavailable, inside the same retry attempt.
package weather

import (
	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/httpx"
	"github.com/luguas/priceye/internal/normalize"
	"github.com/luguas/priceye/internal/ratelimit"
	"github.com/luguas/priceye/internal/records"
)

const Table = "weather_data"

// Config wires the collector. Primary is mandatory; Fallback is optional.
type Config struct {
	Primary     collectors.Strategy
	Fallback    collectors.Strategy
	Limiter     *ratelimit.Limiter
	Retry       collectors.RetryPolicy
	Store       collectors.Store
	Concurrency int
	OnFailure   func(collectors.Failure)

	// NewSession is a test hook; nil uses the default session.
	NewSession func() *httpx.Session
}

// Collector gathers one weather record per (location, date). The payload
// shape depends on which provider in the chain answered, so normalization
// auto-detects the source.
type Collector struct {
	*collectors.Base
}

// New builds the weather collector.
func New(cfg Config) (*Collector, error) {
	if cfg.Primary == nil {
		return nil, collectors.NewConfigError("weather.primary", "primary provider required")
	}
	strategies := []collectors.Strategy{cfg.Primary}
	if cfg.Fallback != nil {
		strategies = append(strategies, cfg.Fallback)
	}
	chain, err := collectors.NewChain(records.SourceWeather, strategies...)
	if err != nil {
		return nil, err
	}

	base, err := collectors.NewBase(collectors.BaseConfig{
		Name:        "weather",
		Fetcher:     chain,
		Normalize:   collectors.NormalizeFunc(normalize.Detect),
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
