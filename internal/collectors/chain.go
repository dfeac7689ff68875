package collectors

import (
	"context"
	"time"

	"github.com/luguas/priceye/internal/httpx"
	"github.com/luguas/priceye/internal/logging"
	"github.com/luguas/priceye/internal/records"
)

// Strategy is one provider behind a chain: a single way to fetch the raw
// payload for a (location, date) pair. A TransientError return means the
// provider was unavailable and the chain may substitute the next one; any
// other error (config, domain) aborts the chain. A valid "no data" response
// is a success with whatever payload the provider returned, never a reason
// to fall back.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, sess *httpx.Session, loc records.Location, date time.Time) (map[string]any, error)
}

// Chain is an ordered primary/fallback provider list implementing Fetcher.
// The whole chain counts as one fetch attempt for the retry policy: the
// fallback is tried inside the same attempt, and only after every provider
// fails does the attempt count as one retryable failure.
type Chain struct {
	source     records.Source
	strategies []Strategy
}

// NewChain builds a provider chain for source. At least one strategy is
// required.
func NewChain(source records.Source, strategies ...Strategy) (*Chain, error) {
	if len(strategies) == 0 {
		return nil, NewConfigError(string(source)+".providers", "at least one provider required")
	}
	return &Chain{source: source, strategies: strategies}, nil
}

func (c *Chain) Source() records.Source { return c.source }

// FetchRaw walks the chain in order. Primary is always attempted first;
// fallbacks only run after the previous provider was judged unavailable.
func (c *Chain) FetchRaw(ctx context.Context, sess *httpx.Session, loc records.Location, date time.Time) (map[string]any, error) {
	var last error
	for i, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := s.Fetch(ctx, sess, loc, date)
		if err == nil {
			return raw, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		last = err
		if i < len(c.strategies)-1 {
			logging.Warnf("[%s] provider %s unavailable, trying fallback: %v", c.source, s.Name(), err)
		}
	}
	return nil, Transient(string(c.source), last)
}
