package currency_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/currency"
	"github.com/luguas/priceye/internal/httpx"
	"github.com/luguas/priceye/internal/records"
)

type fakeProvider struct {
	name  string
	calls atomic.Int64
	fetch func(loc records.Location) (map[string]any, error)
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Fetch(ctx context.Context, sess *httpx.Session, loc records.Location, date time.Time) (map[string]any, error) {
	p.calls.Add(1)
	return p.fetch(loc)
}

func rateTable(rates map[string]any) func(records.Location) (map[string]any, error) {
	return func(records.Location) (map[string]any, error) {
		return map[string]any{"rates": rates}, nil
	}
}

type memCache struct {
	rates map[string]float64
	saves int
}

func cacheKey(base, quote string, date time.Time) string {
	return base + "/" + quote + "/" + date.Format("2006-01-02")
}

func (m *memCache) ReadCachedRate(ctx context.Context, base, quote string, date time.Time) (float64, bool, error) {
	r, ok := m.rates[cacheKey(base, quote, date)]
	return r, ok, nil
}

func (m *memCache) SaveRate(ctx context.Context, base, quote string, date time.Time, rate float64) error {
	if m.rates == nil {
		m.rates = map[string]float64{}
	}
	m.rates[cacheKey(base, quote, date)] = rate
	m.saves++
	return nil
}

func newConverter(t *testing.T, primary *fakeProvider, cache *memCache) *currency.Converter {
	t.Helper()
	cfg := currency.Config{
		BaseCurrency: "USD",
		Primary:      primary,
		Retry:        collectors.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: time.Millisecond},
	}
	if cache != nil {
		cfg.Readers = []currency.RateReader{cache}
		cfg.Writers = []currency.RateWriter{cache}
	}
	conv, err := currency.New(cfg)
	require.NoError(t, err)
	return conv
}

func TestConvert_SameCurrency_IdentityWithoutNetwork(t *testing.T) {
	primary := &fakeProvider{name: "primary", fetch: rateTable(map[string]any{"EUR": 0.9})}
	conv := newConverter(t, primary, nil)

	got, err := conv.Convert(context.Background(), 123.45, "USD", "usd", time.Now())
	require.NoError(t, err)
	require.Equal(t, 123.45, got)
	require.EqualValues(t, 0, primary.calls.Load(), "identity conversion must not touch the network")
}

func TestConvert_NegativeAmountRejected(t *testing.T) {
	primary := &fakeProvider{name: "primary", fetch: rateTable(map[string]any{"EUR": 0.9})}
	conv := newConverter(t, primary, nil)

	_, err := conv.Convert(context.Background(), -10, "USD", "EUR", time.Now())
	var de *collectors.DomainError
	require.ErrorAs(t, err, &de)
	require.EqualValues(t, 0, primary.calls.Load())
}

func TestConvert_UnknownCurrency(t *testing.T) {
	primary := &fakeProvider{name: "primary", fetch: rateTable(map[string]any{"EUR": 0.9})}
	conv := newConverter(t, primary, nil)

	_, err := conv.Convert(context.Background(), 10, "USD", "ZZZ", time.Now())
	var uc *currency.UnknownCurrencyError
	require.ErrorAs(t, err, &uc)
	require.Equal(t, "ZZZ", uc.Code)

	_, err = conv.Convert(context.Background(), 10, "XXX", "EUR", time.Now())
	require.ErrorAs(t, err, &uc)
}

func TestConvert_CachedRateWinsOverNetwork(t *testing.T) {
	primary := &fakeProvider{name: "primary", fetch: rateTable(map[string]any{"EUR": 0.5})}
	cache := &memCache{}
	date := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	require.NoError(t, cache.SaveRate(context.Background(), "USD", "EUR", records.Midnight(date), 0.9))
	cache.saves = 0

	conv := newConverter(t, primary, cache)
	got, err := conv.Convert(context.Background(), 100, "USD", "EUR", date)
	require.NoError(t, err)
	require.InDelta(t, 90.0, got, 1e-9)
	require.EqualValues(t, 0, primary.calls.Load(), "cached rate must suppress the network fetch")
	require.Zero(t, cache.saves, "cache hits are not rewritten")
}

func TestConvert_CacheMiss_FetchesAndWritesThrough(t *testing.T) {
	primary := &fakeProvider{name: "primary", fetch: rateTable(map[string]any{"EUR": 0.91})}
	cache := &memCache{}
	conv := newConverter(t, primary, cache)

	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	got, err := conv.Convert(context.Background(), 200, "USD", "EUR", date)
	require.NoError(t, err)
	require.InDelta(t, 182.0, got, 1e-9)
	require.EqualValues(t, 1, primary.calls.Load())
	require.Equal(t, 1, cache.saves, "fetched rate must be written through")

	// Second conversion for the same pair and date comes from the cache.
	_, err = conv.Convert(context.Background(), 50, "USD", "EUR", date)
	require.NoError(t, err)
	require.EqualValues(t, 1, primary.calls.Load())
}

func TestRate_FallbackProviderAnswers(t *testing.T) {
	primary := &fakeProvider{name: "primary", fetch: func(records.Location) (map[string]any, error) {
		return nil, collectors.Transient("primary", errors.New("503"))
	}}
	fallback := &fakeProvider{name: "fallback", fetch: rateTable(map[string]any{"EUR": 0.88})}

	conv, err := currency.New(currency.Config{
		BaseCurrency: "USD",
		Primary:      primary,
		Fallback:     fallback,
		Retry:        collectors.RetryPolicy{MaxAttempts: 1},
	})
	require.NoError(t, err)

	rate, err := conv.Rate(context.Background(), "USD", "EUR", time.Now())
	require.NoError(t, err)
	require.Equal(t, 0.88, rate)
	require.EqualValues(t, 1, primary.calls.Load())
	require.EqualValues(t, 1, fallback.calls.Load())
}

func TestNew_Validation(t *testing.T) {
	primary := &fakeProvider{name: "primary", fetch: rateTable(nil)}

	_, err := currency.New(currency.Config{Primary: primary})
	var ce *collectors.ConfigError
	require.ErrorAs(t, err, &ce, "empty base currency")

	_, err = currency.New(currency.Config{BaseCurrency: "ZZZ", Primary: primary})
	require.ErrorAs(t, err, &ce, "unknown base currency")

	_, err = currency.New(currency.Config{BaseCurrency: "USD"})
	require.ErrorAs(t, err, &ce, "missing primary provider")
}

func TestPairs_SkipsBaseAndBlanks(t *testing.T) {
	pairs := currency.Pairs("usd", []string{"eur", "USD", " ", "gbp"})
	require.Len(t, pairs, 2)
	require.Equal(t, records.Location{Country: "USD", City: "EUR"}, pairs[0])
	require.Equal(t, records.Location{Country: "USD", City: "GBP"}, pairs[1])
}

func TestCollect_BatchRatesForConfiguredPairs(t *testing.T) {
	primary := &fakeProvider{name: "primary", fetch: rateTable(map[string]any{"EUR": 0.91, "GBP": 0.78})}
	conv := newConverter(t, primary, nil)

	pairs := currency.Pairs("USD", []string{"EUR", "GBP"})
	recs, err := conv.Collect(context.Background(), pairs, records.SingleDay(time.Now()), false)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, 0.91, recs[0].Normalized[records.FieldRate])
	require.Equal(t, 0.78, recs[1].Normalized[records.FieldRate])
}
