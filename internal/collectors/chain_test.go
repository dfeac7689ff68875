package collectors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/luguas/priceye/internal/httpx"
	"github.com/luguas/priceye/internal/records"
)

type stubStrategy struct {
	name  string
	calls int
	fetch func() (map[string]any, error)
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(ctx context.Context, sess *httpx.Session, loc records.Location, date time.Time) (map[string]any, error) {
	s.calls++
	return s.fetch()
}

func TestChain_PrimaryAnswers_FallbackUntouched(t *testing.T) {
	primary := &stubStrategy{name: "primary", fetch: func() (map[string]any, error) {
		return map[string]any{"ok": true}, nil
	}}
	fallback := &stubStrategy{name: "fallback", fetch: func() (map[string]any, error) {
		t.Fatal("fallback must not be consulted when primary answers")
		return nil, nil
	}}

	chain, err := NewChain(records.SourceWeather, primary, fallback)
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}
	raw, err := chain.FetchRaw(context.Background(), nil, records.Location{}, time.Now())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if raw["ok"] != true {
		t.Fatalf("unexpected payload: %+v", raw)
	}
	if primary.calls != 1 || fallback.calls != 0 {
		t.Fatalf("call counts: primary=%d fallback=%d", primary.calls, fallback.calls)
	}
}

func TestChain_FallsBackOnlyOnTransient(t *testing.T) {
	primary := &stubStrategy{name: "primary", fetch: func() (map[string]any, error) {
		return nil, Transient("primary", errors.New("503"))
	}}
	fallback := &stubStrategy{name: "fallback", fetch: func() (map[string]any, error) {
		return map[string]any{"from": "fallback"}, nil
	}}

	chain, _ := NewChain(records.SourceWeather, primary, fallback)
	raw, err := chain.FetchRaw(context.Background(), nil, records.Location{}, time.Now())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if raw["from"] != "fallback" {
		t.Fatalf("expected fallback payload, got %+v", raw)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Fatalf("call counts: primary=%d fallback=%d", primary.calls, fallback.calls)
	}
}

func TestChain_NonRetryableAbortsChain(t *testing.T) {
	primary := &stubStrategy{name: "primary", fetch: func() (map[string]any, error) {
		return nil, NewConfigError("primary.key", "rejected")
	}}
	fallback := &stubStrategy{name: "fallback", fetch: func() (map[string]any, error) {
		t.Fatal("fallback must not run after a non-retryable failure")
		return nil, nil
	}}

	chain, _ := NewChain(records.SourceWeather, primary, fallback)
	_, err := chain.FetchRaw(context.Background(), nil, records.Location{}, time.Now())
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("want ConfigError, got %v", err)
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback consulted %d times", fallback.calls)
	}
}

func TestChain_AllUnavailable_SurfacesTransient(t *testing.T) {
	down := func() (map[string]any, error) {
		return nil, Transient("p", errors.New("down"))
	}
	chain, _ := NewChain(records.SourceWeather,
		&stubStrategy{name: "a", fetch: down},
		&stubStrategy{name: "b", fetch: down},
	)
	_, err := chain.FetchRaw(context.Background(), nil, records.Location{}, time.Now())
	if !IsRetryable(err) {
		t.Fatalf("exhausted chain should be retryable, got %v", err)
	}
}

func TestChain_RequiresAtLeastOneProvider(t *testing.T) {
	if _, err := NewChain(records.SourceWeather); err == nil {
		t.Fatal("expected error for empty chain")
	}
}
