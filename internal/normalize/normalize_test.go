package normalize

import (
	"errors"
	"testing"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/records"
)

func TestDetect_PicksNormalizerByShape(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
		want records.Source
	}{
		{
			"openweather",
			map[string]any{
				"main":    map[string]any{"temp": 290.0},
				"weather": []any{},
			},
			records.SourceWeather,
		},
		{
			"weatherapi",
			map[string]any{"current": map[string]any{"temp_c": 18.0}},
			records.SourceWeather,
		},
		{
			"listing",
			map[string]any{"listing_id": "x", "price": 10.0},
			records.SourceCompetitor,
		},
		{
			"rates",
			map[string]any{"rates": map[string]any{"EUR": 0.9}},
			records.SourceCurrency,
		},
	}
	for _, c := range cases {
		loc := testLoc
		if c.want == records.SourceCurrency {
			loc = records.Location{Country: "USD", City: "EUR"}
		}
		rec, err := Detect(c.raw, loc, testDate)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if rec.Source != c.want {
			t.Fatalf("%s: want source %v, got %v", c.name, c.want, rec.Source)
		}
	}
}

func TestDetect_EmptyPayload(t *testing.T) {
	_, err := Detect(map[string]any{}, testLoc, testDate)
	var ne *collectors.NormalizationError
	if !errors.As(err, &ne) {
		t.Fatalf("want NormalizationError, got %v", err)
	}

	_, err = Detect(nil, testLoc, testDate)
	if !errors.As(err, &ne) {
		t.Fatalf("nil payload: want NormalizationError, got %v", err)
	}
}

func TestDetect_UnknownShape(t *testing.T) {
	_, err := Detect(map[string]any{"mystery": true}, testLoc, testDate)
	var ne *collectors.NormalizationError
	if !errors.As(err, &ne) {
		t.Fatalf("want NormalizationError, got %v", err)
	}
}

func TestForSource(t *testing.T) {
	for _, name := range []string{"openweather", "weatherapi", "listing", "rates"} {
		if _, ok := ForSource(name); !ok {
			t.Fatalf("normalizer %q not registered", name)
		}
	}
	if _, ok := ForSource("nope"); ok {
		t.Fatal("unknown name must not resolve")
	}
	fn, ok := ForSource("")
	if !ok || fn == nil {
		t.Fatal("empty name should resolve to auto-detection")
	}
}
