// Package normalize converts provider-specific payload shapes into the
// canonical record. Each source has a fixed field-mapping table; when the
// caller does not know which provider produced a payload, an ordered list of
// shape predicates picks the normalizer.
package normalize

import (
	"time"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/records"
)

// Func maps one raw payload to a canonical record.
type Func func(raw map[string]any, loc records.Location, date time.Time) (records.Record, error)

// detector pairs a structural predicate with the normalizer to apply.
// Evaluated in priority order; the most distinctive shapes go first.
type detector struct {
	name  string
	match func(raw map[string]any) bool
	fn    Func
}

var registry = []detector{
	{name: "openweather", match: isOpenWeatherShape, fn: OpenWeather},
	{name: "weatherapi", match: isWeatherAPIShape, fn: WeatherAPI},
	{name: "listing", match: isListingShape, fn: Listing},
	{name: "rates", match: isRatesShape, fn: Rates},
}

// Detect normalizes a payload of unknown origin by structural sniffing.
// Empty or ambiguous input is an error, never a guess.
func Detect(raw map[string]any, loc records.Location, date time.Time) (records.Record, error) {
	if len(raw) == 0 {
		return records.Record{}, &collectors.NormalizationError{
			Source: "auto",
			Reason: "empty payload",
		}
	}
	for _, d := range registry {
		if d.match(raw) {
			return d.fn(raw, loc, date)
		}
	}
	return records.Record{}, &collectors.NormalizationError{
		Source: "auto",
		Reason: "payload matches no known provider shape",
	}
}

// ForSource returns the normalizer registered under name, or Detect for an
// empty name.
func ForSource(name string) (Func, bool) {
	if name == "" {
		return Detect, true
	}
	for _, d := range registry {
		if d.name == name {
			return d.fn, true
		}
	}
	return nil, false
}

// numeric coerces the value types encoding/json produces into a float64.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
