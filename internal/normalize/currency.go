package normalize

import (
	"strings"
	"time"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/records"
)

// Rates field-mapping table. Two wire shapes are recognized:
//
//	frankfurter shape:      base, rates{CODE: rate}
//	exchangerate-api shape: base_code, conversion_rates{CODE: rate}
//
// The location carries the pair: Country is the base code, City the quote
// code (currency records have no geographic location).

func isRatesShape(raw map[string]any) bool {
	if _, ok := asMap(raw["rates"]); ok {
		return true
	}
	_, ok := asMap(raw["conversion_rates"])
	return ok
}

// Rates normalizes one rate table payload into a record for the pair named
// by loc.
func Rates(raw map[string]any, loc records.Location, date time.Time) (records.Record, error) {
	base := strings.ToUpper(loc.Country)
	quote := strings.ToUpper(loc.City)

	table, ok := asMap(raw["rates"])
	if !ok {
		table, ok = asMap(raw["conversion_rates"])
	}
	if !ok {
		return records.Record{}, &collectors.NormalizationError{
			Source:  "rates",
			Missing: []string{"rates"},
			Reason:  "no rate table in payload",
		}
	}

	rate, ok := numeric(table[quote])
	if !ok {
		return records.Record{}, &collectors.NormalizationError{
			Source:  "rates",
			Missing: []string{"rates." + quote},
			Reason:  "quote currency absent from rate table",
		}
	}

	return records.Record{
		Source:   records.SourceCurrency,
		Country:  base,
		City:     quote,
		DataDate: records.Midnight(date),
		Raw:      raw,
		Normalized: map[string]any{
			records.FieldBaseCurrency:  base,
			records.FieldQuoteCurrency: quote,
			records.FieldRate:          rate,
		},
	}, nil
}
