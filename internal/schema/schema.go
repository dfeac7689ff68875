// Package schema provides structural validation of normalized mappings
// against declared field-type schemas, plus a registry of per-table schemas.
package schema

import (
	"github.com/luguas/priceye/internal/records"
)

// Kind is the expected type of a schema field.
type Kind string

const (
	String Kind = "string"
	Int    Kind = "int"
	Float  Kind = "float"
	Bool   Kind = "bool"
)

// Schema maps field names to expected kinds.
type Schema map[string]Kind

// Validate checks data against schema. Rules:
//   - a field declared in the schema but absent from data fails;
//   - a field present with a nil value passes ("not yet known");
//   - a field present with a mismatched type fails;
//   - an empty schema always passes.
func Validate(data map[string]any, s Schema) bool {
	for field, kind := range s {
		v, ok := data[field]
		if !ok {
			return false
		}
		if v == nil {
			continue
		}
		if !matches(v, kind) {
			return false
		}
	}
	return true
}

func matches(v any, kind Kind) bool {
	switch kind {
	case String:
		_, ok := v.(string)
		return ok
	case Int:
		switch v.(type) {
		case int, int32, int64:
			return true
		}
		return false
	case Float:
		switch v.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case Bool:
		_, ok := v.(bool)
		return ok
	}
	return false
}

// tables registers the expected normalized shape per storage table. Keys
// mirror the per-domain vocabulary of the canonical record.
var tables = map[string]Schema{
	"weather_data": {
		records.FieldTemperature:      Float,
		records.FieldHumidity:         Int,
		records.FieldWeatherCondition: String,
	},
	"competitor_listings": {
		records.FieldListingID:    String,
		records.FieldPrice:        Float,
		records.FieldBedrooms:     Float,
		records.FieldBathrooms:    Float,
		records.FieldAccommodates: Float,
		records.FieldLatitude:     Float,
		records.FieldLongitude:    Float,
	},
	"currency_rates": {
		records.FieldBaseCurrency:  String,
		records.FieldQuoteCurrency: String,
		records.FieldRate:          Float,
	},
}

// ValidateTable validates data against the registered schema for table.
// Unknown tables pass permissively: no schema declared means no constraints
// enforced.
func ValidateTable(table string, data map[string]any) bool {
	s, ok := tables[table]
	if !ok {
		return true
	}
	return Validate(data, s)
}

// TableSchema exposes the registered schema, if any.
func TableSchema(table string) (Schema, bool) {
	s, ok := tables[table]
	return s, ok
}
