package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/records"
)

// Listing field-mapping table (scraped competitor listing shape):
//
//	listing_id    <- "listing_id" | "id"
//	price         <- "price" (number, or money string like "$1,234.00")
//	bedrooms      <- "bedrooms"
//	bathrooms     <- "bathrooms"
//	accommodates  <- "accommodates" | "person_capacity"
//	latitude      <- "latitude" | "lat"
//	longitude     <- "longitude" | "lng"
//
// Everything past listing_id and price is optional and defaults to nil.

func isListingShape(raw map[string]any) bool {
	_, hasPrice := raw["price"]
	if !hasPrice {
		return false
	}
	if _, ok := raw["listing_id"]; ok {
		return true
	}
	_, hasID := raw["id"]
	return hasID
}

// Listing normalizes one scraped competitor listing.
func Listing(raw map[string]any, loc records.Location, date time.Time) (records.Record, error) {
	var missing []string

	id := firstString(raw, "listing_id", "id")
	if id == "" {
		missing = append(missing, "listing_id")
	}

	price, ok := moneyValue(raw["price"])
	if !ok {
		missing = append(missing, "price")
	}

	if len(missing) > 0 {
		return records.Record{}, &collectors.NormalizationError{
			Source:  "listing",
			Missing: missing,
			Reason:  "required fields absent",
		}
	}

	norm := map[string]any{
		records.FieldListingID: id,
		records.FieldPrice:     price,
	}
	putNumeric(norm, records.FieldBedrooms, raw, "bedrooms")
	putNumeric(norm, records.FieldBathrooms, raw, "bathrooms")
	putNumeric(norm, records.FieldAccommodates, raw, "accommodates", "person_capacity")
	putNumeric(norm, records.FieldLatitude, raw, "latitude", "lat")
	putNumeric(norm, records.FieldLongitude, raw, "longitude", "lng")

	return records.Record{
		Source:     records.SourceCompetitor,
		Country:    loc.Country,
		City:       loc.City,
		DataDate:   records.Midnight(date),
		Raw:        raw,
		Normalized: norm,
	}, nil
}

// moneyValue accepts a plain number or a money-formatted string and returns
// a currency-neutral numeric.
func moneyValue(v any) (float64, bool) {
	if n, ok := numeric(v); ok {
		return n, true
	}
	s, ok := asString(v)
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£¥ ")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := asString(v); ok && s != "" {
			return s
		}
		if n, ok := numeric(v); ok {
			return strconv.FormatInt(int64(n), 10)
		}
	}
	return ""
}

func putNumeric(norm map[string]any, field string, raw map[string]any, keys ...string) {
	for _, k := range keys {
		if n, ok := numeric(raw[k]); ok {
			norm[field] = n
			return
		}
	}
	norm[field] = nil
}

// ListingItems extracts the per-listing raw payloads from a scraping job
// result. Used as the Explode hook of the competitor collector.
func ListingItems(raw map[string]any) []map[string]any {
	arr, ok := raw["listings"].([]any)
	if !ok {
		return []map[string]any{raw}
	}
	out := make([]map[string]any, 0, len(arr))
	for _, v := range arr {
		if m, ok := asMap(v); ok {
			out = append(out, m)
		}
	}
	return out
}
