package records

import (
	"fmt"
	"time"
)

// Source identifies the logical data domain a record belongs to.
type Source string

const (
	SourceCompetitor Source = "competitor"
	SourceWeather    Source = "weather"
	SourceCurrency   Source = "currency"
)

// Normalized field vocabulary, per source. Normalizers only emit these keys.
const (
	FieldTemperature      = "temperature" // °C
	FieldHumidity         = "humidity"    // 0-100 int
	FieldWeatherCondition = "weather_condition"

	FieldListingID    = "listing_id"
	FieldPrice        = "price" // currency-neutral numeric
	FieldBedrooms     = "bedrooms"
	FieldBathrooms    = "bathrooms"
	FieldAccommodates = "accommodates"
	FieldLatitude     = "latitude"
	FieldLongitude    = "longitude"

	FieldBaseCurrency  = "base_currency"
	FieldQuoteCurrency = "quote_currency"
	FieldRate          = "rate"
)

// Condition is the normalized weather condition enum.
type Condition string

const (
	ConditionSunny  Condition = "sunny"
	ConditionCloudy Condition = "cloudy"
	ConditionRainy  Condition = "rainy"
	ConditionStormy Condition = "stormy"
	ConditionSnowy  Condition = "snowy"
)

// Record is the canonical, source-agnostic representation of one collected
// data point. Raw holds the provider payload verbatim for auditability and
// must not be mutated after the record is built.
type Record struct {
	Source     Source         `json:"source"`
	Country    string         `json:"country"`
	City       string         `json:"city"`
	DataDate   time.Time      `json:"data_date"` // civil date, midnight UTC
	Raw        map[string]any `json:"raw_data"`
	Normalized map[string]any `json:"normalized_data"`
}

// Key returns a stable identity for dedup: same (source, country, city, date)
// always maps to the same key.
func (r Record) Key() string {
	return fmt.Sprintf("%s:%s:%s:%s", r.Source, r.Country, r.City, r.DataDate.Format("2006-01-02"))
}

// Location is a (country, city) pair collectors operate on.
type Location struct {
	Country string `json:"country" yaml:"country"`
	City    string `json:"city" yaml:"city"`
}

func (l Location) Key() string {
	return l.City + ":" + l.Country
}

// DateRange is an inclusive [Start, End] span of civil dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// SingleDay returns a range covering just the given date.
func SingleDay(t time.Time) DateRange {
	d := Midnight(t)
	return DateRange{Start: d, End: d}
}

// Days expands the range into one entry per day. An end before start yields
// an empty slice; callers construct ranges programmatically and an inverted
// range is not worth a panic.
func (r DateRange) Days() []time.Time {
	start := Midnight(r.Start)
	end := Midnight(r.End)
	if end.Before(start) {
		return nil
	}
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Midnight truncates an instant to its civil date in UTC.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
