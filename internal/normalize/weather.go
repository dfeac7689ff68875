package normalize

import (
	"math"
	"strings"
	"time"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/records"
)

const kelvinOffset = 273.15

// Field-mapping tables:
//
//	openweather shape: main.temp (Kelvin), main.humidity, weather[0].main/description
//	weatherapi shape:  current.temp_c (Celsius), current.humidity, current.condition.text
//
// Missing optional fields (humidity, condition) come through as nil.

func isOpenWeatherShape(raw map[string]any) bool {
	_, hasMain := raw["main"]
	_, hasWeather := raw["weather"]
	return hasMain && hasWeather
}

func isWeatherAPIShape(raw map[string]any) bool {
	cur, ok := asMap(raw["current"])
	if !ok {
		return false
	}
	_, hasTemp := cur["temp_c"]
	return hasTemp
}

// OpenWeather normalizes the Kelvin-scale provider payload.
func OpenWeather(raw map[string]any, loc records.Location, date time.Time) (records.Record, error) {
	main, ok := asMap(raw["main"])
	if !ok {
		return records.Record{}, &collectors.NormalizationError{
			Source:  "openweather",
			Missing: []string{"main"},
			Reason:  "unparseable payload",
		}
	}
	kelvin, ok := numeric(main["temp"])
	if !ok {
		return records.Record{}, &collectors.NormalizationError{
			Source:  "openweather",
			Missing: []string{"main.temp"},
			Reason:  "temperature required",
		}
	}

	norm := map[string]any{
		records.FieldTemperature: round1(kelvin - kelvinOffset),
	}
	if h, ok := numeric(main["humidity"]); ok {
		norm[records.FieldHumidity] = clampHumidity(h)
	} else {
		norm[records.FieldHumidity] = nil
	}

	var text string
	if arr, ok := raw["weather"].([]any); ok && len(arr) > 0 {
		if w, ok := asMap(arr[0]); ok {
			if s, ok := asString(w["description"]); ok && s != "" {
				text = s
			} else if s, ok := asString(w["main"]); ok {
				text = s
			}
		}
	}
	norm[records.FieldWeatherCondition] = conditionValue(text)

	return weatherRecord(raw, norm, loc, date), nil
}

// WeatherAPI normalizes the Celsius-scale provider payload.
func WeatherAPI(raw map[string]any, loc records.Location, date time.Time) (records.Record, error) {
	cur, ok := asMap(raw["current"])
	if !ok {
		return records.Record{}, &collectors.NormalizationError{
			Source:  "weatherapi",
			Missing: []string{"current"},
			Reason:  "unparseable payload",
		}
	}
	celsius, ok := numeric(cur["temp_c"])
	if !ok {
		return records.Record{}, &collectors.NormalizationError{
			Source:  "weatherapi",
			Missing: []string{"current.temp_c"},
			Reason:  "temperature required",
		}
	}

	norm := map[string]any{
		records.FieldTemperature: round1(celsius),
	}
	if h, ok := numeric(cur["humidity"]); ok {
		norm[records.FieldHumidity] = clampHumidity(h)
	} else {
		norm[records.FieldHumidity] = nil
	}

	var text string
	if cond, ok := asMap(cur["condition"]); ok {
		text, _ = asString(cond["text"])
	}
	norm[records.FieldWeatherCondition] = conditionValue(text)

	return weatherRecord(raw, norm, loc, date), nil
}

func weatherRecord(raw, norm map[string]any, loc records.Location, date time.Time) records.Record {
	return records.Record{
		Source:     records.SourceWeather,
		Country:    loc.Country,
		City:       loc.City,
		DataDate:   records.Midnight(date),
		Raw:        raw,
		Normalized: norm,
	}
}

// conditionKeywords maps free-text description fragments into the fixed
// condition enum. Order matters: storm before rain so "thunderstorm with
// rain" lands on stormy.
var conditionKeywords = []struct {
	keyword string
	cond    records.Condition
}{
	{"thunder", records.ConditionStormy},
	{"storm", records.ConditionStormy},
	{"snow", records.ConditionSnowy},
	{"sleet", records.ConditionSnowy},
	{"blizzard", records.ConditionSnowy},
	{"rain", records.ConditionRainy},
	{"drizzle", records.ConditionRainy},
	{"shower", records.ConditionRainy},
	{"cloud", records.ConditionCloudy},
	{"overcast", records.ConditionCloudy},
	{"mist", records.ConditionCloudy},
	{"fog", records.ConditionCloudy},
	{"haze", records.ConditionCloudy},
	{"sun", records.ConditionSunny},
	{"clear", records.ConditionSunny},
}

// MapCondition folds a free-text description into the condition enum,
// case-insensitively. Unrecognized text defaults to cloudy; empty text
// reports no match.
func MapCondition(text string) (records.Condition, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return "", false
	}
	for _, kw := range conditionKeywords {
		if strings.Contains(t, kw.keyword) {
			return kw.cond, true
		}
	}
	return records.ConditionCloudy, true
}

func conditionValue(text string) any {
	cond, ok := MapCondition(text)
	if !ok {
		return nil
	}
	return string(cond)
}

func clampHumidity(h float64) int {
	if h < 0 {
		return 0
	}
	if h > 100 {
		return 100
	}
	return int(math.Round(h))
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
