package normalize

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/records"
)

var (
	testLoc  = records.Location{Country: "UK", City: "London"}
	testDate = time.Date(2026, 8, 20, 15, 30, 0, 0, time.UTC)
)

func TestOpenWeather_KelvinToCelsius(t *testing.T) {
	raw := map[string]any{
		"main":    map[string]any{"temp": 293.15, "humidity": 65.0},
		"weather": []any{map[string]any{"main": "Clear", "description": "clear sky"}},
	}
	rec, err := OpenWeather(raw, testLoc, testDate)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	temp, ok := rec.Normalized[records.FieldTemperature].(float64)
	if !ok {
		t.Fatalf("temperature missing: %+v", rec.Normalized)
	}
	if math.Abs(temp-20.0) > 1.0 {
		t.Fatalf("293.15K: want 20.0±1.0 °C, got %v", temp)
	}
	if h := rec.Normalized[records.FieldHumidity]; h != 65 {
		t.Fatalf("humidity: want 65, got %v", h)
	}
	if c := rec.Normalized[records.FieldWeatherCondition]; c != string(records.ConditionSunny) {
		t.Fatalf("condition: want sunny, got %v", c)
	}
	if rec.Source != records.SourceWeather || rec.City != "London" {
		t.Fatalf("record identity wrong: %+v", rec)
	}
	if !rec.DataDate.Equal(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("data date not truncated: %v", rec.DataDate)
	}
}

func TestWeatherAPI_CelsiusPassthrough(t *testing.T) {
	raw := map[string]any{
		"current": map[string]any{
			"temp_c":    20.5,
			"humidity":  80.0,
			"condition": map[string]any{"text": "Patchy rain possible"},
		},
	}
	rec, err := WeatherAPI(raw, testLoc, testDate)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	temp := rec.Normalized[records.FieldTemperature].(float64)
	if math.Abs(temp-20.5) > 0.1 {
		t.Fatalf("want 20.5±0.1 °C, got %v", temp)
	}
	if c := rec.Normalized[records.FieldWeatherCondition]; c != string(records.ConditionRainy) {
		t.Fatalf("condition: want rainy, got %v", c)
	}
}

func TestOpenWeather_MissingTemperatureFails(t *testing.T) {
	raw := map[string]any{
		"main":    map[string]any{"humidity": 50.0},
		"weather": []any{},
	}
	_, err := OpenWeather(raw, testLoc, testDate)
	var ne *collectors.NormalizationError
	if !errors.As(err, &ne) {
		t.Fatalf("want NormalizationError, got %v", err)
	}
	if len(ne.Missing) != 1 || ne.Missing[0] != "main.temp" {
		t.Fatalf("missing fields: %v", ne.Missing)
	}
}

func TestOpenWeather_OptionalFieldsDefaultToNil(t *testing.T) {
	raw := map[string]any{
		"main":    map[string]any{"temp": 280.0},
		"weather": []any{},
	}
	rec, err := OpenWeather(raw, testLoc, testDate)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if v, ok := rec.Normalized[records.FieldHumidity]; !ok || v != nil {
		t.Fatalf("humidity: want explicit nil, got %v (present=%v)", v, ok)
	}
	if v, ok := rec.Normalized[records.FieldWeatherCondition]; !ok || v != nil {
		t.Fatalf("condition: want explicit nil, got %v (present=%v)", v, ok)
	}
}

func TestMapCondition_KeywordTable(t *testing.T) {
	cases := []struct {
		text string
		want records.Condition
	}{
		{"clear sky", records.ConditionSunny},
		{"Sunny", records.ConditionSunny},
		{"scattered clouds", records.ConditionCloudy},
		{"overcast", records.ConditionCloudy},
		{"fog", records.ConditionCloudy},
		{"light rain", records.ConditionRainy},
		{"Patchy light drizzle", records.ConditionRainy},
		{"thunderstorm with light rain", records.ConditionStormy},
		{"blizzard", records.ConditionSnowy},
		{"sleet showers", records.ConditionSnowy},
		{"volcanic ash", records.ConditionCloudy}, // unknown text defaults to cloudy
	}
	for _, c := range cases {
		got, ok := MapCondition(c.text)
		if !ok || got != c.want {
			t.Fatalf("MapCondition(%q) = %v/%v, want %v", c.text, got, ok, c.want)
		}
	}

	if _, ok := MapCondition("  "); ok {
		t.Fatal("empty text must report no match")
	}
}

func TestClampHumidity(t *testing.T) {
	if clampHumidity(-5) != 0 || clampHumidity(130) != 100 || clampHumidity(64.6) != 65 {
		t.Fatal("humidity clamp broken")
	}
}
