package weather_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/httpx"
	"github.com/luguas/priceye/internal/records"
	"github.com/luguas/priceye/internal/weather"
)

type fakeProvider struct {
	name  string
	calls int
	fetch func(loc records.Location) (map[string]any, error)
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Fetch(ctx context.Context, sess *httpx.Session, loc records.Location, date time.Time) (map[string]any, error) {
	p.calls++
	return p.fetch(loc)
}

func openWeatherPayload(kelvin float64) map[string]any {
	return map[string]any{
		"main":    map[string]any{"temp": kelvin, "humidity": 70.0},
		"weather": []any{map[string]any{"description": "overcast clouds"}},
	}
}

func weatherAPIPayload(celsius float64) map[string]any {
	return map[string]any{
		"current": map[string]any{
			"temp_c":    celsius,
			"humidity":  60.0,
			"condition": map[string]any{"text": "Sunny"},
		},
	}
}

func TestCollect_PrimaryShapeNormalized(t *testing.T) {
	primary := &fakeProvider{name: "openweather", fetch: func(records.Location) (map[string]any, error) {
		return openWeatherPayload(293.15), nil
	}}

	c, err := weather.New(weather.Config{
		Primary: primary,
		Retry:   collectors.RetryPolicy{MaxAttempts: 1},
	})
	require.NoError(t, err)

	locs := []records.Location{{Country: "UK", City: "London"}}
	recs, err := c.Collect(context.Background(), locs, records.SingleDay(time.Now()), false)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.InDelta(t, 20.0, recs[0].Normalized[records.FieldTemperature], 1.0)
	require.Equal(t, string(records.ConditionCloudy), recs[0].Normalized[records.FieldWeatherCondition])
}

func TestCollect_FallbackShapeDetected(t *testing.T) {
	primary := &fakeProvider{name: "openweather", fetch: func(records.Location) (map[string]any, error) {
		return nil, collectors.Transient("openweather", errors.New("503"))
	}}
	fallback := &fakeProvider{name: "weatherapi", fetch: func(records.Location) (map[string]any, error) {
		return weatherAPIPayload(20.5), nil
	}}

	c, err := weather.New(weather.Config{
		Primary:  primary,
		Fallback: fallback,
		Retry:    collectors.RetryPolicy{MaxAttempts: 1},
	})
	require.NoError(t, err)

	locs := []records.Location{{Country: "UK", City: "London"}}
	recs, err := c.Collect(context.Background(), locs, records.SingleDay(time.Now()), false)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.InDelta(t, 20.5, recs[0].Normalized[records.FieldTemperature], 0.1)
	require.Equal(t, string(records.ConditionSunny), recs[0].Normalized[records.FieldWeatherCondition])
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 1, fallback.calls)
}

func TestNew_RequiresPrimary(t *testing.T) {
	_, err := weather.New(weather.Config{})
	var ce *collectors.ConfigError
	require.ErrorAs(t, err, &ce)
}
