// Package openweather fetches current and historical conditions from the
// OpenWeather-compatible API. Payload temperatures are on the Kelvin scale;
// the weather normalizer converts them.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/httpx"
	"github.com/luguas/priceye/internal/records"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

type Client struct {
	apiKey  string
	baseURL string
}

// New builds a client; a missing API key fails fast as a configuration
// error.
func New(apiKey, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, collectors.NewConfigError("openweather.api_key", "API key is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{apiKey: apiKey, baseURL: baseURL}, nil
}

func (c *Client) Name() string { return "openweather" }

// Fetch returns the raw payload for one location and date. Dates other than
// today go through the dt parameter of the history endpoint.
func (c *Client) Fetch(ctx context.Context, sess *httpx.Session, loc records.Location, date time.Time) (map[string]any, error) {
	values := url.Values{}
	values.Set("appid", c.apiKey)
	q := loc.City
	if loc.Country != "" {
		q = fmt.Sprintf("%s,%s", loc.City, loc.Country)
	}
	values.Set("q", q)
	if d := records.Midnight(date); !d.Equal(records.Midnight(time.Now())) {
		values.Set("dt", strconv.FormatInt(d.Unix(), 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := sess.Do(ctx, req)
	if err != nil {
		return nil, collectors.Transient(c.Name(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, collectors.NewConfigError("openweather.api_key", "rejected by provider: "+resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, collectors.Transient(c.Name(), fmt.Errorf("openweather API %s: %s", resp.Status, string(snippet)))
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, collectors.Transient(c.Name(), fmt.Errorf("decode response: %w", err))
	}
	return raw, nil
}
