// Package exchangerate fetches rates from the ExchangeRate-API-compatible
// service, used as the fallback in the currency provider chain. Its payload
// carries base_code + conversion_rates.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/httpx"
	"github.com/luguas/priceye/internal/records"
)

const defaultBaseURL = "https://v6.exchangerate-api.com/v6"

type Client struct {
	apiKey  string
	baseURL string
}

// New builds a client; a missing API key fails fast as a configuration
// error.
func New(apiKey, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, collectors.NewConfigError("exchangerate.api_key", "API key is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (c *Client) Name() string { return "exchangerate" }

// Fetch returns the rate table for the pair encoded in loc (Country=base,
// City=quote) on the given date.
func (c *Client) Fetch(ctx context.Context, sess *httpx.Session, loc records.Location, date time.Time) (map[string]any, error) {
	d := records.Midnight(date)
	u := fmt.Sprintf("%s/%s/history/%s/%d/%d/%d",
		c.baseURL, c.apiKey, strings.ToUpper(loc.Country), d.Year(), int(d.Month()), d.Day())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
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
		return nil, collectors.NewConfigError("exchangerate.api_key", "rejected by provider: "+resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, collectors.Transient(c.Name(), fmt.Errorf("exchangerate API %s: %s", resp.Status, string(snippet)))
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, collectors.Transient(c.Name(), fmt.Errorf("decode response: %w", err))
	}
	return raw, nil
}
