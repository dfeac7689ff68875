// Package frankfurter fetches daily reference exchange rates from the
// Frankfurter API. No API key is required; the payload carries a
// base + rates table.
package frankfurter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/httpx"
	"github.com/luguas/priceye/internal/records"
)

const defaultBaseURL = "https://api.frankfurter.app"

type Client struct {
	baseURL string
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Client) Name() string { return "frankfurter" }

// Fetch returns the rate table for the pair encoded in loc (Country=base,
// City=quote) on the given date.
func (c *Client) Fetch(ctx context.Context, sess *httpx.Session, loc records.Location, date time.Time) (map[string]any, error) {
	values := url.Values{}
	values.Set("from", strings.ToUpper(loc.Country))

	u := fmt.Sprintf("%s/%s?%s", c.baseURL, records.Midnight(date).Format("2006-01-02"), values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := sess.Do(ctx, req)
	if err != nil {
		return nil, collectors.Transient(c.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, collectors.Transient(c.Name(), fmt.Errorf("frankfurter API %s: %s", resp.Status, string(snippet)))
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, collectors.Transient(c.Name(), fmt.Errorf("decode response: %w", err))
	}
	return raw, nil
}
