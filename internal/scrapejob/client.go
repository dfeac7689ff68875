// Package scrapejob talks to the remote scraping job API that gathers
// competitor listing data: submit a job for a location, poll until a
// terminal status, then fetch the result items.
package scrapejob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/httpx"
)

const (
	defaultBaseURL      = "https://api.scrapejobs.io/v2"
	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 5 * time.Minute
)

// Job statuses reported by the API.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Config provides optional overrides.
type Config struct {
	BaseURL      string
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Client is an authenticated scraping job API client. Construction fails
// fast without a token; no network call is attempted to find out.
type Client struct {
	token        string
	baseURL      string
	pollInterval time.Duration
	pollTimeout  time.Duration
	breaker      *gobreaker.CircuitBreaker
}

// New builds a client. An empty token is a configuration error, not a
// network error.
func New(token string, cfg Config) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, collectors.NewConfigError("scrapejob.token", "API token is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "scrapejob",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &Client{
		token:        token,
		baseURL:      strings.TrimRight(base, "/"),
		pollInterval: interval,
		pollTimeout:  timeout,
		breaker:      cb,
	}, nil
}

// JobQuery describes what to scrape.
type JobQuery struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Date    string `json:"date"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type JobState struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Submit creates a scraping job and returns its ID.
func (c *Client) Submit(ctx context.Context, sess *httpx.Session, q JobQuery) (string, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("marshal job query: %w", err)
	}
	var out submitResponse
	if err := c.do(ctx, sess, http.MethodPost, "/jobs", body, &out); err != nil {
		return "", err
	}
	if out.JobID == "" {
		return "", collectors.Transient("scrapejob", fmt.Errorf("submit returned no job id"))
	}
	return out.JobID, nil
}

// Status fetches the current job status.
func (c *Client) Status(ctx context.Context, sess *httpx.Session, jobID string) (JobState, error) {
	var out JobState
	err := c.do(ctx, sess, http.MethodGet, "/jobs/"+jobID, nil, &out)
	return out, err
}

// Items streams the result payload of a succeeded job.
func (c *Client) Items(ctx context.Context, sess *httpx.Session, jobID string) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, sess, http.MethodGet, "/jobs/"+jobID+"/items", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Run drives the full lifecycle: submit, poll to a terminal status, fetch
// items. A job that terminates as failed surfaces as a transient error so
// the standard retry policy applies to it.
func (c *Client) Run(ctx context.Context, sess *httpx.Session, q JobQuery) (map[string]any, error) {
	jobID, err := c.Submit(ctx, sess, q)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.pollTimeout)
	for {
		st, err := c.Status(ctx, sess, jobID)
		if err != nil {
			return nil, err
		}
		switch st.Status {
		case StatusSucceeded:
			return c.Items(ctx, sess, jobID)
		case StatusFailed:
			return nil, collectors.Transient("scrapejob", fmt.Errorf("job %s failed: %s", jobID, st.Error))
		}

		if time.Now().After(deadline) {
			return nil, collectors.Transient("scrapejob", fmt.Errorf("job %s did not finish within %s", jobID, c.pollTimeout))
		}
		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// do executes one API call through the circuit breaker and classifies the
// outcome: connection failures and 5xx/429 are transient, 401/403 is a
// configuration fault, other non-2xx statuses are terminal.
func (c *Client) do(ctx context.Context, sess *httpx.Session, method, path string, body []byte, dst any) error {
	result, err := c.breaker.Execute(func() (any, error) {
		var rdr io.Reader
		if body != nil {
			rdr = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := sess.Do(ctx, req)
		if err != nil {
			return nil, collectors.Transient("scrapejob", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, collectors.Transient("scrapejob", err)
			}
			return data, nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, collectors.NewConfigError("scrapejob.token", "rejected by provider: "+resp.Status)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return nil, collectors.Transient("scrapejob", fmt.Errorf("scrapejob API %s", resp.Status))
		default:
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return nil, fmt.Errorf("scrapejob API %s: %s", resp.Status, string(snippet))
		}
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return collectors.Transient("scrapejob", err)
		}
		return err
	}
	if dst != nil {
		if err := json.Unmarshal(result.([]byte), dst); err != nil {
			return fmt.Errorf("decode scrapejob response: %w", err)
		}
	}
	return nil
}
