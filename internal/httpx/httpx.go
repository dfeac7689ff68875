// Package httpx owns the outbound network session used by collectors. A
// Session wraps one http.Client with a tuned transport; the collector
// acquires it on entry to a collection run and releases it on every exit
// path.
package httpx

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Session is a collector-owned HTTP session. Not shared across collector
// instances.
type Session struct {
	HTTP      *http.Client
	UserAgent string

	closed bool
}

// NewSession builds a session with connection pooling sized for many
// concurrent (location, date) fetches against a handful of hosts.
func NewSession(timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Session{
		HTTP:      &http.Client{Timeout: timeout, Transport: transport},
		UserAgent: "priceye/1.0",
	}
}

// Do attaches the default User-Agent and executes the request.
func (s *Session) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if s.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	return s.HTTP.Do(req)
}

// Close releases pooled connections. Safe to call more than once.
func (s *Session) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	s.HTTP.CloseIdleConnections()
}

// Closed reports whether Close has been called. Used by fault-injection
// tests to assert the scoped-release invariant.
func (s *Session) Closed() bool {
	return s != nil && s.closed
}
