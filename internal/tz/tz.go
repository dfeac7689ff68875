// Package tz aligns collected timestamps to local market time through a
// static (country, city) -> IANA zone table.
package tz

import (
	"errors"
	"strings"
	"time"
)

// ErrUnknownZone reports a zone identifier that does not resolve to an IANA
// zone. Conversion functions return it rather than passing input through;
// callers that want a tolerant policy check for it explicitly.
var ErrUnknownZone = errors.New("unknown timezone identifier")

// zones keys are lowercase "country/city".
var zones = map[string]string{
	"usa/new york":          "America/New_York",
	"usa/los angeles":       "America/Los_Angeles",
	"usa/chicago":           "America/Chicago",
	"usa/miami":             "America/New_York",
	"uk/london":             "Europe/London",
	"france/paris":          "Europe/Paris",
	"germany/berlin":        "Europe/Berlin",
	"spain/barcelona":       "Europe/Madrid",
	"spain/madrid":          "Europe/Madrid",
	"italy/rome":            "Europe/Rome",
	"portugal/lisbon":       "Europe/Lisbon",
	"netherlands/amsterdam": "Europe/Amsterdam",
	"japan/tokyo":           "Asia/Tokyo",
	"singapore/singapore":   "Asia/Singapore",
	"australia/sydney":      "Australia/Sydney",
	"brazil/rio de janeiro": "America/Sao_Paulo",
	"mexico/mexico city":    "America/Mexico_City",
	"canada/toronto":        "America/Toronto",
	"canada/vancouver":      "America/Vancouver",
	"uae/dubai":             "Asia/Dubai",
	"thailand/bangkok":      "Asia/Bangkok",
	"turkey/istanbul":       "Europe/Istanbul",
	"greece/athens":         "Europe/Athens",
	"austria/vienna":        "Europe/Vienna",
	"czech republic/prague": "Europe/Prague",
}

// ForCity returns the IANA zone for a (city, country) pair, or "" when the
// pair is not in the table. Unknown locations are a sentinel, not an error:
// the caller decides whether local-time alignment is mandatory.
func ForCity(city, country string) string {
	key := strings.ToLower(strings.TrimSpace(country)) + "/" + strings.ToLower(strings.TrimSpace(city))
	return zones[key]
}

// Convert re-expresses t in the named zone. An unresolvable zone returns
// ErrUnknownZone.
func Convert(t time.Time, zone string) (time.Time, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil || zone == "" {
		return time.Time{}, ErrUnknownZone
	}
	return t.In(loc), nil
}

// LocalDate returns the civil date of instant t as observed in the named
// zone.
func LocalDate(t time.Time, zone string) (time.Time, error) {
	local, err := Convert(t, zone)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC), nil
}
