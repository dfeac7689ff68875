package tz

import (
	"errors"
	"testing"
	"time"
)

func TestForCity_KnownAndUnknown(t *testing.T) {
	if zone := ForCity("New York", "USA"); zone != "America/New_York" {
		t.Fatalf("New York: got %q", zone)
	}
	if zone := ForCity("  london ", " uk "); zone != "Europe/London" {
		t.Fatalf("case/space folding broken: got %q", zone)
	}
	if zone := ForCity("Atlantis", "Nowhere"); zone != "" {
		t.Fatalf("unknown pair must return the empty sentinel, got %q", zone)
	}
}

func TestConvert(t *testing.T) {
	utc := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	ny, err := Convert(utc, "America/New_York")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if ny.Hour() != 7 {
		t.Fatalf("noon UTC in January should be 07:00 in New York, got %d", ny.Hour())
	}
	if !ny.Equal(utc) {
		t.Fatal("conversion must preserve the instant")
	}

	if _, err := Convert(utc, "Not/AZone"); !errors.Is(err, ErrUnknownZone) {
		t.Fatalf("want ErrUnknownZone, got %v", err)
	}
	if _, err := Convert(utc, ""); !errors.Is(err, ErrUnknownZone) {
		t.Fatalf("empty zone: want ErrUnknownZone, got %v", err)
	}
}

func TestLocalDate_CrossesMidnight(t *testing.T) {
	// 03:00 UTC on the 15th is still the evening of the 14th in New York.
	utc := time.Date(2026, 1, 15, 3, 0, 0, 0, time.UTC)
	d, err := LocalDate(utc, "America/New_York")
	if err != nil {
		t.Fatalf("local date: %v", err)
	}
	if d.Day() != 14 {
		t.Fatalf("want civil date 14, got %d", d.Day())
	}

	tokyo, err := LocalDate(utc, "Asia/Tokyo")
	if err != nil {
		t.Fatalf("local date: %v", err)
	}
	if tokyo.Day() != 15 {
		t.Fatalf("want civil date 15 in Tokyo, got %d", tokyo.Day())
	}
}
