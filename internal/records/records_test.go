package records

import (
	"testing"
	"time"
)

func TestRecordKey_StableIdentity(t *testing.T) {
	rec := Record{
		Source:   SourceWeather,
		Country:  "UK",
		City:     "London",
		DataDate: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	}
	want := "weather:UK:London:2026-08-20"
	if got := rec.Key(); got != want {
		t.Fatalf("key: want %q, got %q", want, got)
	}

	same := rec
	same.Raw = map[string]any{"extra": true}
	if same.Key() != rec.Key() {
		t.Fatal("key must not depend on payload contents")
	}
}

func TestDateRange_Days(t *testing.T) {
	rng := DateRange{
		Start: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 2, 23, 0, 0, 0, time.UTC),
	}
	days := rng.Days()
	if len(days) != 4 {
		t.Fatalf("want 4 days across the month boundary, got %d", len(days))
	}
	if days[0].Day() != 30 || days[3].Day() != 2 {
		t.Fatalf("unexpected endpoints: %v .. %v", days[0], days[3])
	}
	for _, d := range days {
		if d.Hour() != 0 || d.Location() != time.UTC {
			t.Fatalf("day not at UTC midnight: %v", d)
		}
	}

	inverted := DateRange{Start: days[3], End: days[0]}
	if got := inverted.Days(); len(got) != 0 {
		t.Fatalf("inverted range must be empty, got %d days", len(got))
	}
}

func TestSingleDay(t *testing.T) {
	d := SingleDay(time.Date(2026, 8, 20, 18, 45, 0, 0, time.UTC))
	days := d.Days()
	if len(days) != 1 {
		t.Fatalf("want exactly one day, got %d", len(days))
	}
	if !days[0].Equal(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("day not truncated: %v", days[0])
	}
}

func TestMidnight_NonUTCInput(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 22:00 on the 19th in New York is already the 20th in UTC.
	local := time.Date(2026, 8, 19, 22, 0, 0, 0, ny)
	if got := Midnight(local); got.Day() != 20 {
		t.Fatalf("midnight should follow the UTC civil date, got %v", got)
	}
}
