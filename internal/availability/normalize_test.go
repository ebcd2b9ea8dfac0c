package availability

import (
	"errors"
	"testing"
	"time"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestParseWallClock(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value  string
		hour   int
		minute int
	}{
		{"9:00 AM", 9, 0},
		{"12:00 AM", 0, 0},
		{"12:30 PM", 12, 30},
		{"5:00 PM", 17, 0},
		{"11:45 pm", 23, 45},
		{"  8:15 AM  ", 8, 15},
	}

	for _, tc := range cases {
		hour, minute, err := parseWallClock(tc.value)
		if err != nil {
			t.Fatalf("parseWallClock(%q): %v", tc.value, err)
		}
		if hour != tc.hour || minute != tc.minute {
			t.Errorf("parseWallClock(%q) = %d:%02d, want %d:%02d", tc.value, hour, minute, tc.hour, tc.minute)
		}
	}
}

func TestParseWallClockInvalid(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"", "9:00", "25:00 AM", "nine o'clock", "9.00 AM", "09:00:00 AM"} {
		if _, _, err := parseWallClock(value); !errors.Is(err, ErrInvalidTimeFormat) {
			t.Errorf("parseWallClock(%q) error = %v, want ErrInvalidTimeFormat", value, err)
		}
	}
}

func TestInstantRangeOn(t *testing.T) {
	t.Parallel()

	newYork := mustLocation(t, "America/New_York")
	date := time.Date(2025, time.June, 9, 0, 0, 0, 0, newYork)

	r, err := InstantRangeOn(date, "9:00 AM", "5:00 PM", newYork)
	if err != nil {
		t.Fatalf("InstantRangeOn: %v", err)
	}

	wantStart := time.Date(2025, time.June, 9, 9, 0, 0, 0, newYork)
	wantEnd := time.Date(2025, time.June, 9, 17, 0, 0, 0, newYork)
	if !r.Start.Equal(wantStart) || !r.End.Equal(wantEnd) {
		t.Errorf("range = [%v, %v], want [%v, %v]", r.Start, r.End, wantStart, wantEnd)
	}

	// 9:00 AM EDT is 13:00 UTC during daylight saving.
	if got := r.Start.UTC().Hour(); got != 13 {
		t.Errorf("start UTC hour = %d, want 13", got)
	}
}

func TestInstantRangeOnUsesLocalDate(t *testing.T) {
	t.Parallel()

	// 2025-06-10 01:00 UTC is still the evening of June 9 in New York; the
	// combined range must land on the local date.
	newYork := mustLocation(t, "America/New_York")
	date := time.Date(2025, time.June, 10, 1, 0, 0, 0, time.UTC)

	r, err := InstantRangeOn(date, "9:00 AM", "5:00 PM", newYork)
	if err != nil {
		t.Fatalf("InstantRangeOn: %v", err)
	}
	if got := r.Start.In(newYork).Day(); got != 9 {
		t.Errorf("local start day = %d, want 9", got)
	}
}

func TestInstantRangeOnInvalidFormat(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC)

	if _, err := InstantRangeOn(date, "bogus", "5:00 PM", time.UTC); !errors.Is(err, ErrInvalidTimeFormat) {
		t.Errorf("bad start error = %v, want ErrInvalidTimeFormat", err)
	}
	if _, err := InstantRangeOn(date, "9:00 AM", "late", time.UTC); !errors.Is(err, ErrInvalidTimeFormat) {
		t.Errorf("bad end error = %v, want ErrInvalidTimeFormat", err)
	}
}

func TestDayClassOn(t *testing.T) {
	t.Parallel()

	if got := DayClassOn(time.Date(2025, time.June, 9, 12, 0, 0, 0, time.UTC), time.UTC); got != DayClassWeekday {
		t.Errorf("Monday class = %v, want weekday", got)
	}
	if got := DayClassOn(time.Date(2025, time.June, 14, 12, 0, 0, 0, time.UTC), time.UTC); got != DayClassWeekend {
		t.Errorf("Saturday class = %v, want weekend", got)
	}
	if got := DayClassOn(time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC), time.UTC); got != DayClassWeekend {
		t.Errorf("Sunday class = %v, want weekend", got)
	}
}

func TestDayClassOnDependsOnTimezone(t *testing.T) {
	t.Parallel()

	// 2025-06-14 01:00 UTC is Saturday afternoon in Auckland but still Friday
	// evening in Los Angeles. The same instant classifies differently per owner.
	instant := time.Date(2025, time.June, 14, 1, 0, 0, 0, time.UTC)

	if got := DayClassOn(instant, mustLocation(t, "Pacific/Auckland")); got != DayClassWeekend {
		t.Errorf("Auckland class = %v, want weekend", got)
	}
	if got := DayClassOn(instant, mustLocation(t, "America/Los_Angeles")); got != DayClassWeekday {
		t.Errorf("Los Angeles class = %v, want weekday", got)
	}
}
