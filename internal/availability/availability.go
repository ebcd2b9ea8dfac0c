// Package availability implements the pure free/busy intersection used to
// propose meeting slots for a group of participants. It performs no I/O;
// callers hand it read-only owner snapshots fetched for a single request.
package availability

import "time"

// DayClass partitions calendar dates into weekday and weekend groups. The
// class of a date is always determined in the owner's local timezone.
type DayClass int

const (
	// DayClassWeekday covers Monday through Friday.
	DayClassWeekday DayClass = iota
	// DayClassWeekend covers Saturday and Sunday.
	DayClassWeekend
)

// String returns a stable label for logging.
func (d DayClass) String() string {
	if d == DayClassWeekend {
		return "weekend"
	}
	return "weekday"
}

// Window is a declared open interval for one day class, expressed as
// wall-clock times ("9:00 AM") in the owner's timezone. When Available is
// false or either bound is empty the owner has no availability for dates of
// that class.
type Window struct {
	Available bool
	Start     string
	End       string
}

// Pattern maps day classes to optional availability windows. A nil window
// means zero availability for every date of that class.
type Pattern struct {
	Weekdays *Window
	Weekends *Window
}

func (p Pattern) windowFor(class DayClass) *Window {
	if class == DayClassWeekend {
		return p.Weekends
	}
	return p.Weekdays
}

// Range is a pair of absolute instants with Start before End. All cross-owner
// comparisons happen on Range values; wall-clock representations are
// owner-specific and never compared directly across owners.
type Range struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether both bounds are unset.
func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Duration returns the length of the range.
func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Owner is a read-only snapshot of one participant being scheduled: a
// timezone, a recurring weekly pattern, and the confirmed bookings that block
// slots. Snapshots are taken fresh for each scheduling request.
type Owner struct {
	ID       string
	Timezone string
	Pattern  Pattern
	Booked   []Range
}
