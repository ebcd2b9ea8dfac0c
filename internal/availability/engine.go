package availability

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidDateRange indicates the requested end date precedes the start
	// date; no slots can exist, so the whole request fails.
	ErrInvalidDateRange = errors.New("availability: end date precedes start date")
	// ErrSearchTooLarge indicates the requested span exceeds the engine's
	// bounded work guard.
	ErrSearchTooLarge = errors.New("availability: search exceeds configured bounds")
)

// defaultMaxOwnerDays bounds days x owners per request so adversarial inputs
// cannot trigger unbounded slot scans.
const defaultMaxOwnerDays = 10000

// Engine intersects generated candidate slots with the availability and
// bookings of every owner. Candidate generation happens in the engine's
// location; per-owner evaluation always happens in each owner's own timezone.
type Engine struct {
	location     *time.Location
	maxOwnerDays int
}

// NewEngine constructs an engine generating candidates in loc. A nil loc
// falls back to UTC; a non-positive bound falls back to the default guard.
func NewEngine(loc *time.Location, maxOwnerDays int) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	if maxOwnerDays <= 0 {
		maxOwnerDays = defaultMaxOwnerDays
	}
	return &Engine{location: loc, maxOwnerDays: maxOwnerDays}
}

// FindSlots returns the candidate ranges of the requested duration between
// the dates of from and to (inclusive) where every owner is simultaneously
// inside their declared window and free of confirmed bookings. Results keep
// generation order, and identical snapshots always produce identical output.
//
// An empty owner list yields an empty result, not an error: zero participants
// trivially have no meaningful slots. An owner whose timezone or wall-clock
// pattern cannot be interpreted is treated as unavailable; one broken record
// never aborts scheduling for the group.
func (e *Engine) FindSlots(owners []Owner, from, to time.Time, duration time.Duration) ([]Range, error) {
	if e == nil {
		return nil, fmt.Errorf("availability: Engine is nil")
	}
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}
	if len(owners) == 0 {
		return nil, nil
	}

	days := calendarDaySpan(from, to, e.location)
	if days*len(owners) > e.maxOwnerDays {
		return nil, fmt.Errorf("%w: %d days for %d owners", ErrSearchTooLarge, days, len(owners))
	}

	// Resolve each owner's location once. Owners with unknown zones stay nil
	// and fail every slot below.
	locations := make([]*time.Location, len(owners))
	for i, owner := range owners {
		loc, err := time.LoadLocation(owner.Timezone)
		if err != nil {
			continue
		}
		locations[i] = loc
	}

	var result []Range
	for slot := range Slots(from, to, duration, e.location) {
		if groupAvailable(owners, locations, slot) {
			result = append(result, slot)
		}
	}
	return result, nil
}

// groupAvailable short-circuits on the first owner that cannot attend.
func groupAvailable(owners []Owner, locations []*time.Location, slot Range) bool {
	for i, owner := range owners {
		loc := locations[i]
		if loc == nil {
			return false
		}
		ok, err := WithinAvailability(slot, owner.Pattern, loc)
		if err != nil || !ok {
			return false
		}
		if Conflicts(slot, owner.Booked) {
			return false
		}
	}
	return true
}

// calendarDaySpan counts inclusive calendar days between two instants as
// observed in loc. Date components are rebuilt in UTC so daylight-saving
// shifts cannot skew the count.
func calendarDaySpan(from, to time.Time, loc *time.Location) int {
	f := from.In(loc)
	t := to.In(loc)
	start := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours()/24) + 1
}
