package availability

import "time"

// WithinAvailability reports whether r lies fully inside the owner's declared
// window for the day on which r starts, observed in loc. Inclusion is closed:
// a range starting exactly at the window open or ending exactly at the window
// close is available.
//
// Only the day class of r.Start is consulted. A range that crosses midnight is
// judged entirely against the window of its starting day; generated slots are
// bounded by business hours, so such ranges do not arise from the generator.
func WithinAvailability(r Range, pattern Pattern, loc *time.Location) (bool, error) {
	window := pattern.windowFor(DayClassOn(r.Start, loc))
	if window == nil || !window.Available || window.Start == "" || window.End == "" {
		return false, nil
	}

	open, err := InstantRangeOn(r.Start, window.Start, window.End, loc)
	if err != nil {
		return false, err
	}
	if !open.Start.Before(open.End) {
		return false, nil
	}

	return !r.Start.Before(open.Start) && !r.End.After(open.End), nil
}
