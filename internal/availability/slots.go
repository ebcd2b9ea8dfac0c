package availability

import (
	"iter"
	"time"
)

// Slot generation walks a fixed business-hours window; owners whose declared
// availability extends outside it never receive matching slots outside these
// bounds.
const (
	businessOpenHour  = 9
	businessCloseHour = 17
)

// slotStep is the spacing between candidate slot start times.
const slotStep = 30 * time.Minute

// Slots enumerates candidate ranges of the given duration for every calendar
// date from the date of from through the date of to inclusive, observed in
// loc. Start times step every 30 minutes through the 09:00-17:00 wall-clock
// window; a slot whose end would pass 17:00 is not emitted.
//
// The sequence is finite, chronological (dates ascending, times ascending
// within a date), and may be ranged over more than once.
func Slots(from, to time.Time, duration time.Duration, loc *time.Location) iter.Seq[Range] {
	return func(yield func(Range) bool) {
		if duration <= 0 {
			return
		}

		first := from.In(loc)
		last := to.In(loc)
		firstDay := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
		lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, loc)

		for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
			open := time.Date(day.Year(), day.Month(), day.Day(), businessOpenHour, 0, 0, 0, loc)
			close := time.Date(day.Year(), day.Month(), day.Day(), businessCloseHour, 0, 0, 0, loc)

			for start := open; !start.Add(duration).After(close); start = start.Add(slotStep) {
				if !yield(Range{Start: start, End: start.Add(duration)}) {
					return
				}
			}
		}
	}
}
