package availability

import "time"

// InstantRangeOn combines the calendar date of date (observed in loc) with
// wall-clock start and end strings interpreted in loc, yielding an absolute
// instant range. Either string failing to parse yields ErrInvalidTimeFormat.
func InstantRangeOn(date time.Time, startValue, endValue string, loc *time.Location) (Range, error) {
	startHour, startMinute, err := parseWallClock(startValue)
	if err != nil {
		return Range{}, err
	}
	endHour, endMinute, err := parseWallClock(endValue)
	if err != nil {
		return Range{}, err
	}

	local := date.In(loc)
	year, month, day := local.Date()
	return Range{
		Start: time.Date(year, month, day, startHour, startMinute, 0, 0, loc),
		End:   time.Date(year, month, day, endHour, endMinute, 0, 0, loc),
	}, nil
}

// DayClassOn classifies a date as weekday or weekend using its day of week in
// loc. Saturday and Sunday map to the weekend class.
func DayClassOn(date time.Time, loc *time.Location) DayClass {
	switch date.In(loc).Weekday() {
	case time.Saturday, time.Sunday:
		return DayClassWeekend
	default:
		return DayClassWeekday
	}
}
