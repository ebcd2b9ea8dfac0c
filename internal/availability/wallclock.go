package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimeFormat indicates a wall-clock string could not be parsed as
// "h:mm AM/PM".
var ErrInvalidTimeFormat = errors.New("availability: invalid time format")

const wallClockLayout = "3:04 PM"

// parseWallClock parses a wall-clock string such as "9:00 AM" or "12:30 pm"
// into an hour and minute of the local day.
func parseWallClock(value string) (hour, minute int, err error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	parsed, parseErr := time.Parse(wallClockLayout, normalized)
	if parseErr != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
	}
	return parsed.Hour(), parsed.Minute(), nil
}
