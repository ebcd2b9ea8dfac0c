package availability

// Conflicts reports whether candidate overlaps or abuts any of the booked
// ranges. Back-to-back ranges that share an exact boundary instant still
// conflict; gapless adjacency is never offered as a free slot.
//
// The scan stops at the first conflicting range.
func Conflicts(candidate Range, booked []Range) bool {
	for _, b := range booked {
		if candidate.Start.Before(b.End) && candidate.End.After(b.Start) {
			return true
		}
		if candidate.Start.Equal(b.End) || candidate.End.Equal(b.Start) {
			return true
		}
	}
	return false
}
