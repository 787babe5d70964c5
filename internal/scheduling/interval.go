package scheduling

import (
	"iter"
	"time"
)

// SlotStep is the distance between consecutive candidate start points.
const SlotStep = 15 * time.Minute

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval is non-empty.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Overlaps reports whether i and o share at least one instant.
func (i Interval) Overlaps(o Interval) bool {
	return Overlaps(i.Start, i.End, o.Start, o.End)
}

// Overlaps is the half-open overlap test used for every conflict check:
// intervals that merely touch (one ends exactly where the other starts) do not overlap.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && endA.After(startB)
}

// StartPoints yields start times every step from window.Start, stopping once
// start+duration would run past window.End.
func StartPoints(window Interval, duration, step time.Duration) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if duration <= 0 || step <= 0 {
			return
		}
		for s := window.Start; !s.Add(duration).After(window.End); s = s.Add(step) {
			if !yield(s) {
				return
			}
		}
	}
}
