package mediatime

import (
	"fmt"
	"time"
)

// TimeRange is a contiguous span of media time.
type TimeRange struct {
	Start    time.Duration `json:"start"`
	Duration time.Duration `json:"duration"`
}

// NewTimeRange builds a range from its start and end. An end before start
// yields an empty range at start.
func NewTimeRange(start, end time.Duration) TimeRange {
	if end < start {
		end = start
	}
	return TimeRange{Start: start, Duration: end - start}
}

// End returns the exclusive end of the range.
func (r TimeRange) End() time.Duration {
	return r.Start + r.Duration
}

// Contains reports whether t lies within [Start, End).
func (r TimeRange) Contains(t time.Duration) bool {
	return t >= r.Start && t < r.End()
}

// String renders the range with readable labels.
func (r TimeRange) String() string {
	return fmt.Sprintf("%s-%s", Readable(r.Start), Readable(r.End()))
}

// Last returns the final range of a loaded-ranges list and whether one exists.
// Engine reports are ascending and non-overlapping, so the last range holds
// the furthest buffered position.
func Last(ranges []TimeRange) (TimeRange, bool) {
	if len(ranges) == 0 {
		return TimeRange{}, false
	}
	return ranges[len(ranges)-1], true
}
