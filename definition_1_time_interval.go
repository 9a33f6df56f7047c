package tymbox

import "fmt"

// MinimumSeconds is the scheduling granularity, no task is shorter.
const MinimumSeconds = int64(15 * 60)

type TimeInterval struct {
	TimeStart int64
	TimeEnd   int64
}

func (interval TimeInterval) Duration() int64 {
	return interval.TimeEnd - interval.TimeStart
}

func (interval TimeInterval) Overlaps(other TimeInterval) bool {
	return max(interval.TimeStart, other.TimeStart) < min(interval.TimeEnd, other.TimeEnd)
}

// Contains reports whether timestamp falls in [TimeStart, TimeEnd).
func (interval TimeInterval) Contains(timestamp int64) bool {
	return interval.TimeStart <= timestamp && timestamp < interval.TimeEnd
}

func (interval TimeInterval) Shift(seconds int64) TimeInterval {
	return TimeInterval{
		TimeStart: interval.TimeStart + seconds,
		TimeEnd:   interval.TimeEnd + seconds,
	}
}

func (interval TimeInterval) String() string {
	return fmt.Sprintf(
		"[%d-%d]",

		interval.TimeStart,
		interval.TimeEnd,
	)
}
