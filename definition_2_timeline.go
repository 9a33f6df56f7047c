package tymbox

import "fmt"

type Timeline struct {
	TimeStart       int64
	SecondsDuration int64
}

func (tl Timeline) TimeEnd() int64 {
	return tl.TimeStart + tl.SecondsDuration
}

func (tl Timeline) Interval() TimeInterval {
	return TimeInterval{
		TimeStart: tl.TimeStart,
		TimeEnd:   tl.TimeEnd(),
	}
}

func (tl Timeline) contains(interval TimeInterval) bool {
	return tl.TimeStart <= interval.TimeStart && interval.TimeEnd <= tl.TimeEnd()
}

// FeasibleWindow holds the bounds a task may occupy given its neighbors.
type FeasibleWindow struct {
	EarliestStart int64
	LatestEnd     int64
}

func (w FeasibleWindow) Contains(interval TimeInterval) bool {
	return w.EarliestStart <= interval.TimeStart && interval.TimeEnd <= w.LatestEnd
}

func (w FeasibleWindow) String() string {
	return fmt.Sprintf(
		"FeasibleWindow{%d-%d}",

		w.EarliestStart,
		w.LatestEnd,
	)
}
