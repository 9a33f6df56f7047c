package tymbox

// NoAvailability is returned when no start satisfies the search.
const NoAvailability = int64(-1)

// GetAvailability returns:
//   - (nil, true)   = fully available, no task overlaps the search interval
//   - (gaps, false) = partially available, returns the free gaps
//   - (nil, false)  = completely booked
func (s *Scheduler) GetAvailability(searchInterval TimeInterval) ([]TimeInterval, bool) {
	var (
		availableIntervals []TimeInterval
		hasOverlap         bool
	)

	currentStart := searchInterval.TimeStart

	// tasks are kept ordered, no sorting needed
	for _, busy := range s.store.tasks {
		if busy.TimeEnd <= currentStart {
			continue
		}

		if busy.TimeStart >= searchInterval.TimeEnd {
			break
		}

		hasOverlap = true

		if busy.TimeStart > currentStart {
			availableIntervals = append(
				availableIntervals,
				TimeInterval{
					TimeStart: currentStart,
					TimeEnd:   busy.TimeStart,
				},
			)
		}

		currentStart = max(currentStart, busy.TimeEnd)
	}

	if !hasOverlap {
		return nil,
			true
	}

	if currentStart < searchInterval.TimeEnd {
		availableIntervals = append(
			availableIntervals,
			TimeInterval{
				TimeStart: currentStart,
				TimeEnd:   searchInterval.TimeEnd,
			},
		)
	}

	return availableIntervals,
		false
}

type ParamsFindAvailableTime struct {
	TimeStart        int64
	MaximumTimeStart int64
	SecondsDuration  int64

	IsLatest bool
}

// FindAvailableTime returns the earliest, or with IsLatest the latest,
// start in [TimeStart, MaximumTimeStart] where the duration fits between tasks.
func (s *Scheduler) FindAvailableTime(params *ParamsFindAvailableTime) int64 {
	if params.TimeStart > params.MaximumTimeStart {
		return NoAvailability
	}

	intervals, available := s.GetAvailability(
		TimeInterval{
			TimeStart: params.TimeStart,
			TimeEnd:   params.MaximumTimeStart + params.SecondsDuration,
		},
	)
	if available {
		return ternary(params.IsLatest, params.MaximumTimeStart, params.TimeStart)
	}

	if params.IsLatest {
		for i := len(intervals) - 1; i >= 0; i-- {
			interval := intervals[i]

			if interval.Duration() >= params.SecondsDuration {
				return min(
					interval.TimeEnd-params.SecondsDuration,
					params.MaximumTimeStart,
				)
			}
		}

		return NoAvailability
	}

	for _, interval := range intervals {
		if interval.Duration() >= params.SecondsDuration {
			return interval.TimeStart
		}
	}

	return NoAvailability
}
