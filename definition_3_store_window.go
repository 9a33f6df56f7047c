package tymbox

// earliestStart walks back from pos until the timeline start or a task
// that anchors the chain.
// Tasks that can be compressed contribute the minimum duration,
// tasks keeping their duration contribute it whole.
func (s *taskStore) earliestStart(pos int) int64 {
	var offset int64

	for ix := pos - 1; ix >= 0; ix-- {
		previous := s.tasks[ix]

		switch previous.Preference {
		case PreferencePreferred, PreferenceSequential:
			offset = offset + MinimumSeconds

		case PreferenceDuration:
			offset = offset + previous.Duration()

		case PreferenceStartAt:
			return previous.TimeStart + MinimumSeconds + offset

		default:
			return previous.TimeEnd + offset
		}
	}

	return s.timeline.TimeStart + offset
}

// latestEnd walks forward from pos, only preferred tasks can give way.
func (s *taskStore) latestEnd(pos int) int64 {
	var offset int64

	for ix := pos + 1; ix < len(s.tasks); ix++ {
		next := s.tasks[ix]

		if next.Preference != PreferencePreferred {
			return next.TimeStart - offset
		}

		offset = offset + MinimumSeconds
	}

	return s.timeline.TimeEnd() - offset
}

func (s *taskStore) computeWindow(pos int) FeasibleWindow {
	return FeasibleWindow{
		EarliestStart: s.earliestStart(pos),
		LatestEnd:     s.latestEnd(pos),
	}
}

// refreshWindows recomputes every cached window from current contents.
func (s *taskStore) refreshWindows() {
	for pos := range s.tasks {
		s.windows[pos] = s.computeWindow(pos)
	}
}
