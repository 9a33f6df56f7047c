package tymbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	quarterHour = int64(15 * 60)
	halfHour    = 2 * quarterHour
	oneHour     = 2 * halfHour
	oneDay      = 24 * oneHour
)

// t0 is the timeline start used across tests, noon UTC.
var t0 = time.Date(2025, time.June, 2, 12, 0, 0, 0, time.UTC).Unix()

func clockAt(timestamp int64) func() time.Time {
	return func() time.Time {
		return time.Unix(timestamp, 0)
	}
}

func newTestScheduler(t *testing.T, secondsDuration int64, timestampNow int64) *Scheduler {
	t.Helper()

	s, errNew := NewScheduler(
		&ParamsNewScheduler{
			TimeStart:       t0,
			SecondsDuration: secondsDuration,
			Now:             clockAt(timestampNow),
			Location:        time.UTC,
		},
	)
	require.NoError(t, errNew)
	require.NotNil(t, s)

	return s
}

// newTestStore builds a store from tasks already in timeline order.
func newTestStore(t *testing.T, secondsDuration int64, tasks ...Task) *taskStore {
	t.Helper()

	store := newTaskStore(
		Timeline{
			TimeStart:       t0,
			SecondsDuration: secondsDuration,
		},
	)

	for ix, task := range tasks {
		require.NoError(t, store.insertAt(ix, task))
	}

	return store
}

func taskAt(name string, timeStart, secondsDuration int64, preference TimePreference) Task {
	return newTask(
		&paramsNewTask{
			Name:            name,
			TimeStart:       timeStart,
			SecondsDuration: secondsDuration,
			Preference:      preference,
		},
	)
}

func requireInvariants(t *testing.T, s *Scheduler) {
	t.Helper()

	tasks := s.Tasks()

	for pos, task := range tasks {
		require.GreaterOrEqual(t, task.Duration(), MinimumSeconds, "duration of %s", task)

		if pos+1 < len(tasks) {
			require.LessOrEqual(t, task.TimeEnd, tasks[pos+1].TimeStart, "overlap %s / %s", task, tasks[pos+1])
		}

		window, errWindow := s.Window(pos)
		require.NoError(t, errWindow)
		require.LessOrEqual(t, window.EarliestStart, task.TimeStart, "earliest start of %s", task)
		require.LessOrEqual(t, task.TimeEnd, window.LatestEnd, "latest end of %s", task)

		require.Equal(t, pos, valueOf(s.PositionOf(task.ID)))
	}
}

func valueOf(pos int, _ bool) int {
	return pos
}

func intervals(tasks []Task) []TimeInterval {
	result := make([]TimeInterval, len(tasks))

	for ix, task := range tasks {
		result[ix] = task.TimeInterval
	}

	return result
}
