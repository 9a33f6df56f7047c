package tymbox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewScheduler(t *testing.T) {
	tests := []struct {
		name    string
		params  *ParamsNewScheduler
		isValid bool
	}{
		{"1. nil params", nil, false},
		{"2. missing duration", &ParamsNewScheduler{TimeStart: t0}, false},
		{"3. duration below minimum", &ParamsNewScheduler{TimeStart: t0, SecondsDuration: 600}, false},
		{"4. valid", &ParamsNewScheduler{TimeStart: t0, SecondsDuration: 8 * oneHour}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, errNew := NewScheduler(tt.params)

			if !tt.isValid {
				require.Error(t, errNew)
				require.Nil(t, s)

				return
			}

			require.NoError(t, errNew)
			require.Zero(t, s.TaskCount())
			require.Equal(t, t0+8*oneHour, s.Timeline().TimeEnd())
		})
	}
}

func TestAppendTask(t *testing.T) {
	s := newTestScheduler(t, 3*oneHour, t0)

	var changes []Change

	s.Subscribe(func(change Change) {
		changes = append(changes, change)
	})

	responseA, errA := s.AppendTask(
		&ParamsAppendTask{
			Name:            "A",
			SecondsDuration: halfHour,
		},
	)
	require.NoError(t, errA)
	require.Equal(t, 0, responseA.Position)

	responseB, errB := s.AppendTask(
		&ParamsAppendTask{
			Name:            "B",
			SecondsDuration: halfHour + quarterHour,
		},
	)
	require.NoError(t, errB)
	require.Equal(t, 1, responseB.Position)

	a, _ := s.GetTask(0)
	b, _ := s.GetTask(1)

	require.Equal(t, TimeInterval{TimeStart: t0, TimeEnd: t0 + halfHour}, a.TimeInterval)
	require.Equal(t, TimeInterval{TimeStart: t0 + halfHour, TimeEnd: t0 + oneHour + quarterHour}, b.TimeInterval)
	require.Equal(t, b.TimeStart, b.PreferenceValue)
	require.Equal(t, KindTask, b.Kind())

	require.Equal(t,
		[]Change{
			{Kind: ChangeInsert, FirstPos: 0, LastPos: 0},
			{Kind: ChangeInsert, FirstPos: 1, LastPos: 1},
			{Kind: ChangeUpdate, FirstPos: 0, LastPos: 0, Fields: FieldWindow},
		},
		changes,
	)

	requireInvariants(t, s)

	t.Run("1. past the timeline end", func(t *testing.T) {
		_, errAppend := s.AppendTask(
			&ParamsAppendTask{
				Name:            "C",
				SecondsDuration: 2 * oneHour,
			},
		)
		require.ErrorIs(t, errAppend, ErrOutsideTimeline)
		require.Equal(t, 2, s.TaskCount())
	})

	t.Run("2. below the minimum duration", func(t *testing.T) {
		_, errAppend := s.AppendTask(
			&ParamsAppendTask{
				Name:            "C",
				SecondsDuration: 10 * 60,
			},
		)
		require.ErrorIs(t, errAppend, ErrMinDurationViolation)
	})

	t.Run("3. missing name", func(t *testing.T) {
		_, errAppend := s.AppendTask(
			&ParamsAppendTask{
				SecondsDuration: halfHour,
			},
		)
		require.Error(t, errAppend)
	})

	t.Run("4. nil params", func(t *testing.T) {
		_, errAppend := s.AppendTask(nil)
		require.Error(t, errAppend)
	})
}

func TestRemoveTaskLeavesGap(t *testing.T) {
	s := newTestScheduler(t, 3*oneHour, t0)

	_, errA := s.AppendTask(&ParamsAppendTask{Name: "A", SecondsDuration: halfHour})
	require.NoError(t, errA)

	responseB, errB := s.AppendTask(&ParamsAppendTask{Name: "B", SecondsDuration: halfHour + quarterHour})
	require.NoError(t, errB)

	removed, errRemove := s.RemoveTask(0)
	require.NoError(t, errRemove)
	require.Equal(t, "A", removed.Name)

	require.Equal(t, 1, s.TaskCount())

	b, _ := s.GetTask(0)
	require.Equal(t, responseB.TaskID, b.ID)
	require.Equal(t, TimeInterval{TimeStart: t0 + halfHour, TimeEnd: t0 + oneHour + quarterHour}, b.TimeInterval)

	_, errOut := s.RemoveTask(1)
	require.ErrorIs(t, errOut, ErrOutOfRange)

	requireInvariants(t, s)
}

func TestInsertTask(t *testing.T) {
	s := newTestScheduler(t, 8*oneHour, t0)

	responseLater, errLater := s.InsertTask(
		&ParamsInsertTask{
			Name:            "later",
			TimeStart:       t0 + 2*oneHour,
			SecondsDuration: oneHour,
			Preference:      PreferenceFixed,
		},
	)
	require.NoError(t, errLater)
	require.True(t, responseLater.WasInserted)
	require.Equal(t, 0, responseLater.Position)

	responseFirst, errFirst := s.InsertTask(
		&ParamsInsertTask{
			Name:            "first",
			Variant:         VariantCard{ExternalCardID: "card-1"},
			TimeStart:       t0,
			SecondsDuration: oneHour,
		},
	)
	require.NoError(t, errFirst)
	require.True(t, responseFirst.WasInserted)
	require.Equal(t, 0, responseFirst.Position)

	first, _ := s.GetTaskByID(responseFirst.TaskID)
	require.Equal(t, KindCardTask, first.Kind())

	t.Run("1. overlapping span is not inserted", func(t *testing.T) {
		response, errInsert := s.InsertTask(
			&ParamsInsertTask{
				Name:            "overlapping",
				TimeStart:       t0 + halfHour,
				SecondsDuration: halfHour,
			},
		)
		require.NoError(t, errInsert)
		require.False(t, response.WasInserted)
		require.Equal(t, t0+oneHour, response.WhenCanStart)
		require.Equal(t, 2, s.TaskCount())
	})

	t.Run("2. no free slot left", func(t *testing.T) {
		response, errInsert := s.InsertTask(
			&ParamsInsertTask{
				Name:            "too long",
				TimeStart:       t0 + halfHour,
				SecondsDuration: 5 * oneHour + halfHour,
			},
		)
		require.NoError(t, errInsert)
		require.False(t, response.WasInserted)
		require.Equal(t, NoAvailability, response.WhenCanStart)
	})

	t.Run("3. outside the timeline", func(t *testing.T) {
		_, errInsert := s.InsertTask(
			&ParamsInsertTask{
				Name:            "outside",
				TimeStart:       t0 + 7*oneHour + halfHour,
				SecondsDuration: oneHour,
			},
		)
		require.ErrorIs(t, errInsert, ErrOutsideTimeline)
	})

	t.Run("4. unknown preference", func(t *testing.T) {
		_, errInsert := s.InsertTask(
			&ParamsInsertTask{
				Name:            "unknown",
				TimeStart:       t0 + 4*oneHour,
				SecondsDuration: oneHour,
				Preference:      TimePreference(42),
			},
		)
		require.Error(t, errInsert)
	})

	t.Run("5. gap between tasks", func(t *testing.T) {
		response, errInsert := s.InsertTask(
			&ParamsInsertTask{
				Name:            "between",
				TimeStart:       t0 + oneHour,
				SecondsDuration: oneHour,
			},
		)
		require.NoError(t, errInsert)
		require.True(t, response.WasInserted)
		require.Equal(t, 1, response.Position)
	})

	requireInvariants(t, s)
}

func TestInsertAfterCurrent(t *testing.T) {
	setup := func(t *testing.T, timestampNow int64) *Scheduler {
		s := newTestScheduler(t, 8*oneHour, timestampNow)

		_, errA := s.AppendTask(&ParamsAppendTask{Name: "A", SecondsDuration: oneHour})
		require.NoError(t, errA)

		_, errB := s.AppendTask(&ParamsAppendTask{Name: "B", SecondsDuration: oneHour})
		require.NoError(t, errB)

		return s
	}

	t.Run("1. after the running task, following tasks pushed", func(t *testing.T) {
		s := setup(t, t0+quarterHour)

		response, errInsert := s.InsertAfterCurrent(
			&ParamsInsertAfterCurrent{
				Name:            "urgent",
				SecondsDuration: halfHour,
			},
		)
		require.NoError(t, errInsert)
		require.Equal(t, 1, response.Position)

		require.Equal(t,
			[]TimeInterval{
				{TimeStart: t0, TimeEnd: t0 + oneHour},
				{TimeStart: t0 + oneHour, TimeEnd: t0 + oneHour + halfHour},
				{TimeStart: t0 + oneHour + halfHour, TimeEnd: t0 + 2*oneHour + halfHour},
			},
			intervals(s.Tasks()),
		)

		requireInvariants(t, s)
	})

	t.Run("2. nothing running, placed at the timeline start", func(t *testing.T) {
		s := setup(t, t0+7*oneHour)

		response, errInsert := s.InsertAfterCurrent(
			&ParamsInsertAfterCurrent{
				Name:            "urgent",
				SecondsDuration: halfHour,
			},
		)
		require.NoError(t, errInsert)
		require.Equal(t, 0, response.Position)

		require.Equal(t,
			[]TimeInterval{
				{TimeStart: t0, TimeEnd: t0 + halfHour},
				{TimeStart: t0 + halfHour, TimeEnd: t0 + oneHour + halfHour},
				{TimeStart: t0 + oneHour + halfHour, TimeEnd: t0 + 2*oneHour + halfHour},
			},
			intervals(s.Tasks()),
		)

		requireInvariants(t, s)
	})
}

func TestInterruptCurrentTask(t *testing.T) {
	timestampNow := t0 + 2*oneHour

	setup := func(t *testing.T, preferenceAfter TimePreference) (*Scheduler, TaskID) {
		s := newTestScheduler(t, 8*oneHour, timestampNow)

		response, errInsert := s.InsertTask(
			&ParamsInsertTask{
				Name:            "long",
				TimeStart:       t0 + oneHour,
				SecondsDuration: 2 * oneHour,
			},
		)
		require.NoError(t, errInsert)
		require.True(t, response.WasInserted)

		_, errAfter := s.InsertTask(
			&ParamsInsertTask{
				Name:            "after",
				TimeStart:       t0 + 3*oneHour,
				SecondsDuration: oneHour,
				Preference:      preferenceAfter,
			},
		)
		require.NoError(t, errAfter)

		return s, response.TaskID
	}

	t.Run("1. come back with the duration before the cut", func(t *testing.T) {
		s, idLong := setup(t, PreferenceSequential)

		response, errInterrupt := s.InterruptCurrentTask(
			&ParamsInterrupt{
				Name:            "urgent",
				SecondsDuration: halfHour,
				ComeBack:        true,
			},
		)
		require.NoError(t, errInterrupt)
		require.Equal(t, idLong, response.Interrupted)
		require.False(t, response.Resumed.IsZero())

		tasks := s.Tasks()
		require.Len(t, tasks, 4)

		require.Equal(t, idLong, tasks[0].ID)
		require.Equal(t, TimeInterval{TimeStart: t0 + oneHour, TimeEnd: t0 + 2*oneHour}, tasks[0].TimeInterval)

		require.Equal(t, "urgent", tasks[1].Name)
		require.Equal(t, TimeInterval{TimeStart: t0 + 2*oneHour, TimeEnd: t0 + 2*oneHour + halfHour}, tasks[1].TimeInterval)

		require.Equal(t, response.Resumed, tasks[2].ID)
		require.Equal(t, "long", tasks[2].Name)
		require.Equal(t, 2*oneHour, tasks[2].Duration())
		require.Equal(t, tasks[1].TimeEnd, tasks[2].TimeStart)

		require.Equal(t, "after", tasks[3].Name)
		require.Equal(t, TimeInterval{TimeStart: t0 + 4*oneHour + halfHour, TimeEnd: t0 + 5*oneHour + halfHour}, tasks[3].TimeInterval)

		requireInvariants(t, s)
	})

	t.Run("2. without coming back", func(t *testing.T) {
		s, _ := setup(t, PreferenceSequential)

		response, errInterrupt := s.InterruptCurrentTask(
			&ParamsInterrupt{
				Name:            "urgent",
				SecondsDuration: halfHour,
			},
		)
		require.NoError(t, errInterrupt)
		require.True(t, response.Resumed.IsZero())

		require.Equal(t,
			[]TimeInterval{
				{TimeStart: t0 + oneHour, TimeEnd: t0 + 2*oneHour},
				{TimeStart: t0 + 2*oneHour, TimeEnd: t0 + 2*oneHour + halfHour},
				{TimeStart: t0 + 3*oneHour, TimeEnd: t0 + 4*oneHour},
			},
			intervals(s.Tasks()),
		)

		requireInvariants(t, s)
	})

	t.Run("3. pushing into a fixed task rolls back", func(t *testing.T) {
		s, _ := setup(t, PreferenceFixed)
		before := s.Tasks()

		var notified int

		s.Subscribe(func(Change) { notified++ })

		_, errInterrupt := s.InterruptCurrentTask(
			&ParamsInterrupt{
				Name:            "urgent",
				SecondsDuration: halfHour,
				ComeBack:        true,
			},
		)
		require.ErrorIs(t, errInterrupt, ErrIrrecoverableOverlap)
		require.Equal(t, before, s.Tasks())
		require.Zero(t, notified)

		requireInvariants(t, s)
	})

	t.Run("4. nothing running", func(t *testing.T) {
		s := newTestScheduler(t, 8*oneHour, timestampNow)

		_, errInterrupt := s.InterruptCurrentTask(
			&ParamsInterrupt{
				Name:            "urgent",
				SecondsDuration: halfHour,
			},
		)
		require.ErrorIs(t, errInterrupt, ErrNoActiveTask)
	})

	t.Run("5. truncated task too short", func(t *testing.T) {
		s := newTestScheduler(t, 8*oneHour, t0+oneHour+10*60)

		_, errInsert := s.InsertTask(
			&ParamsInsertTask{
				Name:            "long",
				TimeStart:       t0 + oneHour,
				SecondsDuration: 2 * oneHour,
			},
		)
		require.NoError(t, errInsert)

		_, errInterrupt := s.InterruptCurrentTask(
			&ParamsInterrupt{
				Name:            "urgent",
				SecondsDuration: halfHour,
			},
		)
		require.ErrorIs(t, errInterrupt, ErrMinDurationViolation)
		require.Equal(t, 1, s.TaskCount())
	})
}

func TestReentrantMutationRejected(t *testing.T) {
	s := newTestScheduler(t, 8*oneHour, t0)

	var errNested error

	s.Subscribe(func(Change) {
		_, errNested = s.AppendTask(&ParamsAppendTask{Name: "nested", SecondsDuration: halfHour})
	})

	_, errAppend := s.AppendTask(&ParamsAppendTask{Name: "outer", SecondsDuration: halfHour})
	require.NoError(t, errAppend)

	require.ErrorIs(t, errNested, ErrMutationInProgress)
	require.Equal(t, 1, s.TaskCount())

	_, errAgain := s.AppendTask(&ParamsAppendTask{Name: "again", SecondsDuration: halfHour})
	require.NoError(t, errAgain)
	require.Equal(t, 2, s.TaskCount())
}

func TestUnsubscribe(t *testing.T) {
	s := newTestScheduler(t, 8*oneHour, t0)

	var first, second int

	unsubscribe := s.Subscribe(func(Change) { first++ })
	s.Subscribe(func(Change) { second++ })

	_, errA := s.AppendTask(&ParamsAppendTask{Name: "A", SecondsDuration: halfHour})
	require.NoError(t, errA)

	unsubscribe()

	_, errB := s.AppendTask(&ParamsAppendTask{Name: "B", SecondsDuration: halfHour})
	require.NoError(t, errB)

	require.Equal(t, 1, first)

	// B inserted, A's latest end now bounded by B
	require.Equal(t, 3, second)
}

func TestGetActiveTask(t *testing.T) {
	s := newTestScheduler(t, 8*oneHour, t0)

	_, errInsert := s.InsertTask(
		&ParamsInsertTask{
			Name:            "A",
			TimeStart:       t0 + oneHour,
			SecondsDuration: oneHour,
		},
	)
	require.NoError(t, errInsert)

	tests := []struct {
		name      string
		timestamp int64
		isActive  bool
	}{
		{"1. before", t0 + halfHour, false},
		{"2. at start", t0 + oneHour, true},
		{"3. inside", t0 + oneHour + halfHour, true},
		{"4. at end", t0 + 2*oneHour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, task, isActive := s.GetActiveTask(tt.timestamp)
			require.Equal(t, tt.isActive, isActive)

			if tt.isActive {
				require.Equal(t, 0, pos)
				require.Equal(t, "A", task.Name)
			}
		})
	}
}
