package tymbox

import (
	"errors"
	"fmt"

	goerrors "github.com/TudorHulban/go-errors"
	"github.com/asaskevich/govalidator"
)

type ParamsAppendTask struct {
	Name            string `valid:"required"`
	Variant         TaskVariant
	PreferenceValue *int64

	SecondsDuration int64 `valid:"required"`
	Preference      TimePreference
}

type ParamsInsertTask struct {
	Name            string `valid:"required"`
	Variant         TaskVariant
	PreferenceValue *int64

	TimeStart       int64 `valid:"required"`
	SecondsDuration int64 `valid:"required"`
	Preference      TimePreference
}

type ParamsInsertAfterCurrent ParamsAppendTask

type ParamsInterrupt struct {
	Name            string `valid:"required"`
	Variant         TaskVariant
	PreferenceValue *int64

	SecondsDuration int64 `valid:"required"`
	Preference      TimePreference

	ComeBack bool
}

type ResponseMutation struct {
	TaskID   TaskID
	Position int
}

type ResponseInsert struct {
	ResponseMutation

	// WhenCanStart is the earliest free start at or after the requested one
	// when the task was not inserted, NoAvailability if there is none.
	WhenCanStart int64
	WasInserted  bool
}

type ResponseInterrupt struct {
	Interrupted TaskID
	Inserted    TaskID
	Resumed     TaskID // zero when not coming back
}

func validateParams(caller string, params any) error {
	if _, errValidation := govalidator.ValidateStruct(params); errValidation != nil {
		return goerrors.ErrServiceValidation{
			ServiceName: _ServiceName,
			Caller:      caller,
			Issue:       errValidation,
		}
	}

	return nil
}

func validateTaskShape(caller string, secondsDuration int64, preference TimePreference) error {
	if secondsDuration < MinimumSeconds {
		return fmt.Errorf(
			"%s: duration %ds: %w",

			caller,
			secondsDuration,
			ErrMinDurationViolation,
		)
	}

	if !preference.IsValid() {
		return goerrors.ErrInvalidInput{
			Caller:     caller,
			InputName:  "Preference",
			InputValue: preference,
			Issue:      errors.New("unknown time preference"),
		}
	}

	return nil
}

func (s *Scheduler) validateWithinTimeline(caller string, interval TimeInterval) error {
	if s.store.timeline.contains(interval) {
		return nil
	}

	return fmt.Errorf(
		"%s: %s not within %s: %w",

		caller,
		interval,
		s.store.timeline.Interval(),
		ErrOutsideTimeline,
	)
}

// AppendTask places the task right after the last one,
// or at the timeline start when there are no tasks.
func (s *Scheduler) AppendTask(params *ParamsAppendTask) (*ResponseMutation, error) {
	if params == nil {
		return nil,
			goerrors.ErrValidation{
				Caller: "AppendTask",
				Issue: goerrors.ErrNilInput{
					InputName: "params",
				},
			}
	}

	if errValidation := validateParams("AppendTask", params); errValidation != nil {
		return nil,
			errValidation
	}

	if errShape := validateTaskShape("AppendTask", params.SecondsDuration, params.Preference); errShape != nil {
		return nil,
			errShape
	}

	timeStart := s.store.timeline.TimeStart
	if count := s.store.count(); count > 0 {
		timeStart = s.store.tasks[count-1].TimeEnd
	}

	task := newTask(
		&paramsNewTask{
			Name:            params.Name,
			Variant:         params.Variant,
			PreferenceValue: params.PreferenceValue,
			TimeStart:       timeStart,
			SecondsDuration: params.SecondsDuration,
			Preference:      params.Preference,
		},
	)

	if errTimeline := s.validateWithinTimeline("AppendTask", task.TimeInterval); errTimeline != nil {
		return nil,
			errTimeline
	}

	var pos int

	if errTx := s.transaction(
		"AppendTask",
		task.ID,
		func(tx *taskStore, _ *cascade) error {
			pos = tx.count()

			return tx.insertAt(pos, task)
		},
	); errTx != nil {
		return nil,
			errTx
	}

	return &ResponseMutation{
			TaskID:   task.ID,
			Position: pos,
		},
		nil
}

// InsertTask places the task at its requested start.
// A span overlapping an existing task is not inserted and is not an error,
// the response then suggests when the task could start.
func (s *Scheduler) InsertTask(params *ParamsInsertTask) (*ResponseInsert, error) {
	if params == nil {
		return nil,
			goerrors.ErrValidation{
				Caller: "InsertTask",
				Issue: goerrors.ErrNilInput{
					InputName: "params",
				},
			}
	}

	if errValidation := validateParams("InsertTask", params); errValidation != nil {
		return nil,
			errValidation
	}

	if errShape := validateTaskShape("InsertTask", params.SecondsDuration, params.Preference); errShape != nil {
		return nil,
			errShape
	}

	task := newTask(
		&paramsNewTask{
			Name:            params.Name,
			Variant:         params.Variant,
			PreferenceValue: params.PreferenceValue,
			TimeStart:       params.TimeStart,
			SecondsDuration: params.SecondsDuration,
			Preference:      params.Preference,
		},
	)

	if errTimeline := s.validateWithinTimeline("InsertTask", task.TimeInterval); errTimeline != nil {
		return nil,
			errTimeline
	}

	for _, existing := range s.store.tasks {
		if existing.Overlaps(task.TimeInterval) {
			s.log.Debug().
				Str("task", task.Name).
				Str("interval", task.TimeInterval.String()).
				Str("overlaps", existing.Name).
				Msg("insert skipped")

			return &ResponseInsert{
					WhenCanStart: s.FindAvailableTime(
						&ParamsFindAvailableTime{
							TimeStart:        params.TimeStart,
							MaximumTimeStart: s.store.timeline.TimeEnd() - params.SecondsDuration,
							SecondsDuration:  params.SecondsDuration,
						},
					),
				},
				nil
		}
	}

	var pos int

	if errTx := s.transaction(
		"InsertTask",
		task.ID,
		func(tx *taskStore, _ *cascade) error {
			pos = tx.positionForTime(task.TimeStart)

			return tx.insertAt(pos, task)
		},
	); errTx != nil {
		return nil,
			errTx
	}

	return &ResponseInsert{
			ResponseMutation: ResponseMutation{
				TaskID:   task.ID,
				Position: pos,
			},

			WasInserted: true,
		},
		nil
}

// InsertAfterCurrent places the task right after the task running now,
// or at the timeline start when nothing runs.
// Following tasks are pushed to make room.
func (s *Scheduler) InsertAfterCurrent(params *ParamsInsertAfterCurrent) (*ResponseMutation, error) {
	if params == nil {
		return nil,
			goerrors.ErrValidation{
				Caller: "InsertAfterCurrent",
				Issue: goerrors.ErrNilInput{
					InputName: "params",
				},
			}
	}

	if errValidation := validateParams("InsertAfterCurrent", params); errValidation != nil {
		return nil,
			errValidation
	}

	if errShape := validateTaskShape("InsertAfterCurrent", params.SecondsDuration, params.Preference); errShape != nil {
		return nil,
			errShape
	}

	pos := 0
	timeStart := s.store.timeline.TimeStart

	if activePos, active, isActive := s.GetActiveTask(s.nowUnix()); isActive {
		pos = activePos + 1
		timeStart = active.TimeEnd
	}

	task := newTask(
		&paramsNewTask{
			Name:            params.Name,
			Variant:         params.Variant,
			PreferenceValue: params.PreferenceValue,
			TimeStart:       timeStart,
			SecondsDuration: params.SecondsDuration,
			Preference:      params.Preference,
		},
	)

	if errTimeline := s.validateWithinTimeline("InsertAfterCurrent", task.TimeInterval); errTimeline != nil {
		return nil,
			errTimeline
	}

	if errTx := s.transaction(
		"InsertAfterCurrent",
		task.ID,
		func(tx *taskStore, c *cascade) error {
			if errInsert := tx.insertAt(pos, task); errInsert != nil {
				return errInsert
			}

			c.enqueue(
				cascadeStep{
					kind:     stepEndChanged,
					pos:      pos,
					previous: task.TimeStart,
				},
			)

			return nil
		},
	); errTx != nil {
		return nil,
			errTx
	}

	return &ResponseMutation{
			TaskID:   task.ID,
			Position: pos,
		},
		nil
}

// InterruptCurrentTask cuts the running task at now and inserts the new task after it.
// With ComeBack a copy of the interrupted task, lasting as long as it did
// before the cut, is placed right after the new task.
// Following tasks are pushed to make room.
func (s *Scheduler) InterruptCurrentTask(params *ParamsInterrupt) (*ResponseInterrupt, error) {
	if params == nil {
		return nil,
			goerrors.ErrValidation{
				Caller: "InterruptCurrentTask",
				Issue: goerrors.ErrNilInput{
					InputName: "params",
				},
			}
	}

	if errValidation := validateParams("InterruptCurrentTask", params); errValidation != nil {
		return nil,
			errValidation
	}

	if errShape := validateTaskShape("InterruptCurrentTask", params.SecondsDuration, params.Preference); errShape != nil {
		return nil,
			errShape
	}

	now := s.nowUnix()

	activePos, active, isActive := s.GetActiveTask(now)
	if !isActive {
		return nil,
			fmt.Errorf(
				"InterruptCurrentTask at %d: %w",

				now,
				ErrNoActiveTask,
			)
	}

	if now-active.TimeStart < MinimumSeconds {
		return nil,
			fmt.Errorf(
				"InterruptCurrentTask: %q would last %ds: %w",

				active.Name,
				now-active.TimeStart,
				ErrMinDurationViolation,
			)
	}

	inserted := newTask(
		&paramsNewTask{
			Name:            params.Name,
			Variant:         params.Variant,
			PreferenceValue: params.PreferenceValue,
			TimeStart:       now,
			SecondsDuration: params.SecondsDuration,
			Preference:      params.Preference,
		},
	)

	lastInserted := inserted

	var resumed Task

	if params.ComeBack {
		resumed = newTask(
			&paramsNewTask{
				Name:            active.Name,
				Variant:         active.Variant,
				TimeStart:       inserted.TimeEnd,
				SecondsDuration: active.Duration(),
				Preference:      active.Preference,
			},
		)

		lastInserted = resumed
	}

	if errTimeline := s.validateWithinTimeline("InterruptCurrentTask", lastInserted.TimeInterval); errTimeline != nil {
		return nil,
			errTimeline
	}

	if errTx := s.transaction(
		"InterruptCurrentTask",
		active.ID,
		func(tx *taskStore, c *cascade) error {
			tx.setInterval(
				activePos,
				TimeInterval{
					TimeStart: active.TimeStart,
					TimeEnd:   now,
				},
			)

			if errInsert := tx.insertAt(activePos+1, inserted); errInsert != nil {
				return errInsert
			}

			lastPos := activePos + 1

			if params.ComeBack {
				if errInsert := tx.insertAt(activePos+2, resumed); errInsert != nil {
					return errInsert
				}

				lastPos = activePos + 2
			}

			c.enqueue(
				cascadeStep{
					kind:     stepEndChanged,
					pos:      lastPos,
					previous: lastInserted.TimeStart,
				},
			)

			return nil
		},
	); errTx != nil {
		return nil,
			errTx
	}

	return &ResponseInterrupt{
			Interrupted: active.ID,
			Inserted:    inserted.ID,
			Resumed:     resumed.ID,
		},
		nil
}
