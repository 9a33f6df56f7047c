package tymbox

import (
	"fmt"

	goerrors "github.com/TudorHulban/go-errors"
)

type ParamsAlterTask struct {
	TaskID        TaskID
	SecondsAmount int64 `valid:"required"`
}

type ResponseAlter struct {
	ResponseMutation

	SecondsApplied int64
	Outcome        Outcome
}

func (s *Scheduler) positionOrErr(caller string, id TaskID) (int, error) {
	pos, exists := s.store.positionOf(id)
	if !exists {
		return -1,
			fmt.Errorf(
				"%s: %s: %w",

				caller,
				id,
				ErrTaskNotFound,
			)
	}

	return pos,
		nil
}

func (s *Scheduler) alter(caller string, params *ParamsAlterTask, change func(c *cascade, pos int) (int64, Outcome, error)) (*ResponseAlter, error) {
	if params == nil {
		return nil,
			goerrors.ErrValidation{
				Caller: caller,
				Issue: goerrors.ErrNilInput{
					InputName: "params",
				},
			}
	}

	if errValidation := validateParams(caller, params); errValidation != nil {
		return nil,
			errValidation
	}

	pos, errPos := s.positionOrErr(caller, params.TaskID)
	if errPos != nil {
		return nil,
			errPos
	}

	var (
		applied int64
		outcome Outcome
	)

	if errTx := s.transaction(
		caller,
		params.TaskID,
		func(_ *taskStore, c *cascade) error {
			var errChange error

			applied, outcome, errChange = change(c, pos)

			return errChange
		},
	); errTx != nil {
		return nil,
			errTx
	}

	newPos, _ := s.store.positionOf(params.TaskID)

	return &ResponseAlter{
			ResponseMutation: ResponseMutation{
				TaskID:   params.TaskID,
				Position: newPos,
			},

			SecondsApplied: applied,
			Outcome:        outcome,
		},
		nil
}

// MoveTask shifts the task keeping its duration.
// The amount is clamped into the task's feasible window,
// the response tells how much of it was applied.
func (s *Scheduler) MoveTask(params *ParamsAlterTask) (*ResponseAlter, error) {
	return s.alter(
		"MoveTask",
		params,
		func(c *cascade, pos int) (int64, Outcome, error) {
			applied, outcome := c.alterStart(pos, params.SecondsAmount)

			return applied,
				outcome,
				nil
		},
	)
}

// ResizeTask moves only the end of the task.
// Growth is clamped to the latest end, shrinking below 15 minutes fails.
func (s *Scheduler) ResizeTask(params *ParamsAlterTask) (*ResponseAlter, error) {
	return s.alter(
		"ResizeTask",
		params,
		func(c *cascade, pos int) (int64, Outcome, error) {
			return c.alterDuration(pos, params.SecondsAmount)
		},
	)
}

// BringToPreferredStart moves a preferred task toward its anchor as far as its neighbors allow.
// Tasks with any other preference are left in place and the outcome is rejected.
func (s *Scheduler) BringToPreferredStart(id TaskID) (Outcome, error) {
	pos, errPos := s.positionOrErr("BringToPreferredStart", id)
	if errPos != nil {
		return OutcomeRejected,
			errPos
	}

	if s.store.tasks[pos].Preference != PreferencePreferred {
		return OutcomeRejected,
			nil
	}

	var outcome Outcome

	if errTx := s.transaction(
		"BringToPreferredStart",
		id,
		func(_ *taskStore, c *cascade) error {
			outcome = c.bringToPreferredStart(pos)

			return nil
		},
	); errTx != nil {
		return OutcomeRejected,
			errTx
	}

	return outcome,
		nil
}

// RemoveTask removes the task at pos and leaves the gap in place.
func (s *Scheduler) RemoveTask(pos int) (Task, error) {
	var removed Task

	if errTx := s.transaction(
		"RemoveTask",
		TaskID{},
		func(tx *taskStore, _ *cascade) error {
			var errRemove error

			removed, errRemove = tx.removeAt(pos)

			return errRemove
		},
	); errTx != nil {
		return Task{},
			errTx
	}

	return removed,
		nil
}

func (s *Scheduler) RemoveTaskByID(id TaskID) (Task, error) {
	pos, errPos := s.positionOrErr("RemoveTaskByID", id)
	if errPos != nil {
		return Task{},
			errPos
	}

	return s.RemoveTask(pos)
}
