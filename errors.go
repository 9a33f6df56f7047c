package tymbox

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfRange           = errors.New("position out of range")
	ErrMinDurationViolation = errors.New("duration below 15 minutes")
	ErrIrrecoverableOverlap = errors.New("irrecoverable overlapping task")
	ErrImportRecordInvalid  = errors.New("invalid import record")
	ErrMutationInProgress   = errors.New("mutation already in progress")
	ErrNoActiveTask         = errors.New("no task active at given time")
	ErrOutsideTimeline      = errors.New("span outside of timeline")
	ErrTaskNotFound         = errors.New("task not found")
)

type ErrPosition struct {
	Caller   string
	Position int
	Count    int
}

func (e ErrPosition) Error() string {
	return fmt.Sprintf(
		"%s: position %d not in [0,%d)",

		e.Caller,
		e.Position,
		e.Count,
	)
}

func (e ErrPosition) Unwrap() error {
	return ErrOutOfRange
}

type ErrOverlap struct {
	Caller string
	Task   string
	Issue  string

	Position int
}

func (e ErrOverlap) Error() string {
	return fmt.Sprintf(
		"%s: task %q at position %d: %s",

		e.Caller,
		e.Task,
		e.Position,
		e.Issue,
	)
}

func (e ErrOverlap) Unwrap() error {
	return ErrIrrecoverableOverlap
}

type ErrImportRecord struct {
	Issue error

	Index int
}

func (e ErrImportRecord) Error() string {
	return fmt.Sprintf(
		"record %d: %v",

		e.Index,
		e.Issue,
	)
}

func (e ErrImportRecord) Unwrap() []error {
	return []error{ErrImportRecordInvalid, e.Issue}
}
