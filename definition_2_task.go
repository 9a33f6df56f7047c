package tymbox

import (
	"fmt"

	"github.com/google/uuid"
)

type TaskID uuid.UUID

func NewTaskID() TaskID {
	return TaskID(uuid.New())
}

func (id TaskID) String() string {
	return uuid.UUID(id).String()
}

func (id TaskID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

type TaskKind uint8

const (
	KindTask TaskKind = iota
	KindCardTask
)

func (k TaskKind) String() string {
	switch k {
	case KindTask:
		return "Task"

	case KindCardTask:
		return "CardTask"
	}

	return fmt.Sprintf("TaskKind(%d)", k)
}

// TaskVariant is closed: only VariantPlain and VariantCard implement it.
type TaskVariant interface {
	Kind() TaskKind

	isTaskVariant()
}

type VariantPlain struct{}

func (VariantPlain) Kind() TaskKind { return KindTask }
func (VariantPlain) isTaskVariant() {}

// VariantCard links the task to a card of the external task tracker.
type VariantCard struct {
	ExternalCardID string
}

func (VariantCard) Kind() TaskKind { return KindCardTask }
func (VariantCard) isTaskVariant() {}

type Task struct {
	Name    string
	Variant TaskVariant

	TimeInterval

	ID              TaskID
	PreferenceValue int64
	Preference      TimePreference
}

func (t Task) Kind() TaskKind {
	if t.Variant == nil {
		return KindTask
	}

	return t.Variant.Kind()
}

// IsSpanning reports whether the task is running at timestamp.
func (t Task) IsSpanning(timestamp int64) bool {
	return t.Contains(timestamp)
}

func (t Task) String() string {
	return fmt.Sprintf(
		"Task{%q %s %s %s anchor: %d}",

		t.Name,
		t.Kind(),
		t.TimeInterval,
		t.Preference,
		t.PreferenceValue,
	)
}

type paramsNewTask struct {
	Name            string
	Variant         TaskVariant
	PreferenceValue *int64

	TimeStart       int64
	SecondsDuration int64
	Preference      TimePreference
}

func newTask(params *paramsNewTask) Task {
	variant := params.Variant
	if variant == nil {
		variant = VariantPlain{}
	}

	return Task{
		ID:      NewTaskID(),
		Name:    params.Name,
		Variant: variant,

		TimeInterval: TimeInterval{
			TimeStart: params.TimeStart,
			TimeEnd:   params.TimeStart + params.SecondsDuration,
		},

		Preference: params.Preference,
		PreferenceValue: ternary(
			params.PreferenceValue == nil,

			params.TimeStart,
			valueOr(params.PreferenceValue, 0),
		),
	}
}
