package tymbox

import (
	"sync"
	"time"

	goerrors "github.com/TudorHulban/go-errors"
	"github.com/asaskevich/govalidator"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

const (
	_SizeEndedCache = 128
	_TTLEndedCache  = 24 * time.Hour
)

// Assistant follows the task running now and reports when it ends.
// Change notifications and Refresh run on the scheduler's goroutine,
// the end timer only touches the assistant's own copy of the task.
type Assistant struct {
	scheduler   *Scheduler
	onTaskEnded func(Task)
	now         func() time.Time
	log         zerolog.Logger

	// keys of task ends already reported
	ended *expirable.LRU[string, struct{}]

	unsubscribe func()

	mu      sync.Mutex
	current *Task
	timer   *time.Timer
}

type ParamsNewAssistant struct {
	Scheduler   *Scheduler `valid:"required"`
	OnTaskEnded func(Task)
	Now         func() time.Time
	Logger      *zerolog.Logger
}

func NewAssistant(params *ParamsNewAssistant) (*Assistant, error) {
	if params == nil {
		return nil,
			goerrors.ErrValidation{
				Caller: "NewAssistant",
				Issue: goerrors.ErrNilInput{
					InputName: "params",
				},
			}
	}

	if _, errValidation := govalidator.ValidateStruct(params); errValidation != nil {
		return nil,
			goerrors.ErrServiceValidation{
				ServiceName: "Assistant",
				Caller:      "NewAssistant",
				Issue:       errValidation,
			}
	}

	log := zerolog.Nop()
	if params.Logger != nil {
		log = *params.Logger
	}

	now := params.Now
	if now == nil {
		now = time.Now
	}

	result := Assistant{
		scheduler:   params.Scheduler,
		onTaskEnded: params.OnTaskEnded,
		now:         now,
		log:         log.With().Str("component", "assistant").Logger(),

		ended: expirable.NewLRU[string, struct{}](_SizeEndedCache, nil, _TTLEndedCache),
	}

	result.unsubscribe = params.Scheduler.Subscribe(result.onChange)
	result.Refresh()

	return &result,
		nil
}

func keyEnded(task *Task) string {
	return task.ID.String() + "@" + time.Unix(task.TimeEnd, 0).UTC().Format(time.RFC3339)
}

func (a *Assistant) onChange(change Change) {
	switch change.Kind {
	case ChangeRemove:
		a.dropIfGone()

	case ChangeUpdate:
		if !change.Fields.Has(FieldTimeStart) && !change.Fields.Has(FieldTimeEnd) {
			return
		}

		a.dropIfGone()
		a.scanRows(change.FirstPos, change.LastPos)

	case ChangeInsert:
		a.scanRows(change.FirstPos, change.LastPos)
	}
}

// scanRows looks for the task spanning now between the positions, inclusive.
func (a *Assistant) scanRows(first, last int) {
	now := a.now().Unix()

	for pos := first; pos <= last; pos++ {
		task, errGet := a.scheduler.GetTask(pos)
		if errGet != nil {
			return
		}

		if task.IsSpanning(now) {
			a.setCurrent(&task, now)

			return
		}
	}

	a.mu.Lock()
	current := a.current
	a.mu.Unlock()

	if current == nil {
		return
	}

	// the held copy is stale after an edit
	fresh, errGet := a.scheduler.GetTaskByID(current.ID)
	if errGet != nil || !fresh.IsSpanning(now) {
		a.setCurrent(nil, now)

		return
	}

	if fresh.TimeInterval != current.TimeInterval {
		a.setCurrent(&fresh, now)
	}
}

func (a *Assistant) dropIfGone() {
	a.mu.Lock()
	current := a.current
	a.mu.Unlock()

	if current == nil {
		return
	}

	if _, errGet := a.scheduler.GetTaskByID(current.ID); errGet != nil {
		a.setCurrent(nil, a.now().Unix())
	}
}

// Refresh rescans the whole timeline.
func (a *Assistant) Refresh() {
	now := a.now().Unix()

	_, task, isActive := a.scheduler.GetActiveTask(now)
	if !isActive {
		a.setCurrent(nil, now)

		return
	}

	a.setCurrent(&task, now)
}

func (a *Assistant) setCurrent(task *Task, now int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}

	a.current = task

	if task == nil {
		a.log.Debug().Msg("no current task")

		return
	}

	remaining := task.TimeEnd - now

	a.log.Debug().
		Str("task", task.Name).
		Int64("remaining", remaining).
		Msg("current task updated")

	a.timer = time.AfterFunc(
		time.Duration(remaining)*time.Second,
		func() {
			a.CheckEnded(a.now().Unix())
		},
	)
}

func (a *Assistant) CurrentTask() (Task, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == nil {
		return Task{},
			false
	}

	return *a.current,
		true
}

// Remaining returns the seconds left of the current task at timestamp.
func (a *Assistant) Remaining(timestamp int64) (int64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == nil {
		return 0,
			false
	}

	return max(a.current.TimeEnd-timestamp, 0),
		true
}

// CheckEnded reports the current task as ended when timestamp reached its end.
// Every task end is reported once.
func (a *Assistant) CheckEnded(timestamp int64) bool {
	a.mu.Lock()

	if a.current == nil || timestamp < a.current.TimeEnd {
		a.mu.Unlock()

		return false
	}

	task := *a.current
	a.current = nil

	key := keyEnded(&task)
	if a.ended.Contains(key) {
		a.mu.Unlock()

		return false
	}

	a.ended.Add(key, struct{}{})
	a.mu.Unlock()

	a.log.Info().
		Str("task", task.Name).
		Msg("task ended")

	if a.onTaskEnded != nil {
		a.onTaskEnded(task)
	}

	return true
}

func (a *Assistant) Stop() {
	a.unsubscribe()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
