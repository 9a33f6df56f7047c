package tymbox

import (
	"time"

	goerrors "github.com/TudorHulban/go-errors"
	"github.com/asaskevich/govalidator"
	"github.com/rs/zerolog"
)

const _ServiceName = "Scheduler"

// Scheduler is the entry point of the engine.
// It is not safe for concurrent use, callers serialize access.
type Scheduler struct {
	store *taskStore

	log      zerolog.Logger
	now      func() time.Time
	location *time.Location

	subscribers      []subscription
	nextSubscriberID int

	mutating bool
}

type subscription struct {
	callback func(Change)
	id       int
}

type ParamsNewScheduler struct {
	Logger   *zerolog.Logger
	Now      func() time.Time
	Location *time.Location

	TimeStart       int64 `valid:"required"`
	SecondsDuration int64 `valid:"required"`
}

func NewScheduler(params *ParamsNewScheduler) (*Scheduler, error) {
	if params == nil {
		return nil,
			goerrors.ErrValidation{
				Caller: "NewScheduler",
				Issue: goerrors.ErrNilInput{
					InputName: "params",
				},
			}
	}

	if _, errValidation := govalidator.ValidateStruct(params); errValidation != nil {
		return nil,
			goerrors.ErrServiceValidation{
				ServiceName: _ServiceName,
				Caller:      "NewScheduler",
				Issue:       errValidation,
			}
	}

	if params.SecondsDuration < MinimumSeconds {
		return nil,
			goerrors.ErrValidation{
				Caller: "NewScheduler",
				Issue: goerrors.ErrInvalidInput{
					InputName:  "SecondsDuration",
					InputValue: params.SecondsDuration,
					Issue:      ErrMinDurationViolation,
				},
			}
	}

	log := zerolog.Nop()
	if params.Logger != nil {
		log = *params.Logger
	}

	location := params.Location
	if location == nil {
		location = time.Local
	}

	return &Scheduler{
			store: newTaskStore(
				Timeline{
					TimeStart:       params.TimeStart,
					SecondsDuration: params.SecondsDuration,
				},
			),

			log:      log.With().Str("component", "scheduler").Logger(),
			now:      params.Now,
			location: location,
		},
		nil
}

func (s *Scheduler) nowUnix() int64 {
	if s.now == nil {
		return time.Now().Unix()
	}

	return s.now().Unix()
}

// Subscribe registers a callback for change notifications.
// Callbacks run synchronously after a mutation is committed
// and may read the scheduler, but any mutation from inside one
// fails with ErrMutationInProgress.
func (s *Scheduler) Subscribe(callback func(Change)) (unsubscribe func()) {
	s.nextSubscriberID++

	id := s.nextSubscriberID

	s.subscribers = append(
		s.subscribers,
		subscription{
			id:       id,
			callback: callback,
		},
	)

	return func() {
		for ix, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:ix:ix], s.subscribers[ix+1:]...)

				return
			}
		}
	}
}

func (s *Scheduler) notify(changes []Change) {
	subscribers := append([]subscription(nil), s.subscribers...)

	for _, change := range changes {
		for _, sub := range subscribers {
			sub.callback(change)
		}
	}
}

// transaction runs apply and the cascade it queued on a copy of the store.
// The copy replaces the store only if every invariant holds,
// otherwise the store is left untouched and nothing is notified.
// Subscribers get the net changes against the committed store.
func (s *Scheduler) transaction(caller string, target TaskID, apply func(tx *taskStore, c *cascade) error) error {
	if s.mutating {
		return ErrMutationInProgress
	}

	s.mutating = true
	defer func() { s.mutating = false }()

	tx := s.store.clone()
	c := newCascade(tx, s.log)

	errTx := func() error {
		if errApply := apply(tx, c); errApply != nil {
			return errApply
		}

		if errRun := c.run(); errRun != nil {
			return errRun
		}

		if errValidate := validateStore(tx); errValidate != nil {
			return errValidate
		}

		return validateFixed(s.store, tx, target)
	}()
	if errTx != nil {
		s.log.Warn().
			Err(errTx).
			Str("operation", caller).
			Msg("mutation rejected")

		return errTx
	}

	changes := changesBetween(s.store, tx)

	s.store = tx

	s.log.Debug().
		Str("operation", caller).
		Int("changes", len(changes)).
		Int("steps", c.steps).
		Int("tasks", tx.count()).
		Msg("mutation committed")

	s.notify(changes)

	return nil
}

func (s *Scheduler) Timeline() Timeline {
	return s.store.timeline
}

func (s *Scheduler) TaskCount() int {
	return s.store.count()
}

// GetTask returns a copy of the task at pos.
func (s *Scheduler) GetTask(pos int) (Task, error) {
	return s.store.get(pos)
}

func (s *Scheduler) GetTaskByID(id TaskID) (Task, error) {
	pos, exists := s.store.positionOf(id)
	if !exists {
		return Task{},
			ErrTaskNotFound
	}

	return s.store.get(pos)
}

func (s *Scheduler) PositionOf(id TaskID) (int, bool) {
	return s.store.positionOf(id)
}

// Tasks returns a copy of all tasks in timeline order.
func (s *Scheduler) Tasks() []Task {
	return append([]Task(nil), s.store.tasks...)
}

func (s *Scheduler) Window(pos int) (FeasibleWindow, error) {
	return s.store.window(pos)
}

// GetActiveTask returns the task spanning timestamp, if any.
func (s *Scheduler) GetActiveTask(timestamp int64) (int, Task, bool) {
	pos := s.store.positionForTime(timestamp+1) - 1
	if pos < 0 {
		return -1, Task{}, false
	}

	task := s.store.tasks[pos]
	if !task.IsSpanning(timestamp) {
		return -1, Task{}, false
	}

	return pos, task, true
}

func (s *Scheduler) String() string {
	return s.store.String()
}
