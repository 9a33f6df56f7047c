package tymbox

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Outcome tells the caller how much of a requested move was applied.
type Outcome uint8

const (
	OutcomeHonored Outcome = iota
	OutcomePartial
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHonored:
		return "honored"

	case OutcomePartial:
		return "partial"

	case OutcomeRejected:
		return "rejected"
	}

	return fmt.Sprintf("Outcome(%d)", o)
}

func outcomeOf(requested, applied int64) Outcome {
	switch {
	case requested == applied:
		return OutcomeHonored

	case applied == 0:
		return OutcomeRejected
	}

	return OutcomePartial
}

type stepKind uint8

const (
	stepEndChanged stepKind = iota
	stepStartChanged
)

func (k stepKind) String() string {
	return ternary(k == stepEndChanged, "end changed", "start changed")
}

type cascadeStep struct {
	kind     stepKind
	pos      int
	previous int64 // bound value before the change
}

// cascade propagates bound changes to neighbors until nothing is left to do.
// Structural changes never happen while a cascade runs, positions are stable.
type cascade struct {
	store *taskStore
	log   zerolog.Logger

	queue []cascadeStep
	steps int
}

func newCascade(store *taskStore, log zerolog.Logger) *cascade {
	return &cascade{
		store: store,
		log:   log,
	}
}

func (c *cascade) stepsLimit() int {
	return 64 + 16*c.store.count()
}

func (c *cascade) enqueue(step cascadeStep) {
	c.queue = append(c.queue, step)
}

func (c *cascade) run() error {
	limit := c.stepsLimit()

	for len(c.queue) > 0 {
		c.steps++

		if c.steps > limit {
			return fmt.Errorf(
				"cascade did not settle after %d steps: %w",

				limit,
				ErrIrrecoverableOverlap,
			)
		}

		step := c.queue[0]
		c.queue = c.queue[1:]

		c.log.Trace().
			Str("step", step.kind.String()).
			Int("pos", step.pos).
			Int64("previous", step.previous).
			Msg("cascade")

		c.store.refreshWindows()

		var errStep error

		switch step.kind {
		case stepEndChanged:
			errStep = c.onEndChanged(step)

		case stepStartChanged:
			errStep = c.onStartChanged(step)
		}

		if errStep != nil {
			return errStep
		}
	}

	c.store.refreshWindows()

	return nil
}

// onEndChanged pushes the next task out of the way,
// or lets it return toward its anchor when room was freed.
func (c *cascade) onEndChanged(step cascadeStep) error {
	if step.pos+1 >= c.store.count() {
		return nil
	}

	task := c.store.tasks[step.pos]
	next := c.store.tasks[step.pos+1]

	overlap := task.TimeEnd - next.TimeStart
	if overlap > 0 {
		return c.pushNext(step.pos+1, overlap)
	}

	if task.TimeEnd <= step.previous &&
		next.Preference == PreferencePreferred &&
		next.TimeStart > next.PreferenceValue {
		c.bringToPreferredStart(step.pos + 1)
	}

	return nil
}

func (c *cascade) pushNext(pos int, overlap int64) error {
	next := c.store.tasks[pos]

	if next.Preference == PreferenceFixed {
		return ErrOverlap{
			Caller:   "pushNext",
			Task:     next.Name,
			Position: pos,
			Issue:    fmt.Sprintf("fixed task cannot be pushed by %ds", overlap),
		}
	}

	applied, _ := c.alterStart(pos, overlap)

	remaining := overlap - applied
	if remaining == 0 {
		return nil
	}

	// a preferred task may give up part of its duration instead
	if next.Preference == PreferencePreferred &&
		next.Duration()-remaining >= MinimumSeconds {
		c.squeezeStart(pos, remaining)

		return nil
	}

	return ErrOverlap{
		Caller:   "pushNext",
		Task:     next.Name,
		Position: pos,
		Issue:    fmt.Sprintf("no room to push by %ds, %ds left", overlap, remaining),
	}
}

// onStartChanged makes the previous task give way,
// or lets it move toward its anchor when room was freed.
func (c *cascade) onStartChanged(step cascadeStep) error {
	if step.pos == 0 {
		return nil
	}

	task := c.store.tasks[step.pos]
	previous := c.store.tasks[step.pos-1]

	overlap := previous.TimeEnd - task.TimeStart
	if overlap > 0 {
		return c.absorbOverlap(step.pos-1, overlap)
	}

	if task.TimeStart >= step.previous &&
		previous.Preference == PreferencePreferred &&
		previous.TimeStart < previous.PreferenceValue {
		c.bringToPreferredStart(step.pos - 1)
	}

	return nil
}

// absorbOverlap resolves an overlap of the task at pos with its successor
// according to the task's preference.
func (c *cascade) absorbOverlap(pos int, overlap int64) error {
	task := c.store.tasks[pos]
	window := c.store.windows[pos]

	canSlide := task.TimeStart-overlap >= window.EarliestStart
	canShrink := task.Duration()-overlap >= MinimumSeconds

	switch task.Preference {
	case PreferencePreferred, PreferenceSequential:
		if canSlide {
			c.alterStart(pos, -overlap)

			return nil
		}

		if canShrink {
			_, _, errShrink := c.alterDuration(pos, -overlap)

			return errShrink
		}

	case PreferenceEndNoLater, PreferenceDuration:
		if canSlide {
			c.alterStart(pos, -overlap)

			return nil
		}

	case PreferenceStartAt:
		if canShrink {
			_, _, errShrink := c.alterDuration(pos, -overlap)

			return errShrink
		}
	}

	return ErrOverlap{
		Caller:   "absorbOverlap",
		Task:     task.Name,
		Position: pos,
		Issue:    fmt.Sprintf("%s task cannot give way by %ds", task.Preference, overlap),
	}
}

// alterStart moves the whole task, clamped into its feasible window.
// The clamp never reverses the requested direction.
func (c *cascade) alterStart(pos int, amount int64) (int64, Outcome) {
	task := c.store.tasks[pos]
	window := c.store.computeWindow(pos)

	applied := amount

	if amount < 0 && task.TimeStart+amount < window.EarliestStart {
		applied = min(window.EarliestStart-task.TimeStart, 0)
	}

	if amount > 0 && task.TimeEnd+amount > window.LatestEnd {
		applied = max(window.LatestEnd-task.TimeEnd, 0)
	}

	c.log.Debug().
		Int("pos", pos).
		Int64("requested", amount).
		Int64("applied", applied).
		Msg("alter start")

	if applied == 0 {
		return 0,
			outcomeOf(amount, 0)
	}

	c.store.setInterval(pos, task.Shift(applied))

	c.enqueue(
		cascadeStep{
			kind:     stepEndChanged,
			pos:      pos,
			previous: task.TimeEnd,
		},
	)

	c.enqueue(
		cascadeStep{
			kind:     stepStartChanged,
			pos:      pos,
			previous: task.TimeStart,
		},
	)

	return applied,
		outcomeOf(amount, applied)
}

// alterDuration moves only the end, growth is clamped to the latest end.
func (c *cascade) alterDuration(pos int, amount int64) (int64, Outcome, error) {
	task := c.store.tasks[pos]

	newEnd := task.TimeEnd + amount

	if amount > 0 {
		newEnd = min(newEnd, max(c.store.latestEnd(pos), task.TimeEnd))
	}

	if newEnd-task.TimeStart < MinimumSeconds {
		return 0,
			OutcomeRejected,
			fmt.Errorf(
				"task %q would last %ds: %w",

				task.Name,
				newEnd-task.TimeStart,
				ErrMinDurationViolation,
			)
	}

	applied := newEnd - task.TimeEnd

	c.log.Debug().
		Int("pos", pos).
		Int64("requested", amount).
		Int64("applied", applied).
		Msg("alter duration")

	if applied == 0 {
		return 0,
			outcomeOf(amount, 0),
			nil
	}

	c.store.setInterval(
		pos,
		TimeInterval{
			TimeStart: task.TimeStart,
			TimeEnd:   newEnd,
		},
	)

	c.enqueue(
		cascadeStep{
			kind:     stepEndChanged,
			pos:      pos,
			previous: task.TimeEnd,
		},
	)

	return applied,
		outcomeOf(amount, applied),
		nil
}

// squeezeStart moves only the start later, the caller checked the minimum duration.
func (c *cascade) squeezeStart(pos int, amount int64) {
	task := c.store.tasks[pos]

	c.store.setInterval(
		pos,
		TimeInterval{
			TimeStart: task.TimeStart + amount,
			TimeEnd:   task.TimeEnd,
		},
	)

	c.enqueue(
		cascadeStep{
			kind:     stepStartChanged,
			pos:      pos,
			previous: task.TimeStart,
		},
	)
}

// bringToPreferredStart moves the task toward its anchor.
// The distance is bounded by the actual edge of the neighbor,
// not its window, so the task never lands on an overlapping neighbor.
func (c *cascade) bringToPreferredStart(pos int) Outcome {
	task := c.store.tasks[pos]

	requested := task.PreferenceValue - task.TimeStart
	distance := requested

	if distance < 0 {
		edge := c.store.timeline.TimeStart
		if pos > 0 {
			edge = c.store.tasks[pos-1].TimeEnd
		}

		distance = max(distance, min(edge-task.TimeStart, 0))
	}

	if distance > 0 {
		edge := c.store.timeline.TimeEnd()
		if pos+1 < c.store.count() {
			edge = c.store.tasks[pos+1].TimeStart
		}

		distance = min(distance, max(edge-task.TimeEnd, 0))
	}

	c.log.Debug().
		Int("pos", pos).
		Str("task", task.Name).
		Int64("anchor", task.PreferenceValue).
		Int64("start", task.TimeStart).
		Int64("distance", distance).
		Msg("bring to preferred start")

	if distance == 0 {
		return outcomeOf(requested, 0)
	}

	applied, _ := c.alterStart(pos, distance)

	return outcomeOf(requested, applied)
}

// validateStore checks the invariants every committed store satisfies.
func validateStore(s *taskStore) error {
	for pos, task := range s.tasks {
		if task.Duration() < MinimumSeconds {
			return fmt.Errorf(
				"task %q at position %d lasts %ds: %w",

				task.Name,
				pos,
				task.Duration(),
				ErrMinDurationViolation,
			)
		}

		if !s.timeline.contains(task.TimeInterval) {
			return ErrOverlap{
				Caller:   "validateStore",
				Task:     task.Name,
				Position: pos,
				Issue:    fmt.Sprintf("%s outside timeline %s", task.TimeInterval, s.timeline.Interval()),
			}
		}

		if pos+1 < len(s.tasks) && task.TimeEnd > s.tasks[pos+1].TimeStart {
			return ErrOverlap{
				Caller:   "validateStore",
				Task:     task.Name,
				Position: pos,
				Issue:    fmt.Sprintf("overlaps %q by %ds", s.tasks[pos+1].Name, task.TimeEnd-s.tasks[pos+1].TimeStart),
			}
		}
	}

	for pos, task := range s.tasks {
		if !s.windows[pos].Contains(task.TimeInterval) {
			return ErrOverlap{
				Caller:   "validateStore",
				Task:     task.Name,
				Position: pos,
				Issue:    fmt.Sprintf("%s outside %s", task.TimeInterval, s.windows[pos]),
			}
		}
	}

	return nil
}

// validateFixed rejects side effect moves of fixed tasks.
// exempt holds the direct target of the mutation.
func validateFixed(before, after *taskStore, exempt TaskID) error {
	for pos, task := range after.tasks {
		if task.Preference != PreferenceFixed || task.ID == exempt {
			continue
		}

		previousPos, existed := before.positionOf(task.ID)
		if !existed {
			continue
		}

		if before.tasks[previousPos].TimeInterval != task.TimeInterval {
			return ErrOverlap{
				Caller:   "validateFixed",
				Task:     task.Name,
				Position: pos,
				Issue:    "fixed task moved as side effect",
			}
		}
	}

	return nil
}
