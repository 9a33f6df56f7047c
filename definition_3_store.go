package tymbox

import (
	"fmt"
	"slices"
	"strings"
)

type ChangeKind uint8

const (
	ChangeInsert ChangeKind = iota
	ChangeRemove
	ChangeUpdate
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInsert:
		return "insert"

	case ChangeRemove:
		return "remove"

	case ChangeUpdate:
		return "update"
	}

	return fmt.Sprintf("ChangeKind(%d)", k)
}

type FieldMask uint8

const (
	FieldTimeStart FieldMask = 1 << iota
	FieldTimeEnd
	FieldWindow
)

func (m FieldMask) Has(field FieldMask) bool {
	return m&field != 0
}

// Change is the notification delivered to subscribers after a mutation.
// FirstPos and LastPos are inclusive and valid once the changes
// delivered before it are applied.
type Change struct {
	Kind     ChangeKind
	FirstPos int
	LastPos  int
	Fields   FieldMask
}

func (c Change) String() string {
	return fmt.Sprintf(
		"Change{%s [%d,%d] fields: %b}",

		c.Kind,
		c.FirstPos,
		c.LastPos,
		c.Fields,
	)
}

// taskStore keeps tasks ordered by start time, the position is the slice index.
type taskStore struct {
	timeline Timeline

	tasks   []Task
	windows []FeasibleWindow
	index   map[TaskID]int
}

func newTaskStore(timeline Timeline) *taskStore {
	return &taskStore{
		timeline: timeline,
		index:    make(map[TaskID]int),
	}
}

func (s *taskStore) clone() *taskStore {
	result := taskStore{
		timeline: s.timeline,
		tasks:    slices.Clone(s.tasks),
		windows:  slices.Clone(s.windows),
		index:    make(map[TaskID]int, len(s.index)),
	}

	for id, pos := range s.index {
		result.index[id] = pos
	}

	return &result
}

func (s *taskStore) count() int {
	return len(s.tasks)
}

func (s *taskStore) isValidPosition(pos int) bool {
	return pos >= 0 && pos < len(s.tasks)
}

func (s *taskStore) get(pos int) (Task, error) {
	if !s.isValidPosition(pos) {
		return Task{},
			ErrPosition{
				Caller:   "get",
				Position: pos,
				Count:    len(s.tasks),
			}
	}

	return s.tasks[pos],
		nil
}

func (s *taskStore) window(pos int) (FeasibleWindow, error) {
	if !s.isValidPosition(pos) {
		return FeasibleWindow{},
			ErrPosition{
				Caller:   "window",
				Position: pos,
				Count:    len(s.tasks),
			}
	}

	return s.windows[pos],
		nil
}

func (s *taskStore) insertAt(pos int, task Task) error {
	if pos < 0 || pos > len(s.tasks) {
		return ErrPosition{
			Caller:   "insertAt",
			Position: pos,
			Count:    len(s.tasks) + 1,
		}
	}

	s.tasks = slices.Insert(s.tasks, pos, task)
	s.windows = slices.Insert(s.windows, pos, FeasibleWindow{})

	s.reindex()
	s.refreshWindows()

	return nil
}

func (s *taskStore) removeAt(pos int) (Task, error) {
	if !s.isValidPosition(pos) {
		return Task{},
			ErrPosition{
				Caller:   "removeAt",
				Position: pos,
				Count:    len(s.tasks),
			}
	}

	removed := s.tasks[pos]

	s.tasks = slices.Delete(s.tasks, pos, pos+1)
	s.windows = slices.Delete(s.windows, pos, pos+1)

	s.reindex()
	s.refreshWindows()

	return removed,
		nil
}

func (s *taskStore) removeAll() {
	s.tasks = nil
	s.windows = nil

	s.reindex()
}

// setInterval writes both bounds of the task at pos.
// The caller guarantees pos is valid.
func (s *taskStore) setInterval(pos int, interval TimeInterval) {
	s.tasks[pos].TimeInterval = interval
}

// positionForTime returns the first position whose start is at or after
// timestamp, or count when there is none.
func (s *taskStore) positionForTime(timestamp int64) int {
	pos, _ := slices.BinarySearchFunc(
		s.tasks,
		timestamp,
		func(task Task, target int64) int {
			switch {
			case task.TimeStart < target:
				return -1

			case task.TimeStart > target:
				return 1
			}

			return 0
		},
	)

	return pos
}

func (s *taskStore) positionOf(id TaskID) (int, bool) {
	pos, exists := s.index[id]

	return pos, exists
}

func (s *taskStore) reindex() {
	clear(s.index)

	for pos, task := range s.tasks {
		s.index[task.ID] = pos
	}
}

func (s *taskStore) String() string {
	if len(s.tasks) == 0 {
		return "Timeline: (empty)"
	}

	var sb strings.Builder

	sb.WriteString("Timeline:\n")

	for pos, task := range s.tasks {
		sb.WriteString(
			fmt.Sprintf(
				"- %d: %s window %s\n",

				pos,
				task,
				s.windows[pos],
			),
		)
	}

	return sb.String()
}
