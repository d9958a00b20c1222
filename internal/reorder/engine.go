// Package reorder implements the board reducer: drag gestures and column/task edits applied
// as pure transitions from one State to the next.
package reorder

import (
	"maps"
	"slices"
	"strings"

	"github.com/evanschultz/taskboard/internal/domain"
)

// Default titles given to columns and tasks created without one.
const (
	DefaultColumnTitle = "New Column"
	DefaultTaskTitle   = "New Task"
)

// State is the full reducer state. Revision increases by one on every transition that
// changes anything, including the drag marker and the carry.
type State struct {
	Board        domain.Board
	ActiveTaskID string
	Carry        Carry
	Revision     uint64
}

// Carry records the last cross-column move made by dragOver: the task it moved and the target
// it was hovering at the time. It is set without a dragStart, so clients that only send
// dragOver and dragEnd get the same final order.
type Carry struct {
	TaskID string
	OverID string
}

// carries reports whether c belongs to taskID.
func (c Carry) carries(taskID string) bool {
	return c.TaskID != "" && c.TaskID == taskID
}

// NewState wraps a board in an idle state.
func NewState(board domain.Board) State {
	return State{Board: board.Clone()}
}

// Clone deep-copies the state.
func (s State) Clone() State {
	s.Board = s.Board.Clone()
	return s
}

// Dragging reports whether a gesture is in flight.
func (s State) Dragging() bool {
	return s.ActiveTaskID != ""
}

// Reduce applies ev to s and returns the next state plus whether anything changed.
// The input state is never mutated: touched columns get fresh TaskIDs slices and a touched
// registry is a fresh map, so callers may keep old snapshots. Events that reference unknown
// columns or tasks return s unchanged.
func Reduce(s State, ev Event) (State, bool) {
	var (
		next    State
		changed bool
	)
	switch ev := ev.(type) {
	case DragStart:
		next, changed = dragStart(s, ev)
	case DragOver:
		next, changed = dragOver(s, ev)
	case DragEnd:
		next, changed = dragEnd(s, ev)
	case AddColumn:
		next, changed = addColumn(s, ev)
	case AddTask:
		next, changed = addTask(s, ev)
	case UpdateTask:
		next, changed = updateTask(s, ev)
	case DeleteTask:
		next, changed = deleteTask(s, ev)
	case UpdateColumn:
		next, changed = updateColumn(s, ev)
	case DeleteColumn:
		next, changed = deleteColumn(s, ev)
	default:
		return s, false
	}
	if !changed {
		return s, false
	}
	next.Revision = s.Revision + 1
	return next, true
}

func dragStart(s State, ev DragStart) (State, bool) {
	if !s.Board.HasTask(ev.ActiveID) || s.ActiveTaskID == ev.ActiveID {
		return s, false
	}
	s.ActiveTaskID = ev.ActiveID
	s.Carry = Carry{}
	return s, true
}

// dragOver only handles cross-column hovers. Same-column hovers are committed by dragEnd,
// which keeps repeated pointer-move frames inside the source column from reshuffling cards.
func dragOver(s State, ev DragOver) (State, bool) {
	b := s.Board
	src := b.ColumnIndexOfTask(ev.ActiveID)
	dst := b.ResolveTarget(ev.OverID)
	if src < 0 || dst < 0 || src == dst {
		return s, false
	}
	target := b.Columns[dst]
	index := len(target.TaskIDs)
	if b.HasTask(ev.OverID) {
		if overIdx := target.IndexOf(ev.OverID); overIdx >= 0 {
			index = overIdx
		}
	}
	s.Board = moveTask(b, src, dst, ev.ActiveID, index)
	s.Carry = Carry{TaskID: ev.ActiveID, OverID: ev.OverID}
	return s, true
}

// dragEnd moves the task to the index of the task it was dropped on within its column.
// Dropping a carried task on the same target that carried it keeps the hover placement.
func dragEnd(s State, ev DragEnd) (State, bool) {
	changed := s.ActiveTaskID != "" || s.Carry != (Carry{})
	carry := s.Carry
	s.ActiveTaskID = ""
	s.Carry = Carry{}

	b := s.Board
	if ev.OverID == "" {
		return s, changed
	}
	src := b.ColumnIndexOfTask(ev.ActiveID)
	dst := b.ResolveTarget(ev.OverID)
	if src < 0 || dst < 0 || src != dst {
		return s, changed
	}
	if carry.carries(ev.ActiveID) && carry.OverID == ev.OverID {
		return s, changed
	}
	column := b.Columns[src]
	from := column.IndexOf(ev.ActiveID)
	to := column.IndexOf(ev.OverID)
	if to < 0 || from == to {
		return s, changed
	}
	s.Board = moveTask(b, src, src, ev.ActiveID, to)
	return s, true
}

func addColumn(s State, ev AddColumn) (State, bool) {
	id := strings.TrimSpace(ev.ColumnID)
	if id == "" || idInUse(s.Board, id) {
		return s, false
	}
	title := strings.TrimSpace(ev.Title)
	if title == "" {
		title = DefaultColumnTitle
	}
	column, err := domain.NewColumn(id, title)
	if err != nil {
		return s, false
	}
	columns := make([]domain.Column, 0, len(s.Board.Columns)+1)
	columns = append(columns, s.Board.Columns...)
	s.Board = domain.Board{
		Columns: append(columns, column),
		Tasks:   s.Board.Tasks,
	}
	return s, true
}

func addTask(s State, ev AddTask) (State, bool) {
	colIdx := s.Board.ColumnIndex(ev.ColumnID)
	id := strings.TrimSpace(ev.TaskID)
	if colIdx < 0 || id == "" || idInUse(s.Board, id) {
		return s, false
	}
	title := strings.TrimSpace(ev.Title)
	if title == "" {
		title = DefaultTaskTitle
	}
	task, err := domain.NewTask(id, title, ev.Description, ev.At)
	if err != nil {
		return s, false
	}
	tasks := maps.Clone(s.Board.Tasks)
	if tasks == nil {
		tasks = map[string]domain.Task{}
	}
	tasks[task.ID] = task

	columns := slices.Clone(s.Board.Columns)
	column := columns[colIdx]
	column.TaskIDs = append(slices.Clone(column.TaskIDs), task.ID)
	columns[colIdx] = column

	s.Board = domain.Board{Columns: columns, Tasks: tasks}
	return s, true
}

func updateTask(s State, ev UpdateTask) (State, bool) {
	task, ok := s.Board.Tasks[ev.TaskID]
	if !ok {
		return s, false
	}
	tasks := maps.Clone(s.Board.Tasks)
	tasks[task.ID] = task.Patched(ev.Patch, ev.At)
	s.Board = domain.Board{Columns: s.Board.Columns, Tasks: tasks}
	return s, true
}

func deleteTask(s State, ev DeleteTask) (State, bool) {
	if !s.Board.HasTask(ev.TaskID) {
		return s, false
	}
	tasks := maps.Clone(s.Board.Tasks)
	delete(tasks, ev.TaskID)

	columns := slices.Clone(s.Board.Columns)
	for i, column := range columns {
		if !column.Contains(ev.TaskID) {
			continue
		}
		column.TaskIDs = slices.DeleteFunc(slices.Clone(column.TaskIDs), func(id string) bool {
			return id == ev.TaskID
		})
		columns[i] = column
	}
	s.Board = domain.Board{Columns: columns, Tasks: tasks}
	if s.ActiveTaskID == ev.TaskID {
		s.ActiveTaskID = ""
	}
	if s.Carry.carries(ev.TaskID) {
		s.Carry = Carry{}
	}
	return s, true
}

func updateColumn(s State, ev UpdateColumn) (State, bool) {
	colIdx := s.Board.ColumnIndex(ev.ColumnID)
	title := strings.TrimSpace(ev.Title)
	if colIdx < 0 || title == "" || s.Board.Columns[colIdx].Title == title {
		return s, false
	}
	columns := slices.Clone(s.Board.Columns)
	columns[colIdx].Title = title
	s.Board = domain.Board{Columns: columns, Tasks: s.Board.Tasks}
	return s, true
}

func deleteColumn(s State, ev DeleteColumn) (State, bool) {
	colIdx := s.Board.ColumnIndex(ev.ColumnID)
	if colIdx < 0 {
		return s, false
	}
	removed := s.Board.Columns[colIdx]
	tasks := maps.Clone(s.Board.Tasks)
	if tasks == nil {
		tasks = map[string]domain.Task{}
	}
	for _, taskID := range removed.TaskIDs {
		delete(tasks, taskID)
		if s.ActiveTaskID == taskID {
			s.ActiveTaskID = ""
		}
		if s.Carry.carries(taskID) {
			s.Carry = Carry{}
		}
	}
	columns := slices.Delete(slices.Clone(s.Board.Columns), colIdx, colIdx+1)
	s.Board = domain.Board{Columns: columns, Tasks: tasks}
	return s, true
}

// moveTask removes taskID from column src and inserts it into column dst at index, where
// index is the final position in dst after the removal. The result shares unchanged columns
// with b but never writes to b.
func moveTask(b domain.Board, src, dst int, taskID string, index int) domain.Board {
	columns := slices.Clone(b.Columns)

	source := columns[src]
	source.TaskIDs = slices.DeleteFunc(slices.Clone(source.TaskIDs), func(id string) bool {
		return id == taskID
	})
	columns[src] = source

	target := columns[dst]
	ids := target.TaskIDs
	if src != dst {
		ids = slices.Clone(ids)
	}
	index = max(0, min(index, len(ids)))
	target.TaskIDs = slices.Insert(ids, index, taskID)
	columns[dst] = target

	return domain.Board{Columns: columns, Tasks: b.Tasks}
}

// idInUse reports whether id already names a column or a task.
func idInUse(b domain.Board, id string) bool {
	return b.HasTask(id) || b.ColumnIndex(id) >= 0
}
