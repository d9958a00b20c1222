package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Board is the ordered column list plus the task registry.
type Board struct {
	Columns []Column
	Tasks   map[string]Task
}

// NewBoard returns an empty board.
func NewBoard() Board {
	return Board{
		Columns: []Column{},
		Tasks:   map[string]Task{},
	}
}

// Clone deep-copies the board so the result shares no slices or maps with b.
func (b Board) Clone() Board {
	out := Board{
		Columns: make([]Column, 0, len(b.Columns)),
		Tasks:   make(map[string]Task, len(b.Tasks)),
	}
	for _, column := range b.Columns {
		out.Columns = append(out.Columns, column.Clone())
	}
	maps.Copy(out.Tasks, b.Tasks)
	return out
}

// ColumnIndex returns the index of the column with the given ID, or -1.
func (b Board) ColumnIndex(columnID string) int {
	if columnID == "" {
		return -1
	}
	return slices.IndexFunc(b.Columns, func(c Column) bool { return c.ID == columnID })
}

// ColumnIndexOfTask returns the index of the column holding taskID, or -1.
func (b Board) ColumnIndexOfTask(taskID string) int {
	if taskID == "" {
		return -1
	}
	return slices.IndexFunc(b.Columns, func(c Column) bool { return c.Contains(taskID) })
}

// ResolveTarget maps a drop target to a column index. The target is either a column ID or
// the ID of a task inside some column. Returns -1 when neither matches.
func (b Board) ResolveTarget(targetID string) int {
	if idx := b.ColumnIndex(targetID); idx >= 0 {
		return idx
	}
	return b.ColumnIndexOfTask(targetID)
}

// HasTask reports whether taskID is in the registry.
func (b Board) HasTask(taskID string) bool {
	_, ok := b.Tasks[taskID]
	return ok
}

// TasksInColumn returns the tasks of one column in display order.
func (b Board) TasksInColumn(columnID string) []Task {
	idx := b.ColumnIndex(columnID)
	if idx < 0 {
		return nil
	}
	out := make([]Task, 0, len(b.Columns[idx].TaskIDs))
	for _, id := range b.Columns[idx].TaskIDs {
		if task, ok := b.Tasks[id]; ok {
			out = append(out, task)
		}
	}
	return out
}

// Validate checks the board invariants and returns the first violation found.
func (b Board) Validate() error {
	seenIDs := map[string]string{}
	claim := func(id, kind string) error {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%s id: %w", kind, ErrInvalidID)
		}
		if prev, ok := seenIDs[id]; ok {
			return fmt.Errorf("%s %q already used by a %s: %w", kind, id, prev, ErrDuplicateID)
		}
		seenIDs[id] = kind
		return nil
	}
	for key, task := range b.Tasks {
		if key != task.ID {
			return fmt.Errorf("task registry key %q holds task %q: %w", key, task.ID, ErrInvalidID)
		}
		if err := claim(task.ID, "task"); err != nil {
			return err
		}
	}
	owner := map[string]string{}
	for _, column := range b.Columns {
		if err := claim(column.ID, "column"); err != nil {
			return err
		}
		for _, taskID := range column.TaskIDs {
			if _, ok := b.Tasks[taskID]; !ok {
				return fmt.Errorf("column %q task %q: %w", column.ID, taskID, ErrDanglingTaskRef)
			}
			if prev, ok := owner[taskID]; ok {
				return fmt.Errorf("task %q in columns %q and %q: %w", taskID, prev, column.ID, ErrDuplicateTaskRef)
			}
			owner[taskID] = column.ID
		}
	}
	return nil
}

// Equal reports whether two boards have the same columns, order and task registry.
func (b Board) Equal(other Board) bool {
	if len(b.Columns) != len(other.Columns) || len(b.Tasks) != len(other.Tasks) {
		return false
	}
	for i := range b.Columns {
		left, right := b.Columns[i], other.Columns[i]
		if left.ID != right.ID || left.Title != right.Title || !slices.Equal(left.TaskIDs, right.TaskIDs) {
			return false
		}
	}
	for id, task := range b.Tasks {
		otherTask, ok := other.Tasks[id]
		if !ok {
			return false
		}
		if task.ID != otherTask.ID || task.Title != otherTask.Title || task.Description != otherTask.Description ||
			!task.CreatedAt.Equal(otherTask.CreatedAt) || !task.UpdatedAt.Equal(otherTask.UpdatedAt) {
			return false
		}
	}
	return true
}
