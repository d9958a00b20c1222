package domain

import (
	"slices"
	"strings"
)

// Column is a named, ordered bucket of task references.
type Column struct {
	ID      string
	Title   string
	TaskIDs []string
}

// NewColumn constructs an empty column.
func NewColumn(id, title string) (Column, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	if id == "" {
		return Column{}, ErrInvalidID
	}
	if title == "" {
		return Column{}, ErrInvalidTitle
	}
	return Column{ID: id, Title: title, TaskIDs: []string{}}, nil
}

// IndexOf returns the position of taskID in the column, or -1.
func (c Column) IndexOf(taskID string) int {
	return slices.Index(c.TaskIDs, taskID)
}

// Contains reports whether the column references taskID.
func (c Column) Contains(taskID string) bool {
	return c.IndexOf(taskID) >= 0
}

// Clone returns a copy that shares no backing array with c.
func (c Column) Clone() Column {
	c.TaskIDs = slices.Clone(c.TaskIDs)
	if c.TaskIDs == nil {
		c.TaskIDs = []string{}
	}
	return c
}
