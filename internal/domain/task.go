package domain

import (
	"strings"
	"time"
)

// Task is one card on the board. Columns reference tasks by ID; the task itself does not
// know which column holds it.
type Task struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPatch carries a partial task update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil
}

// NewTask constructs a task stamped with now for both timestamps.
func NewTask(id, title, description string, now time.Time) (Task, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	if id == "" {
		return Task{}, ErrInvalidID
	}
	if title == "" {
		return Task{}, ErrInvalidTitle
	}
	return Task{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Patched returns a copy of t with the patch merged and UpdatedAt refreshed.
// A title that trims to empty is ignored so a task never loses its title.
func (t Task) Patched(p TaskPatch, now time.Time) Task {
	if p.Title != nil {
		if title := strings.TrimSpace(*p.Title); title != "" {
			t.Title = title
		}
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	ts := now.UTC()
	if ts.Before(t.CreatedAt) {
		ts = t.CreatedAt
	}
	t.UpdatedAt = ts
	return t
}
