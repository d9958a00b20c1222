// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidEventRequest reports malformed or unknown board events.
var ErrInvalidEventRequest = errors.New("invalid event request")

// ErrServiceUnavailable reports a missing board service.
var ErrServiceUnavailable = errors.New("board service unavailable")

// BoardColumn is one column in display order.
type BoardColumn struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	TaskIDs []string `json:"taskIds"`
}

// BoardTask is one registry entry.
type BoardTask struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BoardView is the transport shape of the whole board. ActiveTaskID is null when no drag
// is in flight.
type BoardView struct {
	Columns      []BoardColumn        `json:"columns"`
	Tasks        map[string]BoardTask `json:"tasks"`
	ActiveTaskID *string              `json:"activeTaskId"`
	Revision     uint64               `json:"revision"`
}

// EventRequest is one inbound board event. Which fields matter depends on Type; the rest are
// ignored. Title and Description are pointers so updateTask can tell "unset" from "empty".
type EventRequest struct {
	Type        string  `json:"type"`
	ActiveID    string  `json:"activeId,omitempty"`
	OverID      *string `json:"overId,omitempty"`
	ColumnID    string  `json:"columnId,omitempty"`
	TaskID      string  `json:"taskId,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// EventResult reports the board after one event and whether the event changed anything.
type EventResult struct {
	Type    string    `json:"type"`
	Changed bool      `json:"changed"`
	Board   BoardView `json:"board"`
}

// ActivityItem is one activity-ledger entry.
type ActivityItem struct {
	ID         int64             `json:"id"`
	ItemType   string            `json:"itemType"`
	ItemID     string            `json:"itemId"`
	Operation  string            `json:"operation"`
	Metadata   map[string]string `json:"metadata"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// BoardService is the transport-facing board contract shared by HTTP and MCP.
type BoardService interface {
	Board(context.Context) (BoardView, error)
	Dispatch(context.Context, EventRequest) (EventResult, error)
	ListActivity(context.Context, int) ([]ActivityItem, error)
}
