package reorder

import (
	"time"

	"github.com/evanschultz/taskboard/internal/domain"
)

// EventType names one inbound board event.
type EventType string

// EventType values accepted by Reduce.
const (
	EventDragStart    EventType = "dragStart"
	EventDragOver     EventType = "dragOver"
	EventDragEnd      EventType = "dragEnd"
	EventAddColumn    EventType = "addColumn"
	EventAddTask      EventType = "addTask"
	EventUpdateTask   EventType = "updateTask"
	EventDeleteTask   EventType = "deleteTask"
	EventUpdateColumn EventType = "updateColumn"
	EventDeleteColumn EventType = "deleteColumn"
)

var eventTypes = []EventType{
	EventDragStart,
	EventDragOver,
	EventDragEnd,
	EventAddColumn,
	EventAddTask,
	EventUpdateTask,
	EventDeleteTask,
	EventUpdateColumn,
	EventDeleteColumn,
}

// EventTypes returns every event type in canonical order.
func EventTypes() []EventType {
	return append([]EventType(nil), eventTypes...)
}

// Event is one input to Reduce.
type Event interface {
	Type() EventType
}

// DragStart marks ActiveID as the task being dragged.
type DragStart struct {
	ActiveID string
}

// DragOver fires whenever the item under the pointer changes during a drag. OverID is a
// column ID or a task ID.
type DragOver struct {
	ActiveID string
	OverID   string
}

// DragEnd finishes a gesture. An empty OverID means the pointer was released outside every
// drop target.
type DragEnd struct {
	ActiveID string
	OverID   string
}

// AddColumn appends an empty column. ColumnID and Title are chosen by the caller.
type AddColumn struct {
	ColumnID string
	Title    string
}

// AddTask creates a task and appends it to ColumnID.
type AddTask struct {
	ColumnID    string
	TaskID      string
	Title       string
	Description string
	At          time.Time
}

// UpdateTask merges Patch into an existing task, stamping At as its update time.
type UpdateTask struct {
	TaskID string
	Patch  domain.TaskPatch
	At     time.Time
}

// DeleteTask removes a task and its column reference.
type DeleteTask struct {
	TaskID string
}

// UpdateColumn renames a column.
type UpdateColumn struct {
	ColumnID string
	Title    string
}

// DeleteColumn removes a column and every task it references.
type DeleteColumn struct {
	ColumnID string
}

func (DragStart) Type() EventType    { return EventDragStart }
func (DragOver) Type() EventType     { return EventDragOver }
func (DragEnd) Type() EventType      { return EventDragEnd }
func (AddColumn) Type() EventType    { return EventAddColumn }
func (AddTask) Type() EventType      { return EventAddTask }
func (UpdateTask) Type() EventType   { return EventUpdateTask }
func (DeleteTask) Type() EventType   { return EventDeleteTask }
func (UpdateColumn) Type() EventType { return EventUpdateColumn }
func (DeleteColumn) Type() EventType { return EventDeleteColumn }
