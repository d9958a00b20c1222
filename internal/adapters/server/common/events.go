package common

import (
	"fmt"
	"strings"

	"github.com/evanschultz/taskboard/internal/domain"
	"github.com/evanschultz/taskboard/internal/reorder"
)

// SupportedEventTypes returns every event type accepted by transport adapters.
func SupportedEventTypes() []string {
	types := reorder.EventTypes()
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

// ToEvent converts one transport request into a reducer event. Unknown ids are not errors:
// the reducer ignores events that reference nothing.
func ToEvent(req EventRequest) (reorder.Event, error) {
	eventType := reorder.EventType(strings.TrimSpace(req.Type))
	overID := ""
	if req.OverID != nil {
		overID = strings.TrimSpace(*req.OverID)
	}
	activeID := strings.TrimSpace(req.ActiveID)
	switch eventType {
	case reorder.EventDragStart:
		return reorder.DragStart{ActiveID: activeID}, nil
	case reorder.EventDragOver:
		return reorder.DragOver{ActiveID: activeID, OverID: overID}, nil
	case reorder.EventDragEnd:
		return reorder.DragEnd{ActiveID: activeID, OverID: overID}, nil
	case reorder.EventAddColumn:
		return reorder.AddColumn{ColumnID: strings.TrimSpace(req.ColumnID), Title: derefString(req.Title)}, nil
	case reorder.EventAddTask:
		return reorder.AddTask{
			ColumnID:    strings.TrimSpace(req.ColumnID),
			TaskID:      strings.TrimSpace(req.TaskID),
			Title:       derefString(req.Title),
			Description: derefString(req.Description),
		}, nil
	case reorder.EventUpdateTask:
		return reorder.UpdateTask{
			TaskID: strings.TrimSpace(req.TaskID),
			Patch: domain.TaskPatch{
				Title:       req.Title,
				Description: req.Description,
			},
		}, nil
	case reorder.EventDeleteTask:
		return reorder.DeleteTask{TaskID: strings.TrimSpace(req.TaskID)}, nil
	case reorder.EventUpdateColumn:
		return reorder.UpdateColumn{ColumnID: strings.TrimSpace(req.ColumnID), Title: derefString(req.Title)}, nil
	case reorder.EventDeleteColumn:
		return reorder.DeleteColumn{ColumnID: strings.TrimSpace(req.ColumnID)}, nil
	case "":
		return nil, fmt.Errorf("event type is required: %w", ErrInvalidEventRequest)
	default:
		return nil, fmt.Errorf("unsupported event type %q (want one of %s): %w",
			eventType, strings.Join(SupportedEventTypes(), ", "), ErrInvalidEventRequest)
	}
}

// NewBoardView converts reducer state into its transport shape.
func NewBoardView(state reorder.State) BoardView {
	view := BoardView{
		Columns:  make([]BoardColumn, 0, len(state.Board.Columns)),
		Tasks:    make(map[string]BoardTask, len(state.Board.Tasks)),
		Revision: state.Revision,
	}
	for _, column := range state.Board.Columns {
		view.Columns = append(view.Columns, BoardColumn{
			ID:      column.ID,
			Title:   column.Title,
			TaskIDs: append([]string{}, column.TaskIDs...),
		})
	}
	for id, task := range state.Board.Tasks {
		view.Tasks[id] = BoardTask{
			ID:          task.ID,
			Title:       task.Title,
			Description: task.Description,
			CreatedAt:   task.CreatedAt,
			UpdatedAt:   task.UpdatedAt,
		}
	}
	if state.Dragging() {
		active := state.ActiveTaskID
		view.ActiveTaskID = &active
	}
	return view
}

// NewActivityItems converts ledger entries into their transport shape.
func NewActivityItems(events []domain.ChangeEvent) []ActivityItem {
	out := make([]ActivityItem, 0, len(events))
	for _, ev := range events {
		metadata := ev.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		out = append(out, ActivityItem{
			ID:         ev.ID,
			ItemType:   string(ev.ItemType),
			ItemID:     ev.ItemID,
			Operation:  string(ev.Operation),
			Metadata:   metadata,
			OccurredAt: ev.OccurredAt,
		})
	}
	return out
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
