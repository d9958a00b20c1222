package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/evanschultz/taskboard/internal/domain"
	"github.com/evanschultz/taskboard/internal/reorder"
	"github.com/google/uuid"
)

// DefaultActivityLimit bounds ListActivity when the caller passes no limit.
const DefaultActivityLimit = 50

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	DefaultColumnTitle string
	DefaultTaskTitle   string
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service owns the board state and serializes every operation on it.
type Service struct {
	mu     sync.Mutex
	state  reorder.State
	ledger ActivityLedger
	idGen  IDGenerator
	clock  Clock
	cfg    ServiceConfig
}

// NewService validates seed and constructs a service around it.
func NewService(seed domain.Board, ledger ActivityLedger, idGen IDGenerator, clock Clock, cfg ServiceConfig) (*Service, error) {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	cfg.DefaultColumnTitle = strings.TrimSpace(cfg.DefaultColumnTitle)
	if cfg.DefaultColumnTitle == "" {
		cfg.DefaultColumnTitle = reorder.DefaultColumnTitle
	}
	cfg.DefaultTaskTitle = strings.TrimSpace(cfg.DefaultTaskTitle)
	if cfg.DefaultTaskTitle == "" {
		cfg.DefaultTaskTitle = reorder.DefaultTaskTitle
	}
	if seed.Tasks == nil {
		seed.Tasks = map[string]domain.Task{}
	}
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	return &Service{
		state:  reorder.NewState(seed),
		ledger: ledger,
		idGen:  idGen,
		clock:  clock,
		cfg:    cfg,
	}, nil
}

// Snapshot returns a deep copy of the current state.
func (s *Service) Snapshot() reorder.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch applies one event and returns the resulting snapshot plus whether it changed the
// state. Add events without an ID get a generated one and events without a timestamp are
// stamped with the service clock. A ledger failure is returned after the change is applied.
func (s *Service) Dispatch(ctx context.Context, ev reorder.Event) (reorder.State, bool, error) {
	ev, err := s.prepare(ev)
	if err != nil {
		return s.Snapshot(), false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	next, changed := reorder.Reduce(prev, ev)
	s.state = next
	if !changed {
		return next.Clone(), false, nil
	}
	if err := s.record(ctx, prev, next, ev); err != nil {
		return next.Clone(), true, err
	}
	return next.Clone(), true, nil
}

// DragStart marks a task as being dragged.
func (s *Service) DragStart(ctx context.Context, activeID string) (reorder.State, error) {
	state, _, err := s.Dispatch(ctx, reorder.DragStart{ActiveID: activeID})
	return state, err
}

// DragOver moves the dragged task when it hovers another column.
func (s *Service) DragOver(ctx context.Context, activeID, overID string) (reorder.State, error) {
	state, _, err := s.Dispatch(ctx, reorder.DragOver{ActiveID: activeID, OverID: overID})
	return state, err
}

// DragEnd finishes a gesture. An empty overID means the drop landed outside every target.
func (s *Service) DragEnd(ctx context.Context, activeID, overID string) (reorder.State, error) {
	state, _, err := s.Dispatch(ctx, reorder.DragEnd{ActiveID: activeID, OverID: overID})
	return state, err
}

// AddColumn appends a column with a generated ID.
func (s *Service) AddColumn(ctx context.Context, title string) (reorder.State, error) {
	state, _, err := s.Dispatch(ctx, reorder.AddColumn{Title: title})
	return state, err
}

// AddTask appends a task with a generated ID to columnID.
func (s *Service) AddTask(ctx context.Context, columnID, title, description string) (reorder.State, error) {
	state, _, err := s.Dispatch(ctx, reorder.AddTask{ColumnID: columnID, Title: title, Description: description})
	return state, err
}

// UpdateTask merges patch into a task.
func (s *Service) UpdateTask(ctx context.Context, taskID string, patch domain.TaskPatch) (reorder.State, error) {
	state, _, err := s.Dispatch(ctx, reorder.UpdateTask{TaskID: taskID, Patch: patch})
	return state, err
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, taskID string) (reorder.State, error) {
	state, _, err := s.Dispatch(ctx, reorder.DeleteTask{TaskID: taskID})
	return state, err
}

// UpdateColumn renames a column.
func (s *Service) UpdateColumn(ctx context.Context, columnID, title string) (reorder.State, error) {
	state, _, err := s.Dispatch(ctx, reorder.UpdateColumn{ColumnID: columnID, Title: title})
	return state, err
}

// DeleteColumn removes a column and its tasks.
func (s *Service) DeleteColumn(ctx context.Context, columnID string) (reorder.State, error) {
	state, _, err := s.Dispatch(ctx, reorder.DeleteColumn{ColumnID: columnID})
	return state, err
}

// ListActivity returns recorded changes newest first. Without a ledger it returns nothing.
func (s *Service) ListActivity(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if s.ledger == nil {
		return []domain.ChangeEvent{}, nil
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	events, err := s.ledger.ListChangeEvents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return events, nil
}

// ItemActivity returns the recorded changes of one task or column newest first.
func (s *Service) ItemActivity(ctx context.Context, itemType domain.ItemType, itemID string, limit int) ([]domain.ChangeEvent, error) {
	if s.ledger == nil {
		return []domain.ChangeEvent{}, nil
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	events, err := s.ledger.ListItemChangeEvents(ctx, itemType, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s %q activity: %w", itemType, itemID, err)
	}
	return events, nil
}

// prepare fills generated IDs, default titles and timestamps.
func (s *Service) prepare(ev reorder.Event) (reorder.Event, error) {
	switch e := ev.(type) {
	case reorder.AddColumn:
		if strings.TrimSpace(e.ColumnID) == "" {
			e.ColumnID = s.idGen()
		}
		if strings.TrimSpace(e.Title) == "" {
			e.Title = s.cfg.DefaultColumnTitle
		}
		return e, nil
	case reorder.AddTask:
		if strings.TrimSpace(e.TaskID) == "" {
			e.TaskID = s.idGen()
		}
		if strings.TrimSpace(e.Title) == "" {
			e.Title = s.cfg.DefaultTaskTitle
		}
		if e.At.IsZero() {
			e.At = s.clock()
		}
		return e, nil
	case reorder.UpdateTask:
		if e.At.IsZero() {
			e.At = s.clock()
		}
		return e, nil
	case reorder.DragStart, reorder.DragOver, reorder.DragEnd,
		reorder.DeleteTask, reorder.UpdateColumn, reorder.DeleteColumn:
		return ev, nil
	case nil:
		return nil, fmt.Errorf("dispatch: %w", ErrUnsupportedEvent)
	default:
		return nil, fmt.Errorf("dispatch %q: %w", ev.Type(), ErrUnsupportedEvent)
	}
}

// record appends the ledger entry describing a change, if any.
func (s *Service) record(ctx context.Context, prev, next reorder.State, ev reorder.Event) error {
	if s.ledger == nil {
		return nil
	}
	change, ok := describeChange(prev, next, ev)
	if !ok {
		return nil
	}
	change.OccurredAt = s.clock().UTC()
	if err := s.ledger.AppendChangeEvent(ctx, change); err != nil {
		return fmt.Errorf("record %s %s: %w", change.Operation, change.ItemType, err)
	}
	return nil
}

// describeChange maps a board transition onto a ledger entry. Drag marker changes that move
// nothing are not recorded.
func describeChange(prev, next reorder.State, ev reorder.Event) (domain.ChangeEvent, bool) {
	switch e := ev.(type) {
	case reorder.DragOver:
		return moveChange(prev, next, e.ActiveID)
	case reorder.DragEnd:
		if next.Board.Equal(prev.Board) {
			return domain.ChangeEvent{}, false
		}
		return moveChange(prev, next, e.ActiveID)
	case reorder.AddColumn:
		return domain.ChangeEvent{
			ItemType:  domain.ItemTypeColumn,
			ItemID:    e.ColumnID,
			Operation: domain.ChangeOperationCreate,
			Metadata:  map[string]string{"title": columnTitle(next.Board, e.ColumnID)},
		}, true
	case reorder.AddTask:
		return domain.ChangeEvent{
			ItemType:  domain.ItemTypeTask,
			ItemID:    e.TaskID,
			Operation: domain.ChangeOperationCreate,
			Metadata: map[string]string{
				"column_id": e.ColumnID,
				"title":     next.Board.Tasks[e.TaskID].Title,
			},
		}, true
	case reorder.UpdateTask:
		metadata := map[string]string{"title": next.Board.Tasks[e.TaskID].Title}
		if e.Patch.Description != nil {
			metadata["description_changed"] = strconv.FormatBool(prev.Board.Tasks[e.TaskID].Description != next.Board.Tasks[e.TaskID].Description)
		}
		return domain.ChangeEvent{
			ItemType:  domain.ItemTypeTask,
			ItemID:    e.TaskID,
			Operation: domain.ChangeOperationUpdate,
			Metadata:  metadata,
		}, true
	case reorder.DeleteTask:
		metadata := map[string]string{"title": prev.Board.Tasks[e.TaskID].Title}
		if idx := prev.Board.ColumnIndexOfTask(e.TaskID); idx >= 0 {
			metadata["column_id"] = prev.Board.Columns[idx].ID
		}
		return domain.ChangeEvent{
			ItemType:  domain.ItemTypeTask,
			ItemID:    e.TaskID,
			Operation: domain.ChangeOperationDelete,
			Metadata:  metadata,
		}, true
	case reorder.UpdateColumn:
		return domain.ChangeEvent{
			ItemType:  domain.ItemTypeColumn,
			ItemID:    e.ColumnID,
			Operation: domain.ChangeOperationUpdate,
			Metadata: map[string]string{
				"from_title": columnTitle(prev.Board, e.ColumnID),
				"title":      columnTitle(next.Board, e.ColumnID),
			},
		}, true
	case reorder.DeleteColumn:
		removed := 0
		if idx := prev.Board.ColumnIndex(e.ColumnID); idx >= 0 {
			removed = len(prev.Board.Columns[idx].TaskIDs)
		}
		return domain.ChangeEvent{
			ItemType:  domain.ItemTypeColumn,
			ItemID:    e.ColumnID,
			Operation: domain.ChangeOperationDelete,
			Metadata: map[string]string{
				"title":         columnTitle(prev.Board, e.ColumnID),
				"removed_tasks": strconv.Itoa(removed),
			},
		}, true
	default:
		return domain.ChangeEvent{}, false
	}
}

func moveChange(prev, next reorder.State, taskID string) (domain.ChangeEvent, bool) {
	from := prev.Board.ColumnIndexOfTask(taskID)
	to := next.Board.ColumnIndexOfTask(taskID)
	if from < 0 || to < 0 {
		return domain.ChangeEvent{}, false
	}
	fromColumn, toColumn := prev.Board.Columns[from], next.Board.Columns[to]
	return domain.ChangeEvent{
		ItemType:  domain.ItemTypeTask,
		ItemID:    taskID,
		Operation: domain.ChangeOperationMove,
		Metadata: map[string]string{
			"from_column_id": fromColumn.ID,
			"from_position":  strconv.Itoa(fromColumn.IndexOf(taskID)),
			"to_column_id":   toColumn.ID,
			"to_position":    strconv.Itoa(toColumn.IndexOf(taskID)),
		},
	}, true
}

func columnTitle(b domain.Board, columnID string) string {
	if idx := b.ColumnIndex(columnID); idx >= 0 {
		return b.Columns[idx].Title
	}
	return ""
}
