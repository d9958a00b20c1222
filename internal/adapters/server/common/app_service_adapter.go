package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/evanschultz/taskboard/internal/app"
)

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// Board returns the current board.
func (a *AppServiceAdapter) Board(_ context.Context) (BoardView, error) {
	if a == nil || a.service == nil {
		return BoardView{}, fmt.Errorf("app service adapter is not configured: %w", ErrServiceUnavailable)
	}
	return NewBoardView(a.service.Snapshot()), nil
}

// Dispatch applies one event through the service.
func (a *AppServiceAdapter) Dispatch(ctx context.Context, req EventRequest) (EventResult, error) {
	if a == nil || a.service == nil {
		return EventResult{}, fmt.Errorf("app service adapter is not configured: %w", ErrServiceUnavailable)
	}
	ev, err := ToEvent(req)
	if err != nil {
		return EventResult{}, err
	}
	state, changed, err := a.service.Dispatch(ctx, ev)
	if err != nil && errors.Is(err, app.ErrUnsupportedEvent) {
		return EventResult{}, errors.Join(ErrInvalidEventRequest, err)
	}
	result := EventResult{
		Type:    string(ev.Type()),
		Changed: changed,
		Board:   NewBoardView(state),
	}
	if err != nil {
		return result, fmt.Errorf("dispatch %s: %w", ev.Type(), err)
	}
	return result, nil
}

// ListActivity returns recent ledger entries newest first.
func (a *AppServiceAdapter) ListActivity(ctx context.Context, limit int) ([]ActivityItem, error) {
	if a == nil || a.service == nil {
		return nil, fmt.Errorf("app service adapter is not configured: %w", ErrServiceUnavailable)
	}
	events, err := a.service.ListActivity(ctx, limit)
	if err != nil {
		return nil, err
	}
	return NewActivityItems(events), nil
}
