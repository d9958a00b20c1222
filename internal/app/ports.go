package app

import (
	"context"

	"github.com/evanschultz/taskboard/internal/domain"
)

// ActivityLedger records board changes. A nil ledger disables activity tracking.
type ActivityLedger interface {
	AppendChangeEvent(context.Context, domain.ChangeEvent) error
	ListChangeEvents(context.Context, int) ([]domain.ChangeEvent, error)
	ListItemChangeEvents(context.Context, domain.ItemType, string, int) ([]domain.ChangeEvent, error)
}
