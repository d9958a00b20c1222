package domain

import "time"

// ChangeOperation describes a recorded board operation.
type ChangeOperation string

// ChangeOperation values used by the activity ledger.
const (
	ChangeOperationCreate ChangeOperation = "create"
	ChangeOperationUpdate ChangeOperation = "update"
	ChangeOperationMove   ChangeOperation = "move"
	ChangeOperationDelete ChangeOperation = "delete"
)

// ItemType names the kind of board item a change event refers to.
type ItemType string

// ItemType values.
const (
	ItemTypeTask   ItemType = "task"
	ItemTypeColumn ItemType = "column"
)

// ChangeEvent represents a single activity-ledger entry.
type ChangeEvent struct {
	ID         int64
	ItemType   ItemType
	ItemID     string
	Operation  ChangeOperation
	Metadata   map[string]string
	OccurredAt time.Time
}
