package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/taskboard/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// defaultListLimit caps ListChangeEvents when the caller passes no limit.
const defaultListLimit = 50

// Repository stores the board activity ledger.
type Repository struct {
	db *sql.DB
}

// OpenInMemory opens a private in-memory database and migrates it. Each call gets its own
// database; the pool is pinned to one connection so every query sees the same memory store.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS change_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			item_type TEXT NOT NULL,
			item_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			metadata_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_change_events_item ON change_events(item_type, item_id, id);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// AppendChangeEvent inserts a change-event ledger record.
func (r *Repository) AppendChangeEvent(ctx context.Context, event domain.ChangeEvent) error {
	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode change event metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO change_events(item_type, item_id, operation, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		string(normalizeItemType(string(event.ItemType))),
		strings.TrimSpace(event.ItemID),
		string(normalizeChangeOperation(string(event.Operation))),
		string(metadataJSON),
		ts(normalizeEventTS(event.OccurredAt)),
	)
	if err != nil {
		return fmt.Errorf("insert change event: %w", err)
	}
	return nil
}

// ListChangeEvents lists ledger records newest first.
func (r *Repository) ListChangeEvents(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, item_type, item_id, operation, metadata_json, created_at
		FROM change_events
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list change events: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ChangeEvent, 0)
	for rows.Next() {
		event, err := scanChangeEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// ListItemChangeEvents lists the ledger records of one task or column newest first.
func (r *Repository) ListItemChangeEvents(ctx context.Context, itemType domain.ItemType, itemID string, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, item_type, item_id, operation, metadata_json, created_at
		FROM change_events
		WHERE item_type = ? AND item_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, string(itemType), strings.TrimSpace(itemID), limit)
	if err != nil {
		return nil, fmt.Errorf("list item change events: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ChangeEvent, 0)
	for rows.Next() {
		event, err := scanChangeEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanChangeEvent decodes one change_events row.
func scanChangeEvent(s scanner) (domain.ChangeEvent, error) {
	var (
		event       domain.ChangeEvent
		itemType    string
		opRaw       string
		metadataRaw string
		createdRaw  string
	)
	if err := s.Scan(&event.ID, &itemType, &event.ItemID, &opRaw, &metadataRaw, &createdRaw); err != nil {
		return domain.ChangeEvent{}, err
	}
	event.ItemType = normalizeItemType(itemType)
	event.Operation = normalizeChangeOperation(opRaw)
	event.OccurredAt = parseTS(createdRaw)
	if strings.TrimSpace(metadataRaw) == "" {
		metadataRaw = "{}"
	}
	if err := json.Unmarshal([]byte(metadataRaw), &event.Metadata); err != nil {
		return domain.ChangeEvent{}, fmt.Errorf("decode change_events.metadata_json: %w", err)
	}
	if event.Metadata == nil {
		event.Metadata = map[string]string{}
	}
	return event, nil
}

// normalizeChangeOperation canonicalizes persisted operation values.
func normalizeChangeOperation(raw string) domain.ChangeOperation {
	raw = strings.TrimSpace(strings.ToLower(raw))
	switch raw {
	case string(domain.ChangeOperationCreate):
		return domain.ChangeOperationCreate
	case string(domain.ChangeOperationMove):
		return domain.ChangeOperationMove
	case string(domain.ChangeOperationDelete):
		return domain.ChangeOperationDelete
	default:
		return domain.ChangeOperationUpdate
	}
}

// normalizeItemType canonicalizes persisted item types.
func normalizeItemType(raw string) domain.ItemType {
	if strings.TrimSpace(strings.ToLower(raw)) == string(domain.ItemTypeColumn) {
		return domain.ItemTypeColumn
	}
	return domain.ItemTypeTask
}

// normalizeEventTS ensures event timestamps are always populated and UTC-normalized.
func normalizeEventTS(in time.Time) time.Time {
	if in.IsZero() {
		return time.Now().UTC()
	}
	return in.UTC()
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
