package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/grovecli/grove/internal/types"
)

// querier is satisfied by both *sql.DB and *sql.Tx so scan helpers work
// inside and outside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// appendEvent inserts an audit event inside the caller's transaction.
// Mutations call this so the event and the change commit together.
func (s *Store) appendEvent(ctx context.Context, q querier, itemType types.ItemType, itemID int64, eventType types.EventType, content, sessionID string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO events (item_type, item_id, event_type, content, session_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(itemType), itemID, string(eventType), content, sessionID, s.now())
	return wrapDBError("append event", err)
}

// AppendEvent records a standalone audit event (used for manual log
// entries and check-ins not tied to another mutation).
func (s *Store) AppendEvent(ctx context.Context, e *types.ActivityEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		// Standalone events must reference a live item; the summary row
		// written by tidy scans uses item_id 0 and skips the check.
		if e.ItemID != 0 {
			if err := s.checkItemExists(ctx, tx, e.ItemType, e.ItemID); err != nil {
				return err
			}
		}
		created := s.now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO events (item_type, item_id, event_type, content, session_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			string(e.ItemType), e.ItemID, string(e.EventType), e.Content, e.SessionID, created)
		if err != nil {
			return wrapDBError("append event", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return wrapDBError("append event", err)
		}
		e.ID = id
		e.CreatedAt = created
		return nil
	})
}

// checkItemExists verifies the polymorphic (item_type, item_id) pair
// points at a live row.
func (s *Store) checkItemExists(ctx context.Context, q querier, itemType types.ItemType, itemID int64) error {
	var table string
	switch itemType {
	case types.ItemGrove:
		table = "groves"
	case types.ItemTrunk:
		table = "trunks"
	case types.ItemBranch:
		table = "branches"
	case types.ItemBud:
		table = "buds"
	default:
		return &types.ValidationError{Field: "item_type", Reason: fmt.Sprintf("invalid item type: %s", itemType)}
	}
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", itemID).Scan(&one)
	return wrapDBErrorf(err, "find %s %d", itemType, itemID)
}

// GetEvents returns audit events matching the filter, newest first.
func (s *Store) GetEvents(ctx context.Context, filter types.EventFilter) ([]*types.ActivityEvent, error) {
	var where []string
	var args []interface{}
	if filter.ItemType != "" {
		where = append(where, "item_type = ?")
		args = append(args, string(filter.ItemType))
		if filter.ItemID != 0 {
			where = append(where, "item_id = ?")
			args = append(args, filter.ItemID)
		}
	}
	if filter.EventType != "" {
		where = append(where, "event_type = ?")
		args = append(args, string(filter.EventType))
	}
	if filter.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	if filter.Until != nil {
		where = append(where, "created_at <= ?")
		args = append(args, filter.Until.UTC())
	}

	query := "SELECT id, item_type, item_id, event_type, content, session_id, created_at FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("list events", err)
	}
	defer rows.Close()

	var events []*types.ActivityEvent
	for rows.Next() {
		e := &types.ActivityEvent{}
		if err := rows.Scan(&e.ID, &e.ItemType, &e.ItemID, &e.EventType, &e.Content, &e.SessionID, &e.CreatedAt); err != nil {
			return nil, wrapDBError("scan event", err)
		}
		events = append(events, e)
	}
	return events, wrapDBError("list events", rows.Err())
}
