package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/grovecli/grove/internal/storage"
	"github.com/grovecli/grove/internal/types"
)

const trunkColumns = "id, grove_id, parent_id, title, description, status, priority, target_date, labels, created_at, updated_at"

func scanTrunk(row interface{ Scan(...interface{}) error }) (*types.Trunk, error) {
	t := &types.Trunk{}
	var groveID, parentID sql.NullInt64
	var targetDate sql.NullTime
	var labels string
	err := row.Scan(&t.ID, &groveID, &parentID, &t.Title, &t.Description,
		&t.Status, &t.Priority, &targetDate, &labels, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.GroveID = int64Ptr(groveID)
	t.ParentID = int64Ptr(parentID)
	t.TargetDate = timePtr(targetDate)
	t.Labels = unmarshalLabels(labels)
	return t, nil
}

// CreateTrunk inserts a trunk, verifying its grove and parent exist and
// that the parent chain stays acyclic.
func (s *Store) CreateTrunk(ctx context.Context, t *types.Trunk) error {
	if t.Status == "" {
		t.Status = types.ContainerActive
	}
	if t.Priority == "" {
		t.Priority = types.PriorityMedium
	}
	if err := t.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if t.GroveID != nil {
			if err := s.checkItemExists(ctx, tx, types.ItemGrove, *t.GroveID); err != nil {
				return err
			}
		}
		if t.ParentID != nil {
			if err := s.checkItemExists(ctx, tx, types.ItemTrunk, *t.ParentID); err != nil {
				return err
			}
		}
		now := s.now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO trunks (grove_id, parent_id, title, description, status, priority, target_date, labels, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nullInt64(t.GroveID), nullInt64(t.ParentID), t.Title, t.Description,
			string(t.Status), string(t.Priority), nullTime(t.TargetDate),
			marshalLabels(t.Labels), now, now)
		if err != nil {
			return wrapDBErrorf(err, "create trunk %q", t.Title)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return wrapDBError("create trunk", err)
		}
		t.ID = id
		t.CreatedAt = now
		t.UpdatedAt = now
		return s.appendEvent(ctx, tx, types.ItemTrunk, id, types.EventCreated, t.Title, "")
	})
}

// GetTrunk retrieves a trunk by ID.
func (s *Store) GetTrunk(ctx context.Context, id int64) (*types.Trunk, error) {
	t, err := scanTrunk(s.db.QueryRowContext(ctx,
		"SELECT "+trunkColumns+" FROM trunks WHERE id = ?", id))
	if err != nil {
		return nil, wrapDBErrorf(err, "get trunk %d", id)
	}
	return t, nil
}

// ListTrunks returns trunks, optionally scoped to one grove. Completed
// and archived trunks are excluded unless includeDone is set.
func (s *Store) ListTrunks(ctx context.Context, groveID *int64, includeDone bool) ([]*types.Trunk, error) {
	query := "SELECT " + trunkColumns + " FROM trunks"
	var where []string
	var args []interface{}
	if groveID != nil {
		where = append(where, "grove_id = ?")
		args = append(args, *groveID)
	}
	if !includeDone {
		where = append(where, "status IN ('active','paused')")
	}
	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}
	query += " ORDER BY priority = 'urgent' DESC, priority = 'high' DESC, created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("list trunks", err)
	}
	defer rows.Close()

	var trunks []*types.Trunk
	for rows.Next() {
		t, err := scanTrunk(rows)
		if err != nil {
			return nil, wrapDBError("scan trunk", err)
		}
		trunks = append(trunks, t)
	}
	return trunks, wrapDBError("list trunks", rows.Err())
}

// UpdateTrunk saves mutable trunk fields. Re-parenting goes through the
// same cycle check as GraftTrunk.
func (s *Store) UpdateTrunk(ctx context.Context, t *types.Trunk) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if t.ParentID != nil {
			if err := checkContainmentCycle(ctx, tx, "trunks", t.ID, *t.ParentID); err != nil {
				return err
			}
		}
		now := s.now()
		res, err := tx.ExecContext(ctx, `
			UPDATE trunks SET grove_id = ?, parent_id = ?, title = ?, description = ?,
				status = ?, priority = ?, target_date = ?, labels = ?, updated_at = ?
			WHERE id = ?`,
			nullInt64(t.GroveID), nullInt64(t.ParentID), t.Title, t.Description,
			string(t.Status), string(t.Priority), nullTime(t.TargetDate),
			marshalLabels(t.Labels), now, t.ID)
		if err != nil {
			return wrapDBErrorf(err, "update trunk %d", t.ID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("update trunk", err)
		}
		if n == 0 {
			return wrapDBErrorf(sql.ErrNoRows, "update trunk %d", t.ID)
		}
		t.UpdatedAt = now
		return s.appendEvent(ctx, tx, types.ItemTrunk, t.ID, types.EventLog, "updated", "")
	})
}

// TransitionTrunk changes container status. Any container state is
// reachable from any other; same-state transitions are silent no-ops.
func (s *Store) TransitionTrunk(ctx context.Context, id int64, status types.ContainerStatus) (*types.Trunk, error) {
	if !status.IsValid() {
		return nil, &types.ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status: %s", status)}
	}
	var out *types.Trunk
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		t, err := scanTrunk(tx.QueryRowContext(ctx,
			"SELECT "+trunkColumns+" FROM trunks WHERE id = ?", id))
		if err != nil {
			return wrapDBErrorf(err, "get trunk %d", id)
		}
		if t.Status == status {
			out = t
			return nil
		}
		now := s.now()
		if _, err := tx.ExecContext(ctx,
			"UPDATE trunks SET status = ?, updated_at = ? WHERE id = ?",
			string(status), now, id); err != nil {
			return wrapDBErrorf(err, "transition trunk %d", id)
		}
		content := fmt.Sprintf("%s -> %s", t.Status, status)
		t.Status = status
		t.UpdatedAt = now
		out = t
		return s.appendEvent(ctx, tx, types.ItemTrunk, id, types.EventStatusChanged, content, "")
	})
	return out, err
}

// DeleteTrunk removes a trunk. Its fruits cascade-delete; branches and
// buds keep existing with their trunk link cleared.
func (s *Store) DeleteTrunk(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM trunks WHERE id = ?", id)
		if err != nil {
			return wrapDBErrorf(err, "delete trunk %d", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("delete trunk", err)
		}
		if n == 0 {
			return wrapDBErrorf(sql.ErrNoRows, "delete trunk %d", id)
		}
		return nil
	})
}

// checkContainmentCycle walks the parent chain of table upward from
// newParentID and fails with storage.ErrCycle if it reaches id. It also
// verifies the new parent exists.
func checkContainmentCycle(ctx context.Context, q querier, table string, id, newParentID int64) error {
	if id == newParentID {
		return fmt.Errorf("set parent of %s %d: %w", table, id, storage.ErrCycle)
	}
	// Depth cap guards against corrupt data looping forever.
	var count int
	err := q.QueryRowContext(ctx, `
		WITH RECURSIVE ancestors AS (
			SELECT id, parent_id, 0 AS depth FROM `+table+` WHERE id = ?
			UNION ALL
			SELECT t.id, t.parent_id, a.depth + 1
			FROM ancestors a JOIN `+table+` t ON t.id = a.parent_id
			WHERE a.depth < 100
		)
		SELECT COUNT(*) FROM ancestors WHERE id = ?`, newParentID, id).Scan(&count)
	if err != nil {
		return wrapDBErrorf(err, "check %s parent chain", table)
	}
	if count > 0 {
		return fmt.Errorf("set parent of %s %d: %w", table, id, storage.ErrCycle)
	}
	// The recursive CTE yields zero rows only if the anchor is missing.
	var one int
	if err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", newParentID).Scan(&one); err != nil {
		return wrapDBErrorf(err, "find %s %d", table, newParentID)
	}
	return nil
}
