package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/grovecli/grove/internal/lifecycle"
	"github.com/grovecli/grove/internal/types"
)

const budColumns = `id, branch_id, trunk_id, grove_id, title, description, status, priority,
	story_points, estimated_minutes, assignee, context, energy_level,
	time_spent_minutes, cost_cents, due_date, scheduled_date, defer_until,
	labels, notes, session_id, source_message_id, beads_id, beads_synced_at,
	created_at, updated_at, clarified_at, started_at, completed_at`

// budJoinColumns qualifies every bud column for queries that join
// bud_dependencies, which also has a created_at column.
var budJoinColumns = func() string {
	cols := strings.Split(budColumns, ",")
	for i, c := range cols {
		cols[i] = "buds." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}()

func scanBud(row interface{ Scan(...interface{}) error }) (*types.Bud, error) {
	b := &types.Bud{}
	var branchID, groveID, trunkID, sourceMsgID sql.NullInt64
	var storyPoints, estMinutes sql.NullInt64
	var dueDate, schedDate, deferUntil, beadsSynced, clarified, started, completed sql.NullTime
	var labels string
	err := row.Scan(&b.ID, &branchID, &trunkID, &groveID, &b.Title, &b.Description,
		&b.Status, &b.Priority, &storyPoints, &estMinutes, &b.Assignee, &b.Context,
		&b.EnergyLevel, &b.TimeSpentMinutes, &b.CostCents, &dueDate, &schedDate,
		&deferUntil, &labels, &b.Notes, &b.SessionID, &sourceMsgID, &b.BeadsID,
		&beadsSynced, &b.CreatedAt, &b.UpdatedAt, &clarified, &started, &completed)
	if err != nil {
		return nil, err
	}
	b.BranchID = int64Ptr(branchID)
	b.TrunkID = int64Ptr(trunkID)
	b.GroveID = int64Ptr(groveID)
	b.StoryPoints = intPtr(storyPoints)
	b.EstimatedMinutes = intPtr(estMinutes)
	b.DueDate = timePtr(dueDate)
	b.ScheduledDate = timePtr(schedDate)
	b.DeferUntil = timePtr(deferUntil)
	b.Labels = unmarshalLabels(labels)
	b.SourceMessageID = int64Ptr(sourceMsgID)
	b.BeadsSyncedAt = timePtr(beadsSynced)
	b.ClarifiedAt = timePtr(clarified)
	b.StartedAt = timePtr(started)
	b.CompletedAt = timePtr(completed)
	return b, nil
}

// CreateBud inserts a bud, verifying any referenced containers exist.
// The direct trunk/grove pointers are stored as given even when they
// disagree with the branch's own placement.
func (s *Store) CreateBud(ctx context.Context, b *types.Bud) error {
	b.SetDefaults()
	if err := b.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if b.BranchID != nil {
			if err := s.checkItemExists(ctx, tx, types.ItemBranch, *b.BranchID); err != nil {
				return err
			}
		}
		if b.TrunkID != nil {
			if err := s.checkItemExists(ctx, tx, types.ItemTrunk, *b.TrunkID); err != nil {
				return err
			}
		}
		if b.GroveID != nil {
			if err := s.checkItemExists(ctx, tx, types.ItemGrove, *b.GroveID); err != nil {
				return err
			}
		}
		now := s.now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO buds (branch_id, trunk_id, grove_id, title, description, status, priority,
				story_points, estimated_minutes, assignee, context, energy_level,
				time_spent_minutes, cost_cents, due_date, scheduled_date, defer_until,
				labels, notes, session_id, source_message_id, beads_id, beads_synced_at,
				created_at, updated_at, clarified_at, started_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nullInt64(b.BranchID), nullInt64(b.TrunkID), nullInt64(b.GroveID),
			b.Title, b.Description, string(b.Status), string(b.Priority),
			nullInt(b.StoryPoints), nullInt(b.EstimatedMinutes), b.Assignee, b.Context,
			string(b.EnergyLevel), b.TimeSpentMinutes, b.CostCents,
			nullTime(b.DueDate), nullTime(b.ScheduledDate), nullTime(b.DeferUntil),
			marshalLabels(b.Labels), b.Notes, b.SessionID, nullInt64(b.SourceMessageID),
			b.BeadsID, nullTime(b.BeadsSyncedAt),
			now, now, nullTime(b.ClarifiedAt), nullTime(b.StartedAt), nullTime(b.CompletedAt))
		if err != nil {
			return wrapDBErrorf(err, "create bud %q", b.Title)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return wrapDBError("create bud", err)
		}
		b.ID = id
		b.CreatedAt = now
		b.UpdatedAt = now
		return s.appendEvent(ctx, tx, types.ItemBud, id, types.EventCreated, b.Title, b.SessionID)
	})
}

// GetBud retrieves a bud by ID.
func (s *Store) GetBud(ctx context.Context, id int64) (*types.Bud, error) {
	b, err := scanBud(s.db.QueryRowContext(ctx,
		"SELECT "+budColumns+" FROM buds WHERE id = ?", id))
	if err != nil {
		return nil, wrapDBErrorf(err, "get bud %d", id)
	}
	return b, nil
}

// GetBudByBeadsID finds the bud on a branch that mirrors the given beads
// issue.
func (s *Store) GetBudByBeadsID(ctx context.Context, branchID int64, beadsID string) (*types.Bud, error) {
	b, err := scanBud(s.db.QueryRowContext(ctx,
		"SELECT "+budColumns+" FROM buds WHERE branch_id = ? AND beads_id = ?", branchID, beadsID))
	if err != nil {
		return nil, wrapDBErrorf(err, "get bud %s on branch %d", beadsID, branchID)
	}
	return b, nil
}

// ListBuds returns buds matching the filter, urgent first, oldest first
// within a priority band.
func (s *Store) ListBuds(ctx context.Context, filter types.BudFilter) ([]*types.Bud, error) {
	var where []string
	var args []interface{}

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	} else if !filter.IncludeDone {
		where = append(where, "status NOT IN ('bloomed','mulch')")
	}
	if filter.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, string(filter.Priority))
	}
	if filter.BranchID != nil {
		where = append(where, "branch_id = ?")
		args = append(args, *filter.BranchID)
	}
	if filter.TrunkID != nil {
		where = append(where, "trunk_id = ?")
		args = append(args, *filter.TrunkID)
	}
	if filter.GroveID != nil {
		where = append(where, "grove_id = ?")
		args = append(args, *filter.GroveID)
	}
	if filter.Assignee != "" {
		where = append(where, "assignee = ?")
		args = append(args, filter.Assignee)
	}
	if filter.Context != "" {
		where = append(where, "context = ?")
		args = append(args, filter.Context)
	}
	if filter.HasBeadsID != nil {
		if *filter.HasBeadsID {
			where = append(where, "beads_id != ''")
		} else {
			where = append(where, "beads_id = ''")
		}
	}
	// Labels use AND semantics over the JSON array column.
	for _, label := range filter.Labels {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(buds.labels) WHERE json_each.value = ?)")
		args = append(args, label)
	}

	query := "SELECT " + budColumns + " FROM buds"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY CASE priority
		WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END, created_at, id`
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("list buds", err)
	}
	defer rows.Close()

	var buds []*types.Bud
	for rows.Next() {
		b, err := scanBud(rows)
		if err != nil {
			return nil, wrapDBError("scan bud", err)
		}
		buds = append(buds, b)
	}
	return buds, wrapDBError("list buds", rows.Err())
}

// UpdateBud saves mutable bud fields. Status changes must go through
// TransitionBud; a mismatch with the stored status is rejected here so
// lifecycle stamping cannot be bypassed.
func (s *Store) UpdateBud(ctx context.Context, b *types.Bud) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, "SELECT status FROM buds WHERE id = ?", b.ID).Scan(&current)
		if err != nil {
			return wrapDBErrorf(err, "update bud %d", b.ID)
		}
		if types.BudStatus(current) != b.Status {
			return &types.ValidationError{Field: "status", Reason: "status changes must use the transition operation"}
		}
		now := s.now()
		_, err = tx.ExecContext(ctx, `
			UPDATE buds SET branch_id = ?, trunk_id = ?, grove_id = ?, title = ?, description = ?,
				priority = ?, story_points = ?, estimated_minutes = ?, assignee = ?,
				context = ?, energy_level = ?, time_spent_minutes = ?, cost_cents = ?,
				due_date = ?, scheduled_date = ?, defer_until = ?, labels = ?, notes = ?,
				updated_at = ?
			WHERE id = ?`,
			nullInt64(b.BranchID), nullInt64(b.TrunkID), nullInt64(b.GroveID),
			b.Title, b.Description, string(b.Priority),
			nullInt(b.StoryPoints), nullInt(b.EstimatedMinutes), b.Assignee,
			b.Context, string(b.EnergyLevel), b.TimeSpentMinutes, b.CostCents,
			nullTime(b.DueDate), nullTime(b.ScheduledDate), nullTime(b.DeferUntil),
			marshalLabels(b.Labels), b.Notes, now, b.ID)
		if err != nil {
			return wrapDBErrorf(err, "update bud %d", b.ID)
		}
		b.UpdatedAt = now
		return s.appendEvent(ctx, tx, types.ItemBud, b.ID, types.EventLog, "updated", b.SessionID)
	})
}

// TransitionBud moves a bud through its lifecycle, stamping milestone
// timestamps exactly once. A same-state transition succeeds without
// writing anything. Forbidden moves (out of a terminal state, seed
// straight to bloomed) fail with a lifecycle error and nothing changes.
func (s *Store) TransitionBud(ctx context.Context, id int64, status types.BudStatus) (*types.Bud, error) {
	var out *types.Bud
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		b, err := scanBud(tx.QueryRowContext(ctx,
			"SELECT "+budColumns+" FROM buds WHERE id = ?", id))
		if err != nil {
			return wrapDBErrorf(err, "get bud %d", id)
		}
		if b.Status == status {
			out = b
			return nil
		}
		from := b.Status
		now := s.now()
		if err := lifecycle.Apply(b, status, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE buds SET status = ?, updated_at = ?, clarified_at = ?, started_at = ?, completed_at = ?
			WHERE id = ?`,
			string(b.Status), b.UpdatedAt, nullTime(b.ClarifiedAt),
			nullTime(b.StartedAt), nullTime(b.CompletedAt), id); err != nil {
			return wrapDBErrorf(err, "transition bud %d", id)
		}
		out = b
		return s.appendEvent(ctx, tx, types.ItemBud, id, types.EventStatusChanged,
			fmt.Sprintf("%s -> %s", from, status), b.SessionID)
	})
	return out, err
}

// MarkBeadSynced records that a bud was pushed to (or matched with) a
// beads issue.
func (s *Store) MarkBeadSynced(ctx context.Context, budID int64, beadsID string, at time.Time) error {
	if beadsID == "" {
		return &types.ValidationError{Field: "beads_id", Reason: "beads id is required"}
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE buds SET beads_id = ?, beads_synced_at = ?, updated_at = ? WHERE id = ?",
			beadsID, at.UTC(), s.now(), budID)
		if err != nil {
			return wrapDBErrorf(err, "mark bud %d synced", budID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("mark bud synced", err)
		}
		if n == 0 {
			return wrapDBErrorf(sql.ErrNoRows, "mark bud %d synced", budID)
		}
		return s.appendEvent(ctx, tx, types.ItemBud, budID, types.EventBeadSynced, beadsID, "")
	})
}

// DeleteBud removes a bud; its dependency edges cascade-delete.
func (s *Store) DeleteBud(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM buds WHERE id = ?", id)
		if err != nil {
			return wrapDBErrorf(err, "delete bud %d", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("delete bud", err)
		}
		if n == 0 {
			return wrapDBErrorf(sql.ErrNoRows, "delete bud %d", id)
		}
		return nil
	})
}
