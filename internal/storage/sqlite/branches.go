package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/grovecli/grove/internal/types"
)

const branchColumns = "id, trunk_id, grove_id, parent_id, title, description, status, priority, target_date, labels, done_when, beads_repo, created_at, updated_at"

func scanBranch(row interface{ Scan(...interface{}) error }) (*types.Branch, error) {
	b := &types.Branch{}
	var trunkID, groveID, parentID sql.NullInt64
	var targetDate sql.NullTime
	var labels string
	err := row.Scan(&b.ID, &trunkID, &groveID, &parentID, &b.Title, &b.Description,
		&b.Status, &b.Priority, &targetDate, &labels, &b.DoneWhen, &b.BeadsRepo,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.TrunkID = int64Ptr(trunkID)
	b.GroveID = int64Ptr(groveID)
	b.ParentID = int64Ptr(parentID)
	b.TargetDate = timePtr(targetDate)
	b.Labels = unmarshalLabels(labels)
	return b, nil
}

// CreateBranch inserts a branch, verifying referenced containers exist.
func (s *Store) CreateBranch(ctx context.Context, b *types.Branch) error {
	if b.Status == "" {
		b.Status = types.ContainerActive
	}
	if b.Priority == "" {
		b.Priority = types.PriorityMedium
	}
	if err := b.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
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
		if b.ParentID != nil {
			if err := s.checkItemExists(ctx, tx, types.ItemBranch, *b.ParentID); err != nil {
				return err
			}
		}
		now := s.now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO branches (trunk_id, grove_id, parent_id, title, description, status, priority, target_date, labels, done_when, beads_repo, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nullInt64(b.TrunkID), nullInt64(b.GroveID), nullInt64(b.ParentID),
			b.Title, b.Description, string(b.Status), string(b.Priority),
			nullTime(b.TargetDate), marshalLabels(b.Labels), b.DoneWhen, b.BeadsRepo, now, now)
		if err != nil {
			return wrapDBErrorf(err, "create branch %q", b.Title)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return wrapDBError("create branch", err)
		}
		b.ID = id
		b.CreatedAt = now
		b.UpdatedAt = now
		return s.appendEvent(ctx, tx, types.ItemBranch, id, types.EventCreated, b.Title, "")
	})
}

// GetBranch retrieves a branch by ID.
func (s *Store) GetBranch(ctx context.Context, id int64) (*types.Branch, error) {
	b, err := scanBranch(s.db.QueryRowContext(ctx,
		"SELECT "+branchColumns+" FROM branches WHERE id = ?", id))
	if err != nil {
		return nil, wrapDBErrorf(err, "get branch %d", id)
	}
	return b, nil
}

// ListBranches returns branches, optionally scoped to one trunk.
// Completed and archived branches are excluded unless includeDone is set.
func (s *Store) ListBranches(ctx context.Context, trunkID *int64, includeDone bool) ([]*types.Branch, error) {
	query := "SELECT " + branchColumns + " FROM branches"
	var where []string
	var args []interface{}
	if trunkID != nil {
		where = append(where, "trunk_id = ?")
		args = append(args, *trunkID)
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
		return nil, wrapDBError("list branches", err)
	}
	defer rows.Close()

	var branches []*types.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, wrapDBError("scan branch", err)
		}
		branches = append(branches, b)
	}
	return branches, wrapDBError("list branches", rows.Err())
}

// UpdateBranch saves mutable branch fields. Re-parenting goes through the
// same cycle check as GraftBranch.
func (s *Store) UpdateBranch(ctx context.Context, b *types.Branch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if b.ParentID != nil {
			if err := checkContainmentCycle(ctx, tx, "branches", b.ID, *b.ParentID); err != nil {
				return err
			}
		}
		now := s.now()
		res, err := tx.ExecContext(ctx, `
			UPDATE branches SET trunk_id = ?, grove_id = ?, parent_id = ?, title = ?,
				description = ?, status = ?, priority = ?, target_date = ?, labels = ?,
				done_when = ?, beads_repo = ?, updated_at = ?
			WHERE id = ?`,
			nullInt64(b.TrunkID), nullInt64(b.GroveID), nullInt64(b.ParentID),
			b.Title, b.Description, string(b.Status), string(b.Priority),
			nullTime(b.TargetDate), marshalLabels(b.Labels), b.DoneWhen, b.BeadsRepo,
			now, b.ID)
		if err != nil {
			return wrapDBErrorf(err, "update branch %d", b.ID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("update branch", err)
		}
		if n == 0 {
			return wrapDBErrorf(sql.ErrNoRows, "update branch %d", b.ID)
		}
		b.UpdatedAt = now
		return s.appendEvent(ctx, tx, types.ItemBranch, b.ID, types.EventLog, "updated", "")
	})
}

// TransitionBranch changes container status; same-state is a silent no-op.
func (s *Store) TransitionBranch(ctx context.Context, id int64, status types.ContainerStatus) (*types.Branch, error) {
	if !status.IsValid() {
		return nil, &types.ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status: %s", status)}
	}
	var out *types.Branch
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		b, err := scanBranch(tx.QueryRowContext(ctx,
			"SELECT "+branchColumns+" FROM branches WHERE id = ?", id))
		if err != nil {
			return wrapDBErrorf(err, "get branch %d", id)
		}
		if b.Status == status {
			out = b
			return nil
		}
		now := s.now()
		if _, err := tx.ExecContext(ctx,
			"UPDATE branches SET status = ?, updated_at = ? WHERE id = ?",
			string(status), now, id); err != nil {
			return wrapDBErrorf(err, "transition branch %d", id)
		}
		content := fmt.Sprintf("%s -> %s", b.Status, status)
		b.Status = status
		b.UpdatedAt = now
		out = b
		return s.appendEvent(ctx, tx, types.ItemBranch, id, types.EventStatusChanged, content, "")
	})
	return out, err
}

// DeleteBranch removes a branch. Its buds keep existing with their
// branch link cleared; child branches float up to no parent.
func (s *Store) DeleteBranch(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM branches WHERE id = ?", id)
		if err != nil {
			return wrapDBErrorf(err, "delete branch %d", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("delete branch", err)
		}
		if n == 0 {
			return wrapDBErrorf(sql.ErrNoRows, "delete branch %d", id)
		}
		return nil
	})
}

// LinkBeadsRepo associates a branch with a beads repository path so pull
// and push know where to look.
func (s *Store) LinkBeadsRepo(ctx context.Context, branchID int64, repoPath string) error {
	if repoPath == "" {
		return &types.ValidationError{Field: "beads_repo", Reason: "repo path is required"}
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE branches SET beads_repo = ?, updated_at = ? WHERE id = ?",
			repoPath, s.now(), branchID)
		if err != nil {
			return wrapDBErrorf(err, "link beads repo to branch %d", branchID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("link beads repo", err)
		}
		if n == 0 {
			return wrapDBErrorf(sql.ErrNoRows, "link beads repo to branch %d", branchID)
		}
		return s.appendEvent(ctx, tx, types.ItemBranch, branchID, types.EventRefAdded,
			fmt.Sprintf("beads repo: %s", repoPath), "")
	})
}

// UnlinkBeadsRepo clears the association; a no-op if none exists.
func (s *Store) UnlinkBeadsRepo(ctx context.Context, branchID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var repo string
		err := tx.QueryRowContext(ctx, "SELECT beads_repo FROM branches WHERE id = ?", branchID).Scan(&repo)
		if err != nil {
			return wrapDBErrorf(err, "unlink beads repo from branch %d", branchID)
		}
		if repo == "" {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE branches SET beads_repo = '', updated_at = ? WHERE id = ?",
			s.now(), branchID); err != nil {
			return wrapDBErrorf(err, "unlink beads repo from branch %d", branchID)
		}
		return s.appendEvent(ctx, tx, types.ItemBranch, branchID, types.EventLog,
			fmt.Sprintf("beads repo unlinked: %s", repo), "")
	})
}
