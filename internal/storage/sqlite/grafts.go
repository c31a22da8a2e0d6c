package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/grovecli/grove/internal/types"
)

// SplitBranch creates a sibling branch and moves the given buds onto it.
// The new branch inherits the source's trunk, grove, and parent links.
// Every bud must currently live on the source branch; one mismatch rolls
// back the whole split.
func (s *Store) SplitBranch(ctx context.Context, branchID int64, newTitle string, budIDs []int64) (*types.Branch, error) {
	if newTitle == "" {
		return nil, &types.ValidationError{Field: "title", Reason: "title is required"}
	}
	if len(budIDs) == 0 {
		return nil, &types.ValidationError{Field: "bud_ids", Reason: "split requires at least one bud to move"}
	}
	var out *types.Branch
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		src, err := scanBranch(tx.QueryRowContext(ctx,
			"SELECT "+branchColumns+" FROM branches WHERE id = ?", branchID))
		if err != nil {
			return wrapDBErrorf(err, "get branch %d", branchID)
		}

		for _, budID := range budIDs {
			var onBranch sql.NullInt64
			err := tx.QueryRowContext(ctx, "SELECT branch_id FROM buds WHERE id = ?", budID).Scan(&onBranch)
			if err != nil {
				return wrapDBErrorf(err, "get bud %d", budID)
			}
			if !onBranch.Valid || onBranch.Int64 != branchID {
				return &types.ValidationError{Field: "bud_ids",
					Reason: fmt.Sprintf("bud %d is not on branch %d", budID, branchID)}
			}
		}

		now := s.now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO branches (trunk_id, grove_id, parent_id, title, description, status, priority, target_date, labels, done_when, beads_repo, created_at, updated_at)
			VALUES (?, ?, ?, ?, '', 'active', ?, NULL, '[]', '', '', ?, ?)`,
			nullInt64(src.TrunkID), nullInt64(src.GroveID), nullInt64(src.ParentID),
			newTitle, string(src.Priority), now, now)
		if err != nil {
			return wrapDBErrorf(err, "split branch %d", branchID)
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return wrapDBError("split branch", err)
		}

		for _, budID := range budIDs {
			if _, err := tx.ExecContext(ctx,
				"UPDATE buds SET branch_id = ?, updated_at = ? WHERE id = ?",
				newID, now, budID); err != nil {
				return wrapDBErrorf(err, "move bud %d", budID)
			}
		}

		if err := s.appendEvent(ctx, tx, types.ItemBranch, newID, types.EventCreated, newTitle, ""); err != nil {
			return err
		}
		if err := s.appendEvent(ctx, tx, types.ItemBranch, branchID, types.EventSplit,
			fmt.Sprintf("%d buds moved to branch %d (%s)", len(budIDs), newID, newTitle), ""); err != nil {
			return err
		}

		out = &types.Branch{
			ID: newID, TrunkID: src.TrunkID, GroveID: src.GroveID, ParentID: src.ParentID,
			Title: newTitle, Status: types.ContainerActive, Priority: src.Priority,
			CreatedAt: now, UpdatedAt: now,
		}
		return nil
	})
	return out, err
}

// GraftBranch re-homes a branch onto a new trunk and/or parent branch.
// A nil newTrunkID clears the trunk link; same for newParentID. The
// parent move is cycle-checked against the branch's own descendants.
func (s *Store) GraftBranch(ctx context.Context, branchID int64, newTrunkID, newParentID *int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := scanBranch(tx.QueryRowContext(ctx,
			"SELECT "+branchColumns+" FROM branches WHERE id = ?", branchID)); err != nil {
			return wrapDBErrorf(err, "get branch %d", branchID)
		}
		if newTrunkID != nil {
			if err := s.checkItemExists(ctx, tx, types.ItemTrunk, *newTrunkID); err != nil {
				return err
			}
		}
		if newParentID != nil {
			if err := checkContainmentCycle(ctx, tx, "branches", branchID, *newParentID); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE branches SET trunk_id = ?, parent_id = ?, updated_at = ? WHERE id = ?",
			nullInt64(newTrunkID), nullInt64(newParentID), s.now(), branchID); err != nil {
			return wrapDBErrorf(err, "graft branch %d", branchID)
		}
		return s.appendEvent(ctx, tx, types.ItemBranch, branchID, types.EventGrafted,
			graftContent("trunk", newTrunkID, newParentID), "")
	})
}

// GraftTrunk re-homes a trunk onto a new grove and/or parent trunk,
// cycle-checking the parent move.
func (s *Store) GraftTrunk(ctx context.Context, trunkID int64, newGroveID, newParentID *int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := scanTrunk(tx.QueryRowContext(ctx,
			"SELECT "+trunkColumns+" FROM trunks WHERE id = ?", trunkID)); err != nil {
			return wrapDBErrorf(err, "get trunk %d", trunkID)
		}
		if newGroveID != nil {
			if err := s.checkItemExists(ctx, tx, types.ItemGrove, *newGroveID); err != nil {
				return err
			}
		}
		if newParentID != nil {
			if err := checkContainmentCycle(ctx, tx, "trunks", trunkID, *newParentID); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE trunks SET grove_id = ?, parent_id = ?, updated_at = ? WHERE id = ?",
			nullInt64(newGroveID), nullInt64(newParentID), s.now(), trunkID); err != nil {
			return wrapDBErrorf(err, "graft trunk %d", trunkID)
		}
		return s.appendEvent(ctx, tx, types.ItemTrunk, trunkID, types.EventGrafted,
			graftContent("grove", newGroveID, newParentID), "")
	})
}

func graftContent(containerKind string, containerID, parentID *int64) string {
	container := "none"
	if containerID != nil {
		container = fmt.Sprintf("%d", *containerID)
	}
	parent := "none"
	if parentID != nil {
		parent = fmt.Sprintf("%d", *parentID)
	}
	return fmt.Sprintf("%s=%s parent=%s", containerKind, container, parent)
}
