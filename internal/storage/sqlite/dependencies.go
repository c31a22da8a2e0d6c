package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/grovecli/grove/internal/storage"
	"github.com/grovecli/grove/internal/types"
)

// AddDependency creates a directed edge from dep.BudID to dep.DependsOnID.
// For blocks edges the insert happens only after a reachability check
// proves the reverse path does not exist, all inside one transaction, so
// the blocks subgraph stays acyclic under concurrency. An exact
// duplicate edge is a validation error.
func (s *Store) AddDependency(ctx context.Context, dep *types.Dependency) error {
	if dep.Type == "" {
		dep.Type = types.DepBlocks
	}
	if err := dep.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkItemExists(ctx, tx, types.ItemBud, dep.BudID); err != nil {
			return err
		}
		if err := s.checkItemExists(ctx, tx, types.ItemBud, dep.DependsOnID); err != nil {
			return err
		}

		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM bud_dependencies WHERE bud_id = ? AND depends_on_id = ? AND type = ?",
			dep.BudID, dep.DependsOnID, string(dep.Type)).Scan(&exists)
		if err != nil {
			return wrapDBError("check existing dependency", err)
		}
		if exists > 0 {
			return &types.ValidationError{
				Field:  "depends_on",
				Reason: fmt.Sprintf("bud %d already depends on %d (%s)", dep.BudID, dep.DependsOnID, dep.Type),
			}
		}

		if dep.Type.GatesActionability() {
			// Walk the existing blocks edges from the blocker; if the
			// dependent bud is already reachable, this edge closes a cycle.
			var count int
			err := tx.QueryRowContext(ctx, `
				WITH RECURSIVE reachable AS (
					SELECT ? AS node, 0 AS depth
					UNION ALL
					SELECT d.depends_on_id, r.depth + 1
					FROM reachable r
					JOIN bud_dependencies d ON d.bud_id = r.node
					WHERE d.type = 'blocks' AND r.depth < 100
				)
				SELECT COUNT(*) FROM reachable WHERE node = ?`,
				dep.DependsOnID, dep.BudID).Scan(&count)
			if err != nil {
				return wrapDBError("check dependency cycle", err)
			}
			if count > 0 {
				return fmt.Errorf("add dependency %d -> %d: %w", dep.BudID, dep.DependsOnID, storage.ErrCycle)
			}
		}

		created := s.now()
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO bud_dependencies (bud_id, depends_on_id, type, created_at) VALUES (?, ?, ?, ?)",
			dep.BudID, dep.DependsOnID, string(dep.Type), created); err != nil {
			return wrapDBErrorf(err, "add dependency %d -> %d", dep.BudID, dep.DependsOnID)
		}
		dep.CreatedAt = created
		return s.appendEvent(ctx, tx, types.ItemBud, dep.BudID, types.EventRefAdded,
			fmt.Sprintf("%s %d", dep.Type, dep.DependsOnID), "")
	})
}

// RemoveDependency deletes all edges between the pair regardless of type.
// Removing an absent edge is a silent no-op.
func (s *Store) RemoveDependency(ctx context.Context, budID, dependsOnID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM bud_dependencies WHERE bud_id = ? AND depends_on_id = ?",
			budID, dependsOnID)
		if err != nil {
			return wrapDBErrorf(err, "remove dependency %d -> %d", budID, dependsOnID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("remove dependency", err)
		}
		if n == 0 {
			return nil
		}
		return s.appendEvent(ctx, tx, types.ItemBud, budID, types.EventLog,
			fmt.Sprintf("dependency on %d removed", dependsOnID), "")
	})
}

// Chain creates blocks edges linking each bud to its predecessor, so the
// list executes in order. The whole chain commits atomically: one bad
// link (missing bud, would-be cycle) rolls back every edge.
func (s *Store) Chain(ctx context.Context, budIDs []int64) error {
	if len(budIDs) < 2 {
		return &types.ValidationError{Field: "bud_ids", Reason: "chain requires at least two buds"}
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range budIDs {
			if err := s.checkItemExists(ctx, tx, types.ItemBud, id); err != nil {
				return err
			}
		}
		created := s.now()
		for i := 1; i < len(budIDs); i++ {
			blocked, blocker := budIDs[i], budIDs[i-1]
			if blocked == blocker {
				return &types.ValidationError{Field: "bud_ids", Reason: "a bud cannot depend on itself"}
			}

			var exists int
			err := tx.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM bud_dependencies WHERE bud_id = ? AND depends_on_id = ? AND type = 'blocks'",
				blocked, blocker).Scan(&exists)
			if err != nil {
				return wrapDBError("check existing dependency", err)
			}
			if exists > 0 {
				continue
			}

			var count int
			err = tx.QueryRowContext(ctx, `
				WITH RECURSIVE reachable AS (
					SELECT ? AS node, 0 AS depth
					UNION ALL
					SELECT d.depends_on_id, r.depth + 1
					FROM reachable r
					JOIN bud_dependencies d ON d.bud_id = r.node
					WHERE d.type = 'blocks' AND r.depth < 100
				)
				SELECT COUNT(*) FROM reachable WHERE node = ?`,
				blocker, blocked).Scan(&count)
			if err != nil {
				return wrapDBError("check dependency cycle", err)
			}
			if count > 0 {
				return fmt.Errorf("chain link %d -> %d: %w", blocked, blocker, storage.ErrCycle)
			}

			if _, err := tx.ExecContext(ctx,
				"INSERT INTO bud_dependencies (bud_id, depends_on_id, type, created_at) VALUES (?, ?, 'blocks', ?)",
				blocked, blocker, created); err != nil {
				return wrapDBErrorf(err, "chain link %d -> %d", blocked, blocker)
			}
			if err := s.appendEvent(ctx, tx, types.ItemBud, blocked, types.EventRefAdded,
				fmt.Sprintf("blocks %d", blocker), ""); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetDependencies returns the buds that budID depends on (its blockers,
// relations, and subtask targets).
func (s *Store) GetDependencies(ctx context.Context, budID int64) ([]*types.Bud, error) {
	return s.queryBudsVia(ctx, `
		SELECT `+budJoinColumns+` FROM buds
		JOIN bud_dependencies d ON d.depends_on_id = buds.id
		WHERE d.bud_id = ?
		ORDER BY buds.id`, budID)
}

// GetDependents returns the buds that depend on budID.
func (s *Store) GetDependents(ctx context.Context, budID int64) ([]*types.Bud, error) {
	return s.queryBudsVia(ctx, `
		SELECT `+budJoinColumns+` FROM buds
		JOIN bud_dependencies d ON d.bud_id = buds.id
		WHERE d.depends_on_id = ?
		ORDER BY buds.id`, budID)
}

func (s *Store) queryBudsVia(ctx context.Context, query string, args ...interface{}) ([]*types.Bud, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("query buds", err)
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
	return buds, wrapDBError("query buds", rows.Err())
}

// ActionableBuds returns buds that can be worked on now: status dormant
// or budding, with no blocks edge to an unfinished bud. Only direct
// blockers matter; a transitively blocked chain clears one hop at a time.
func (s *Store) ActionableBuds(ctx context.Context) ([]*types.Bud, error) {
	return s.queryBudsVia(ctx, `
		SELECT `+budColumns+` FROM buds
		WHERE status IN ('dormant','budding')
		AND NOT EXISTS (
			SELECT 1 FROM bud_dependencies d
			JOIN buds blocker ON blocker.id = d.depends_on_id
			WHERE d.bud_id = buds.id
			AND d.type = 'blocks'
			AND blocker.status NOT IN ('bloomed','mulch')
		)
		ORDER BY CASE priority
			WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END,
			created_at, id`)
}

// BlockedBuds returns unfinished buds that have at least one unfinished
// blocker, each annotated with the blockers holding it back.
func (s *Store) BlockedBuds(ctx context.Context) ([]*types.BlockedBud, error) {
	buds, err := s.queryBudsVia(ctx, `
		SELECT `+budColumns+` FROM buds
		WHERE status NOT IN ('bloomed','mulch')
		AND EXISTS (
			SELECT 1 FROM bud_dependencies d
			JOIN buds blocker ON blocker.id = d.depends_on_id
			WHERE d.bud_id = buds.id
			AND d.type = 'blocks'
			AND blocker.status NOT IN ('bloomed','mulch')
		)
		ORDER BY buds.id`)
	if err != nil {
		return nil, err
	}

	blocked := make([]*types.BlockedBud, 0, len(buds))
	for _, b := range buds {
		blockers, err := s.queryBudsVia(ctx, `
			SELECT `+budJoinColumns+` FROM buds
			JOIN bud_dependencies d ON d.depends_on_id = buds.id
			WHERE d.bud_id = ? AND d.type = 'blocks'
			AND buds.status NOT IN ('bloomed','mulch')
			ORDER BY buds.id`, b.ID)
		if err != nil {
			return nil, err
		}
		blocked = append(blocked, &types.BlockedBud{Bud: *b, BlockedBy: blockers})
	}
	return blocked, nil
}
