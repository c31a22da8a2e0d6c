package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/grovecli/grove/internal/storage"
	"github.com/grovecli/grove/internal/types"
)

// Why traces a bud upward through the hierarchy: its branch (following
// parent branches to the one that links a trunk), then the trunk chain,
// then the grove. Direct trunk/grove pointers on the bud fill any gap
// the branch chain leaves, flagged so callers can render the difference.
func (s *Store) Why(ctx context.Context, budID int64) (*types.WhyTrace, error) {
	bud, err := s.GetBud(ctx, budID)
	if err != nil {
		return nil, err
	}
	trace := &types.WhyTrace{Bud: bud}

	if bud.BranchID != nil {
		branch, err := s.GetBranch(ctx, *bud.BranchID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if branch != nil {
			trace.Branch = branch
			// Walk parent branches until one carries a trunk link.
			cur := branch
			for i := 0; cur.TrunkID == nil && cur.ParentID != nil && i < 100; i++ {
				parent, err := s.GetBranch(ctx, *cur.ParentID)
				if err != nil {
					if errors.Is(err, storage.ErrNotFound) {
						break
					}
					return nil, err
				}
				cur = parent
			}
			if cur.TrunkID != nil {
				trunk, err := s.GetTrunk(ctx, *cur.TrunkID)
				if err != nil && !errors.Is(err, storage.ErrNotFound) {
					return nil, err
				}
				trace.Trunk = trunk
			} else if cur.GroveID != nil {
				grove, err := s.GetGrove(ctx, *cur.GroveID)
				if err != nil && !errors.Is(err, storage.ErrNotFound) {
					return nil, err
				}
				trace.Grove = grove
			}
		}
	}

	// Direct links fill in what the branch chain did not resolve.
	if trace.Trunk == nil && bud.TrunkID != nil {
		trunk, err := s.GetTrunk(ctx, *bud.TrunkID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if trunk != nil {
			trace.Trunk = trunk
			trace.TrunkDirect = true
		}
	}
	if trace.Grove == nil && trace.Trunk != nil {
		// Follow the trunk chain up to the grove.
		cur := trace.Trunk
		for i := 0; cur.GroveID == nil && cur.ParentID != nil && i < 100; i++ {
			parent, err := s.GetTrunk(ctx, *cur.ParentID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					break
				}
				return nil, err
			}
			cur = parent
		}
		if cur.GroveID != nil {
			grove, err := s.GetGrove(ctx, *cur.GroveID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
			trace.Grove = grove
		}
	}
	if trace.Grove == nil && bud.GroveID != nil {
		grove, err := s.GetGrove(ctx, *bud.GroveID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if grove != nil {
			trace.Grove = grove
			trace.GroveDirect = true
		}
	}
	return trace, nil
}

// Statistics aggregates bud counts by lifecycle state plus the blocked
// and actionable tallies.
func (s *Store) Statistics(ctx context.Context) (*types.Statistics, error) {
	stats := &types.Statistics{}
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM buds GROUP BY status")
	if err != nil {
		return nil, wrapDBError("gather statistics", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, wrapDBError("gather statistics", err)
		}
		stats.TotalBuds += count
		switch types.BudStatus(status) {
		case types.StatusSeed:
			stats.SeedBuds = count
		case types.StatusDormant:
			stats.DormantBuds = count
		case types.StatusBudding:
			stats.BuddingBuds = count
		case types.StatusBloomed:
			stats.BloomedBuds = count
		case types.StatusMulch:
			stats.MulchedBuds = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("gather statistics", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM buds
		WHERE status NOT IN ('bloomed','mulch')
		AND EXISTS (
			SELECT 1 FROM bud_dependencies d
			JOIN buds blocker ON blocker.id = d.depends_on_id
			WHERE d.bud_id = buds.id AND d.type = 'blocks'
			AND blocker.status NOT IN ('bloomed','mulch')
		)`).Scan(&stats.BlockedBuds)
	if err != nil {
		return nil, wrapDBError("gather statistics", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM buds
		WHERE status IN ('dormant','budding')
		AND NOT EXISTS (
			SELECT 1 FROM bud_dependencies d
			JOIN buds blocker ON blocker.id = d.depends_on_id
			WHERE d.bud_id = buds.id AND d.type = 'blocks'
			AND blocker.status NOT IN ('bloomed','mulch')
		)`).Scan(&stats.ActionableBuds)
	if err != nil {
		return nil, wrapDBError("gather statistics", err)
	}
	return stats, nil
}

// Overview assembles the whole hierarchy: groves with their trunks,
// branches, and bud progress counts, plus trunks, branches, and buds
// that float outside any container.
func (s *Store) Overview(ctx context.Context) (*types.Overview, error) {
	ov := &types.Overview{}

	groves, err := s.ListGroves(ctx, false)
	if err != nil {
		return nil, err
	}
	trunks, err := s.ListTrunks(ctx, nil, true)
	if err != nil {
		return nil, err
	}
	branches, err := s.ListBranches(ctx, nil, true)
	if err != nil {
		return nil, err
	}

	// Bud totals per branch in one pass.
	type counts struct{ total, bloomed int }
	branchCounts := map[int64]*counts{}
	rows, err := s.db.QueryContext(ctx, `
		SELECT branch_id, COUNT(*), SUM(status = 'bloomed')
		FROM buds WHERE branch_id IS NOT NULL GROUP BY branch_id`)
	if err != nil {
		return nil, wrapDBError("count buds per branch", err)
	}
	for rows.Next() {
		var branchID int64
		c := &counts{}
		if err := rows.Scan(&branchID, &c.total, &c.bloomed); err != nil {
			rows.Close()
			return nil, wrapDBError("count buds per branch", err)
		}
		branchCounts[branchID] = c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("count buds per branch", err)
	}

	branchesByTrunk := map[int64][]*types.Branch{}
	branchesByParent := map[int64][]*types.Branch{}
	var orphanBranches []*types.Branch
	for _, b := range branches {
		switch {
		case b.ParentID != nil:
			branchesByParent[*b.ParentID] = append(branchesByParent[*b.ParentID], b)
		case b.TrunkID != nil:
			branchesByTrunk[*b.TrunkID] = append(branchesByTrunk[*b.TrunkID], b)
		default:
			orphanBranches = append(orphanBranches, b)
		}
	}

	var branchNode func(b *types.Branch, depth int) *types.OverviewNode
	branchNode = func(b *types.Branch, depth int) *types.OverviewNode {
		node := &types.OverviewNode{
			Kind: types.ItemBranch, ID: b.ID, Title: b.Title,
			Status: string(b.Status), Depth: depth,
		}
		if c := branchCounts[b.ID]; c != nil {
			node.BudCount = c.total
			node.Bloomed = c.bloomed
		}
		for _, child := range branchesByParent[b.ID] {
			cn := branchNode(child, depth+1)
			node.Children = append(node.Children, cn)
			node.BudCount += cn.BudCount
			node.Bloomed += cn.Bloomed
		}
		return node
	}

	trunksByGrove := map[int64][]*types.Trunk{}
	trunksByParent := map[int64][]*types.Trunk{}
	var orphanTrunks []*types.Trunk
	for _, t := range trunks {
		switch {
		case t.ParentID != nil:
			trunksByParent[*t.ParentID] = append(trunksByParent[*t.ParentID], t)
		case t.GroveID != nil:
			trunksByGrove[*t.GroveID] = append(trunksByGrove[*t.GroveID], t)
		default:
			orphanTrunks = append(orphanTrunks, t)
		}
	}

	var trunkNode func(t *types.Trunk, depth int) *types.OverviewNode
	trunkNode = func(t *types.Trunk, depth int) *types.OverviewNode {
		node := &types.OverviewNode{
			Kind: types.ItemTrunk, ID: t.ID, Title: t.Title,
			Status: string(t.Status), Depth: depth,
		}
		for _, b := range branchesByTrunk[t.ID] {
			bn := branchNode(b, depth+1)
			node.Children = append(node.Children, bn)
			node.BudCount += bn.BudCount
			node.Bloomed += bn.Bloomed
		}
		for _, child := range trunksByParent[t.ID] {
			cn := trunkNode(child, depth+1)
			node.Children = append(node.Children, cn)
			node.BudCount += cn.BudCount
			node.Bloomed += cn.Bloomed
		}
		return node
	}

	for _, g := range groves {
		node := &types.OverviewNode{
			Kind: types.ItemGrove, ID: g.ID, Title: g.Name, Icon: g.Icon, Depth: 0,
		}
		for _, t := range trunksByGrove[g.ID] {
			tn := trunkNode(t, 1)
			node.Children = append(node.Children, tn)
			node.BudCount += tn.BudCount
			node.Bloomed += tn.Bloomed
		}
		ov.Groves = append(ov.Groves, node)
	}
	for _, t := range orphanTrunks {
		ov.OrphanTrunks = append(ov.OrphanTrunks, trunkNode(t, 0))
	}
	for _, b := range orphanBranches {
		ov.OrphanBranches = append(ov.OrphanBranches, branchNode(b, 0))
	}

	loose, err := s.queryBudsVia(ctx, `
		SELECT `+budColumns+` FROM buds
		WHERE branch_id IS NULL AND trunk_id IS NULL AND grove_id IS NULL
		AND status NOT IN ('bloomed','mulch')
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	ov.LooseBuds = loose

	stats, err := s.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	ov.Stats = *stats
	return ov, nil
}

// Review assembles the weekly review: seeds waiting for triage, budding
// buds untouched since staleCutoff, the blocked count, per-branch
// progress on active branches, and blooms since bloomedSince.
func (s *Store) Review(ctx context.Context, staleCutoff, bloomedSince time.Time) (*types.ReviewReport, error) {
	report := &types.ReviewReport{GeneratedAt: s.now()}

	seeds, err := s.queryBudsVia(ctx,
		"SELECT "+budColumns+" FROM buds WHERE status = 'seed' ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	report.Seeds = seeds

	stale, err := s.queryBudsVia(ctx,
		"SELECT "+budColumns+" FROM buds WHERE status = 'budding' AND updated_at < ? ORDER BY updated_at, id",
		staleCutoff.UTC())
	if err != nil {
		return nil, err
	}
	report.StaleBuds = stale

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM buds
		WHERE status NOT IN ('bloomed','mulch')
		AND EXISTS (
			SELECT 1 FROM bud_dependencies d
			JOIN buds blocker ON blocker.id = d.depends_on_id
			WHERE d.bud_id = buds.id AND d.type = 'blocks'
			AND blocker.status NOT IN ('bloomed','mulch')
		)`).Scan(&report.BlockedCount)
	if err != nil {
		return nil, wrapDBError("count blocked buds", err)
	}

	branches, err := s.ListBranches(ctx, nil, false)
	if err != nil {
		return nil, err
	}
	for _, b := range branches {
		if b.Status != types.ContainerActive {
			continue
		}
		bp := &types.BranchProgress{Branch: b}
		err := s.db.QueryRowContext(ctx, `
			SELECT COUNT(*),
				COALESCE(SUM(status = 'bloomed'), 0),
				COALESCE(SUM(status = 'budding'), 0)
			FROM buds WHERE branch_id = ?`, b.ID).
			Scan(&bp.Total, &bp.Bloomed, &bp.Budding)
		if err != nil {
			return nil, wrapDBErrorf(err, "branch %d progress", b.ID)
		}
		report.BranchProgress = append(report.BranchProgress, bp)
	}

	blooms, err := s.queryBudsVia(ctx,
		"SELECT "+budColumns+" FROM buds WHERE status = 'bloomed' AND completed_at >= ? ORDER BY completed_at DESC, id",
		bloomedSince.UTC())
	if err != nil {
		return nil, err
	}
	report.RecentBlooms = blooms
	return report, nil
}

// CountBranchesPerTrunk returns direct branch counts keyed by trunk,
// regardless of branch status. Trunks with no branches are absent from
// the map.
func (s *Store) CountBranchesPerTrunk(ctx context.Context) (map[int64]int, error) {
	return s.countGrouped(ctx, `
		SELECT trunk_id, COUNT(*) FROM branches
		WHERE trunk_id IS NOT NULL
		GROUP BY trunk_id`)
}

// CountBudsPerBranch returns direct bud counts keyed by branch,
// finished buds included.
func (s *Store) CountBudsPerBranch(ctx context.Context) (map[int64]int, error) {
	return s.countGrouped(ctx, `
		SELECT branch_id, COUNT(*) FROM buds
		WHERE branch_id IS NOT NULL
		GROUP BY branch_id`)
}

// CountFruitsPerTrunk returns direct fruit counts keyed by trunk.
func (s *Store) CountFruitsPerTrunk(ctx context.Context) (map[int64]int, error) {
	return s.countGrouped(ctx, `
		SELECT trunk_id, COUNT(*) FROM fruits
		GROUP BY trunk_id`)
}

func (s *Store) countGrouped(ctx context.Context, query string) (map[int64]int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapDBError("count grouped", err)
	}
	defer rows.Close()

	out := map[int64]int{}
	for rows.Next() {
		var id int64
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, wrapDBError("count grouped", err)
		}
		out[id] = count
	}
	return out, wrapDBError("count grouped", rows.Err())
}
