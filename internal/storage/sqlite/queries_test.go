package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/grovecli/grove/internal/types"
)

func TestWhyFollowsBranchChain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	grove := &types.Grove{Name: "Health"}
	if err := s.CreateGrove(ctx, grove); err != nil {
		t.Fatalf("CreateGrove: %v", err)
	}
	trunk := &types.Trunk{Title: "Run a marathon", GroveID: &grove.ID}
	if err := s.CreateTrunk(ctx, trunk); err != nil {
		t.Fatalf("CreateTrunk: %v", err)
	}
	parent := &types.Branch{Title: "Training plan", TrunkID: &trunk.ID}
	if err := s.CreateBranch(ctx, parent); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	child := &types.Branch{Title: "Week 1", ParentID: &parent.ID}
	if err := s.CreateBranch(ctx, child); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	bud := &types.Bud{Title: "5k easy run", BranchID: &child.ID}
	if err := s.CreateBud(ctx, bud); err != nil {
		t.Fatalf("CreateBud: %v", err)
	}

	trace, err := s.Why(ctx, bud.ID)
	if err != nil {
		t.Fatalf("Why: %v", err)
	}
	if trace.Branch == nil || trace.Branch.ID != child.ID {
		t.Errorf("branch not traced: %+v", trace.Branch)
	}
	if trace.Trunk == nil || trace.Trunk.ID != trunk.ID {
		t.Fatalf("trunk not traced through parent branch: %+v", trace.Trunk)
	}
	if trace.TrunkDirect {
		t.Error("trunk came from the chain, must not be flagged direct")
	}
	if trace.Grove == nil || trace.Grove.ID != grove.ID {
		t.Errorf("grove not traced through trunk: %+v", trace.Grove)
	}
}

func TestWhyDirectLinkFallback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	grove := &types.Grove{Name: "Career"}
	if err := s.CreateGrove(ctx, grove); err != nil {
		t.Fatalf("CreateGrove: %v", err)
	}
	trunk := &types.Trunk{Title: "Get promoted"}
	if err := s.CreateTrunk(ctx, trunk); err != nil {
		t.Fatalf("CreateTrunk: %v", err)
	}
	// Floating bud with direct pointers only.
	bud := &types.Bud{Title: "update resume", TrunkID: &trunk.ID, GroveID: &grove.ID}
	if err := s.CreateBud(ctx, bud); err != nil {
		t.Fatalf("CreateBud: %v", err)
	}

	trace, err := s.Why(ctx, bud.ID)
	if err != nil {
		t.Fatalf("Why: %v", err)
	}
	if trace.Branch != nil {
		t.Error("no branch expected")
	}
	if trace.Trunk == nil || !trace.TrunkDirect {
		t.Errorf("direct trunk not picked up: %+v", trace)
	}
	if trace.Grove == nil || !trace.GroveDirect {
		t.Errorf("direct grove not picked up: %+v", trace)
	}
}

func TestStatistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateBud(t, s, "s1", "")
	mustCreateBud(t, s, "d1", types.StatusDormant)
	mustCreateBud(t, s, "w1", types.StatusBudding)
	mustCreateBud(t, s, "done", types.StatusBloomed)
	mustCreateBud(t, s, "dropped", types.StatusMulch)

	blocker := mustCreateBud(t, s, "blocker", types.StatusDormant)
	blocked := mustCreateBud(t, s, "blocked", types.StatusDormant)
	mustAddBlocks(t, s, blocked.ID, blocker.ID)

	stats, err := s.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.TotalBuds != 7 {
		t.Errorf("TotalBuds = %d, want 7", stats.TotalBuds)
	}
	if stats.SeedBuds != 1 || stats.DormantBuds != 3 || stats.BuddingBuds != 1 ||
		stats.BloomedBuds != 1 || stats.MulchedBuds != 1 {
		t.Errorf("state counts wrong: %+v", stats)
	}
	if stats.BlockedBuds != 1 {
		t.Errorf("BlockedBuds = %d, want 1", stats.BlockedBuds)
	}
	// dormant d1 + blocker + budding w1 are free; blocked is not.
	if stats.ActionableBuds != 3 {
		t.Errorf("ActionableBuds = %d, want 3", stats.ActionableBuds)
	}
}

func TestOverviewAggregatesProgress(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	grove := &types.Grove{Name: "Home"}
	if err := s.CreateGrove(ctx, grove); err != nil {
		t.Fatalf("CreateGrove: %v", err)
	}
	trunk := &types.Trunk{Title: "Renovate", GroveID: &grove.ID}
	if err := s.CreateTrunk(ctx, trunk); err != nil {
		t.Fatalf("CreateTrunk: %v", err)
	}
	branch := &types.Branch{Title: "Kitchen", TrunkID: &trunk.ID}
	if err := s.CreateBranch(ctx, branch); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	for i, title := range []string{"paint", "tiles", "sink"} {
		b := &types.Bud{Title: title, BranchID: &branch.ID}
		if err := s.CreateBud(ctx, b); err != nil {
			t.Fatalf("CreateBud: %v", err)
		}
		if i == 0 {
			if _, err := s.TransitionBud(ctx, b.ID, types.StatusBudding); err != nil {
				t.Fatal(err)
			}
			if _, err := s.TransitionBud(ctx, b.ID, types.StatusBloomed); err != nil {
				t.Fatal(err)
			}
		}
	}
	loose := mustCreateBud(t, s, "floating thought", "")
	orphanTrunk := &types.Trunk{Title: "No grove yet"}
	if err := s.CreateTrunk(ctx, orphanTrunk); err != nil {
		t.Fatalf("CreateTrunk: %v", err)
	}

	ov, err := s.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if len(ov.Groves) != 1 {
		t.Fatalf("groves = %d, want 1", len(ov.Groves))
	}
	g := ov.Groves[0]
	if g.BudCount != 3 || g.Bloomed != 1 {
		t.Errorf("grove aggregate = %d/%d, want 3/1", g.Bloomed, g.BudCount)
	}
	if len(ov.OrphanTrunks) != 1 || ov.OrphanTrunks[0].ID != orphanTrunk.ID {
		t.Errorf("orphan trunks wrong: %+v", ov.OrphanTrunks)
	}
	if len(ov.LooseBuds) != 1 || ov.LooseBuds[0].ID != loose.ID {
		t.Errorf("loose buds wrong: %d", len(ov.LooseBuds))
	}
}

func TestTidyCountsIncludeFinishedChildren(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	trunk := &types.Trunk{Title: "Crowded"}
	if err := s.CreateTrunk(ctx, trunk); err != nil {
		t.Fatalf("CreateTrunk: %v", err)
	}
	branch := &types.Branch{Title: "Full", TrunkID: &trunk.ID}
	if err := s.CreateBranch(ctx, branch); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	for i := 0; i < 11; i++ {
		b := &types.Bud{Title: "done already", BranchID: &branch.ID}
		if err := s.CreateBud(ctx, b); err != nil {
			t.Fatalf("CreateBud: %v", err)
		}
		if _, err := s.TransitionBud(ctx, b.ID, types.StatusBudding); err != nil {
			t.Fatal(err)
		}
		if _, err := s.TransitionBud(ctx, b.ID, types.StatusBloomed); err != nil {
			t.Fatal(err)
		}
	}

	// Tidy measures structure, not workload: bloomed buds still crowd
	// their branch.
	counts, err := s.CountBudsPerBranch(ctx)
	if err != nil {
		t.Fatalf("CountBudsPerBranch: %v", err)
	}
	if counts[branch.ID] != 11 {
		t.Errorf("count = %d, want 11", counts[branch.ID])
	}

	branchCounts, err := s.CountBranchesPerTrunk(ctx)
	if err != nil {
		t.Fatalf("CountBranchesPerTrunk: %v", err)
	}
	if branchCounts[trunk.ID] != 1 {
		t.Errorf("branch count = %d, want 1", branchCounts[trunk.ID])
	}
}

func TestReview(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := mustCreateBud(t, s, "triage me", "")
	bloomed := mustCreateBud(t, s, "recent win", types.StatusBloomed)
	stale := mustCreateBud(t, s, "stalled work", types.StatusBudding)

	// Backdate the stale bud past the cutoff.
	if _, err := s.db.ExecContext(ctx,
		"UPDATE buds SET updated_at = ? WHERE id = ?",
		time.Now().UTC().Add(-14*24*time.Hour), stale.ID); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	branch := &types.Branch{Title: "Ongoing"}
	if err := s.CreateBranch(ctx, branch); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	onBranch := &types.Bud{Title: "branch work", BranchID: &branch.ID}
	if err := s.CreateBud(ctx, onBranch); err != nil {
		t.Fatalf("CreateBud: %v", err)
	}
	// Clarified, so it stays out of the seeds section.
	if _, err := s.TransitionBud(ctx, onBranch.ID, types.StatusDormant); err != nil {
		t.Fatal(err)
	}

	cutoff := time.Now().UTC().Add(-7 * 24 * time.Hour)
	since := time.Now().UTC().Add(-7 * 24 * time.Hour)
	report, err := s.Review(ctx, cutoff, since)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}

	if len(report.Seeds) != 1 || report.Seeds[0].ID != seed.ID {
		t.Errorf("seeds wrong: %d", len(report.Seeds))
	}
	if len(report.StaleBuds) != 1 || report.StaleBuds[0].ID != stale.ID {
		t.Errorf("stale buds wrong: %d", len(report.StaleBuds))
	}
	if len(report.RecentBlooms) != 1 || report.RecentBlooms[0].ID != bloomed.ID {
		t.Errorf("recent blooms wrong: %d", len(report.RecentBlooms))
	}
	if len(report.BranchProgress) != 1 || report.BranchProgress[0].Total != 1 {
		t.Errorf("branch progress wrong: %+v", report.BranchProgress)
	}
}
