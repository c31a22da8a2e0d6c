package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/grovecli/grove/internal/storage"
	"github.com/grovecli/grove/internal/types"
)

func TestAddDependencyRejectsCycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateBud(t, s, "a", types.StatusDormant)
	b := mustCreateBud(t, s, "b", types.StatusDormant)
	c := mustCreateBud(t, s, "c", types.StatusDormant)

	mustAddBlocks(t, s, b.ID, a.ID) // b blocked by a
	mustAddBlocks(t, s, c.ID, b.ID) // c blocked by b

	// a blocked by c would close the loop.
	err := s.AddDependency(ctx, &types.Dependency{BudID: a.ID, DependsOnID: c.ID, Type: types.DepBlocks})
	if !errors.Is(err, storage.ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}

	// The failed attempt must leave no edge behind.
	deps, err := s.GetDependencies(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetDependencies: %v", err)
	}
	if len(deps) != 0 {
		t.Errorf("rejected edge persisted: %d deps", len(deps))
	}
}

func TestAddDependencySelfLoop(t *testing.T) {
	s := newTestStore(t)
	a := mustCreateBud(t, s, "a", "")

	err := s.AddDependency(context.Background(), &types.Dependency{BudID: a.ID, DependsOnID: a.ID})
	var verr *types.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for self-loop, got %v", err)
	}
}

func TestRelatedEdgesDoNotGate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateBud(t, s, "a", types.StatusDormant)
	b := mustCreateBud(t, s, "b", types.StatusDormant)

	// A related cycle is fine; only blocks edges are checked.
	if err := s.AddDependency(ctx, &types.Dependency{BudID: a.ID, DependsOnID: b.ID, Type: types.DepRelated}); err != nil {
		t.Fatalf("related a -> b: %v", err)
	}
	if err := s.AddDependency(ctx, &types.Dependency{BudID: b.ID, DependsOnID: a.ID, Type: types.DepRelated}); err != nil {
		t.Fatalf("related b -> a: %v", err)
	}

	// Both stay actionable despite the related edges.
	actionable, err := s.ActionableBuds(ctx)
	if err != nil {
		t.Fatalf("ActionableBuds: %v", err)
	}
	if len(actionable) != 2 {
		t.Errorf("actionable = %d, want 2", len(actionable))
	}
}

func TestDuplicateEdgeRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateBud(t, s, "a", "")
	b := mustCreateBud(t, s, "b", "")
	mustAddBlocks(t, s, b.ID, a.ID)

	err := s.AddDependency(ctx, &types.Dependency{BudID: b.ID, DependsOnID: a.ID, Type: types.DepBlocks})
	var verr *types.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for duplicate edge, got %v", err)
	}

	// The same pair with a different type is a distinct edge, not a duplicate.
	if err := s.AddDependency(ctx, &types.Dependency{BudID: b.ID, DependsOnID: a.ID, Type: types.DepRelated}); err != nil {
		t.Fatalf("related edge alongside blocks: %v", err)
	}

	deps, err := s.GetDependencies(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetDependencies: %v", err)
	}
	if len(deps) != 2 {
		t.Errorf("deps = %d, want 2", len(deps))
	}
}

func TestDependencyQueriesBothDirections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	blocker := mustCreateBud(t, s, "blocker", types.StatusDormant)
	blocked := mustCreateBud(t, s, "blocked", types.StatusDormant)
	mustAddBlocks(t, s, blocked.ID, blocker.ID)

	// Both joined queries must return fully scanned buds; the edge table
	// shares a created_at column with buds.
	deps, err := s.GetDependencies(ctx, blocked.ID)
	if err != nil {
		t.Fatalf("GetDependencies: %v", err)
	}
	if len(deps) != 1 || deps[0].ID != blocker.ID {
		t.Fatalf("deps wrong: %+v", deps)
	}
	if deps[0].CreatedAt.IsZero() {
		t.Error("blocker CreatedAt not scanned")
	}

	dependents, err := s.GetDependents(ctx, blocker.ID)
	if err != nil {
		t.Fatalf("GetDependents: %v", err)
	}
	if len(dependents) != 1 || dependents[0].ID != blocked.ID {
		t.Fatalf("dependents wrong: %+v", dependents)
	}
	if dependents[0].Title != "blocked" {
		t.Errorf("dependent title = %q", dependents[0].Title)
	}
}

func TestRemoveDependencyIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateBud(t, s, "a", "")
	b := mustCreateBud(t, s, "b", "")
	mustAddBlocks(t, s, b.ID, a.ID)

	if err := s.RemoveDependency(ctx, b.ID, a.ID); err != nil {
		t.Fatalf("RemoveDependency: %v", err)
	}
	// Absent edge: still succeeds.
	if err := s.RemoveDependency(ctx, b.ID, a.ID); err != nil {
		t.Fatalf("RemoveDependency (absent): %v", err)
	}
}

func TestChainAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateBud(t, s, "design", types.StatusDormant)
	b := mustCreateBud(t, s, "build", types.StatusDormant)
	c := mustCreateBud(t, s, "launch", types.StatusDormant)

	if err := s.Chain(ctx, []int64{a.ID, b.ID, c.ID}); err != nil {
		t.Fatalf("Chain: %v", err)
	}

	// b is blocked by a, c by b.
	deps, err := s.GetDependencies(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetDependencies(b): %v", err)
	}
	if len(deps) != 1 || deps[0].ID != a.ID {
		t.Errorf("b's deps wrong: %+v", deps)
	}

	// A chain closing a cycle rolls back entirely.
	d := mustCreateBud(t, s, "extra", types.StatusDormant)
	err = s.Chain(ctx, []int64{c.ID, d.ID, a.ID})
	if !errors.Is(err, storage.ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
	dDeps, err := s.GetDependencies(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDependencies(d): %v", err)
	}
	if len(dDeps) != 0 {
		t.Errorf("partial chain persisted after rollback: %+v", dDeps)
	}
}

func TestChainRequiresTwo(t *testing.T) {
	s := newTestStore(t)
	a := mustCreateBud(t, s, "a", "")
	err := s.Chain(context.Background(), []int64{a.ID})
	var verr *types.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestActionableBuds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := mustCreateBud(t, s, "unprocessed", "")
	free := mustCreateBud(t, s, "free dormant", types.StatusDormant)
	blocker := mustCreateBud(t, s, "open blocker", types.StatusBudding)
	blocked := mustCreateBud(t, s, "blocked", types.StatusDormant)
	mustAddBlocks(t, s, blocked.ID, blocker.ID)

	doneBlocker := mustCreateBud(t, s, "done blocker", types.StatusBloomed)
	cleared := mustCreateBud(t, s, "cleared", types.StatusDormant)
	mustAddBlocks(t, s, cleared.ID, doneBlocker.ID)

	mulchBlocker := mustCreateBud(t, s, "mulched blocker", types.StatusMulch)
	clearedByMulch := mustCreateBud(t, s, "cleared by mulch", types.StatusDormant)
	mustAddBlocks(t, s, clearedByMulch.ID, mulchBlocker.ID)

	actionable, err := s.ActionableBuds(ctx)
	if err != nil {
		t.Fatalf("ActionableBuds: %v", err)
	}
	ids := map[int64]bool{}
	for _, b := range actionable {
		ids[b.ID] = true
	}

	if ids[seed.ID] {
		t.Error("seed bud must not be actionable")
	}
	if !ids[free.ID] {
		t.Error("free dormant bud must be actionable")
	}
	if !ids[blocker.ID] {
		t.Error("the blocker itself is budding and unblocked, must be actionable")
	}
	if ids[blocked.ID] {
		t.Error("bud with open blocker must not be actionable")
	}
	if !ids[cleared.ID] {
		t.Error("bud whose blocker bloomed must be actionable")
	}
	if !ids[clearedByMulch.ID] {
		t.Error("mulched blockers must not gate; mulch is terminal")
	}
}

func TestTransitiveChainClearsOneHop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	x := mustCreateBud(t, s, "x", types.StatusDormant)
	y := mustCreateBud(t, s, "y", types.StatusDormant)
	z := mustCreateBud(t, s, "z", types.StatusDormant)
	mustAddBlocks(t, s, y.ID, x.ID)
	mustAddBlocks(t, s, z.ID, y.ID)

	// Only x is actionable at first.
	actionable, err := s.ActionableBuds(ctx)
	if err != nil {
		t.Fatalf("ActionableBuds: %v", err)
	}
	if len(actionable) != 1 || actionable[0].ID != x.ID {
		t.Fatalf("want only x actionable, got %d", len(actionable))
	}

	// x blooms: y clears, z stays blocked by unfinished y.
	if _, err := s.TransitionBud(ctx, x.ID, types.StatusBudding); err != nil {
		t.Fatal(err)
	}
	if _, err := s.TransitionBud(ctx, x.ID, types.StatusBloomed); err != nil {
		t.Fatal(err)
	}
	actionable, err = s.ActionableBuds(ctx)
	if err != nil {
		t.Fatalf("ActionableBuds: %v", err)
	}
	if len(actionable) != 1 || actionable[0].ID != y.ID {
		t.Fatalf("want only y actionable after x blooms, got %d", len(actionable))
	}
}

func TestBlockedBuds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	blocker1 := mustCreateBud(t, s, "blocker one", types.StatusDormant)
	blocker2 := mustCreateBud(t, s, "blocker two", types.StatusDormant)
	doneBlocker := mustCreateBud(t, s, "finished blocker", types.StatusBloomed)
	blocked := mustCreateBud(t, s, "stuck", types.StatusDormant)
	mustAddBlocks(t, s, blocked.ID, blocker1.ID)
	mustAddBlocks(t, s, blocked.ID, blocker2.ID)
	mustAddBlocks(t, s, blocked.ID, doneBlocker.ID)

	out, err := s.BlockedBuds(ctx)
	if err != nil {
		t.Fatalf("BlockedBuds: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("blocked = %d, want 1", len(out))
	}
	if out[0].ID != blocked.ID {
		t.Errorf("wrong blocked bud: %d", out[0].ID)
	}
	// Only the unfinished blockers are listed.
	if len(out[0].BlockedBy) != 2 {
		t.Errorf("blockers = %d, want 2", len(out[0].BlockedBy))
	}
}

func TestDependencyEdgesCascadeOnDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateBud(t, s, "a", types.StatusDormant)
	b := mustCreateBud(t, s, "b", types.StatusDormant)
	mustAddBlocks(t, s, b.ID, a.ID)

	if err := s.DeleteBud(ctx, a.ID); err != nil {
		t.Fatalf("DeleteBud: %v", err)
	}
	deps, err := s.GetDependencies(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetDependencies: %v", err)
	}
	if len(deps) != 0 {
		t.Errorf("dangling edge survived blocker deletion: %+v", deps)
	}
	// b is actionable again.
	actionable, err := s.ActionableBuds(ctx)
	if err != nil {
		t.Fatalf("ActionableBuds: %v", err)
	}
	if len(actionable) != 1 || actionable[0].ID != b.ID {
		t.Errorf("b not actionable after blocker deleted")
	}
}
