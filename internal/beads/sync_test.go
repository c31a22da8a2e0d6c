package beads

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grovecli/grove/internal/storage/sqlite"
	"github.com/grovecli/grove/internal/types"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), t.TempDir()+"/test.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func linkedBranch(t *testing.T, s *sqlite.Store, repo string) int64 {
	t.Helper()
	ctx := context.Background()
	br := &types.Branch{Title: "sync target"}
	if err := s.CreateBranch(ctx, br); err != nil {
		t.Fatal(err)
	}
	if err := s.LinkBeadsRepo(ctx, br.ID, repo); err != nil {
		t.Fatal(err)
	}
	return br.ID
}

func rewriteIssues(t *testing.T, repo string, lines ...string) {
	t.Helper()
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	path := filepath.Join(repo, ".beads", "issues.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPullImportsAndDedups(t *testing.T) {
	repo := writeRepo(t,
		`{"id":"bd-1","title":"fix gate","status":"open","priority":1}`,
		`{"id":"bd-2","title":"water roses","status":"in_progress","priority":3}`,
		`{"id":"bd-3","title":"old work","status":"closed","priority":2}`,
	)
	s := newTestStore(t)
	branchID := linkedBranch(t, s, repo)
	ctx := context.Background()

	syncer := NewSyncer(s, nil)
	result, err := syncer.Pull(ctx, branchID, PullOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Imported) != 2 {
		t.Fatalf("imported %d, want 2 (closed bead excluded)", len(result.Imported))
	}

	got, err := s.GetBudByBeadsID(ctx, branchID, "bd-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.StatusSeed || got.Priority != types.PriorityUrgent {
		t.Errorf("bd-1 mapped to %s/%s", got.Status, got.Priority)
	}
	if got.BeadsSyncedAt == nil {
		t.Error("BeadsSyncedAt not stamped")
	}

	// Second pull finds nothing new.
	again, err := syncer.Pull(ctx, branchID, PullOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Imported) != 0 || again.Skipped != 2 {
		t.Errorf("repull imported %d skipped %d", len(again.Imported), again.Skipped)
	}

	// All=true picks up the closed bead as bloomed.
	withAll, err := syncer.Pull(ctx, branchID, PullOptions{All: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(withAll.Imported) != 1 || withAll.Imported[0].Status != types.StatusBloomed {
		t.Errorf("All pull: %+v", withAll.Imported)
	}
}

func TestPullDryRun(t *testing.T) {
	repo := writeRepo(t, `{"id":"bd-1","title":"fix gate","status":"open"}`)
	s := newTestStore(t)
	branchID := linkedBranch(t, s, repo)

	result, err := NewSyncer(s, nil).Pull(context.Background(), branchID, PullOptions{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.WouldImport) != 1 || len(result.Imported) != 0 {
		t.Errorf("dry run: %+v", result)
	}
	if _, err := s.GetBudByBeadsID(context.Background(), branchID, "bd-1"); err == nil {
		t.Error("dry run created a bud")
	}
}

func TestPullRequiresLink(t *testing.T) {
	s := newTestStore(t)
	br := &types.Branch{Title: "unlinked"}
	if err := s.CreateBranch(context.Background(), br); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSyncer(s, nil).Pull(context.Background(), br.ID, PullOptions{}); err == nil {
		t.Error("pull on unlinked branch accepted")
	}
}

func TestPushInvokesTracker(t *testing.T) {
	repo := writeRepo(t)
	s := newTestStore(t)
	branchID := linkedBranch(t, s, repo)
	ctx := context.Background()

	bud := &types.Bud{Title: "prune hedges", BranchID: &branchID, Priority: types.PriorityHigh}
	if err := s.CreateBud(ctx, bud); err != nil {
		t.Fatal(err)
	}

	var calls [][]string
	runner := func(_ context.Context, dir, name string, args ...string) (string, error) {
		calls = append(calls, append([]string{name}, args...))
		return "created bd-99", nil
	}

	result, err := NewSyncer(s, runner).Push(ctx, branchID, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Pushed) != 1 || result.Pushed[0] != bud.ID {
		t.Fatalf("pushed: %v", result.Pushed)
	}
	if len(calls) != 1 {
		t.Fatalf("runner called %d times", len(calls))
	}
	cmd := calls[0]
	if cmd[0] != "bd" || cmd[1] != "create" {
		t.Errorf("command: %v", cmd)
	}
	joined := ""
	for _, a := range cmd {
		joined += a + " "
	}
	for _, want := range []string{"--title", "prune hedges", "--priority", "2"} {
		found := false
		for _, a := range cmd {
			if a == want {
				found = true
			}
		}
		if !found {
			t.Errorf("command missing %q: %s", want, joined)
		}
	}
}

func TestPushDryRun(t *testing.T) {
	repo := writeRepo(t)
	s := newTestStore(t)
	branchID := linkedBranch(t, s, repo)
	ctx := context.Background()

	bud := &types.Bud{Title: "prune hedges", BranchID: &branchID}
	if err := s.CreateBud(ctx, bud); err != nil {
		t.Fatal(err)
	}

	runner := func(_ context.Context, _, _ string, _ ...string) (string, error) {
		t.Error("runner invoked during dry run")
		return "", nil
	}
	result, err := NewSyncer(s, runner).Push(ctx, branchID, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Commands) != 1 || len(result.Pushed) != 0 {
		t.Errorf("dry run: %+v", result)
	}
}

func TestPushSkipsLinkedAndFlagsMissing(t *testing.T) {
	repo := writeRepo(t, `{"id":"bd-1","title":"fix gate","status":"open"}`)
	s := newTestStore(t)
	branchID := linkedBranch(t, s, repo)
	ctx := context.Background()
	syncer := NewSyncer(s, nil)

	if _, err := syncer.Pull(ctx, branchID, PullOptions{}); err != nil {
		t.Fatal(err)
	}
	linked, err := s.GetBudByBeadsID(ctx, branchID, "bd-1")
	if err != nil {
		t.Fatal(err)
	}

	result, err := syncer.Push(ctx, branchID, []int64{linked.ID, 9999}, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
	if len(result.Missing) != 1 || result.Missing[0] != 9999 {
		t.Errorf("missing = %v", result.Missing)
	}
}

func TestSyncFollowsBeadStatus(t *testing.T) {
	repo := writeRepo(t, `{"id":"bd-1","title":"fix gate","status":"open"}`)
	s := newTestStore(t)
	branchID := linkedBranch(t, s, repo)
	ctx := context.Background()
	syncer := NewSyncer(s, nil)

	first, err := syncer.Sync(ctx, branchID, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Pulled) != 1 {
		t.Fatalf("pulled %d, want 1", len(first.Pulled))
	}

	// The bead closes upstream; the bud should bloom on the next sync
	// even though seeds cannot bloom in one step.
	rewriteIssues(t, repo, `{"id":"bd-1","title":"fix gate","status":"closed"}`)

	second, err := syncer.Sync(ctx, branchID, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Updated) != 1 || second.Updated[0].To != types.StatusBloomed {
		t.Fatalf("updated: %+v", second.Updated)
	}

	got, err := s.GetBudByBeadsID(ctx, branchID, "bd-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.StatusBloomed {
		t.Errorf("status = %s, want bloomed", got.Status)
	}
	if got.CompletedAt == nil || got.StartedAt == nil {
		t.Error("milestones not stamped on followed transition")
	}
}

func TestSyncReportsPushCandidates(t *testing.T) {
	repo := writeRepo(t)
	s := newTestStore(t)
	branchID := linkedBranch(t, s, repo)
	ctx := context.Background()

	bud := &types.Bud{Title: "local only", BranchID: &branchID}
	if err := s.CreateBud(ctx, bud); err != nil {
		t.Fatal(err)
	}

	result, err := NewSyncer(s, nil).Sync(ctx, branchID, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.PushCandidates) != 1 || result.PushCandidates[0].ID != bud.ID {
		t.Errorf("push candidates: %+v", result.PushCandidates)
	}
}

func TestStatusDetectsOrphansAndUnimported(t *testing.T) {
	repo := writeRepo(t,
		`{"id":"bd-1","title":"fix gate","status":"open"}`,
		`{"id":"bd-2","title":"new work","status":"open"}`,
	)
	s := newTestStore(t)
	branchID := linkedBranch(t, s, repo)
	ctx := context.Background()
	syncer := NewSyncer(s, nil)

	if _, err := syncer.Pull(ctx, branchID, PullOptions{}); err != nil {
		t.Fatal(err)
	}

	// bd-2 vanishes from the repo; its bud is now an orphaned link.
	rewriteIssues(t, repo,
		`{"id":"bd-1","title":"fix gate","status":"open"}`,
		`{"id":"bd-3","title":"newer work","status":"open"}`,
	)

	status, err := syncer.Status(ctx, branchID)
	if err != nil {
		t.Fatal(err)
	}
	if status.LinkedBuds != 2 {
		t.Errorf("linked = %d, want 2", status.LinkedBuds)
	}
	if len(status.OrphanedBuds) != 1 || status.OrphanedBuds[0].BeadsID != "bd-2" {
		t.Errorf("orphaned: %+v", status.OrphanedBuds)
	}
	if len(status.Unimported) != 1 || status.Unimported[0].ID != "bd-3" {
		t.Errorf("unimported: %+v", status.Unimported)
	}
}
