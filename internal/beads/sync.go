package beads

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/grovecli/grove/internal/types"
)

// store is the slice of storage.Storage the syncer needs.
type store interface {
	GetBranch(ctx context.Context, id int64) (*types.Branch, error)
	GetBud(ctx context.Context, id int64) (*types.Bud, error)
	ListBuds(ctx context.Context, filter types.BudFilter) ([]*types.Bud, error)
	CreateBud(ctx context.Context, b *types.Bud) error
	TransitionBud(ctx context.Context, id int64, status types.BudStatus) (*types.Bud, error)
	MarkBeadSynced(ctx context.Context, budID int64, beadsID string, at time.Time) error
}

// CommandRunner executes an external tracker command in dir and
// returns its combined output. Tests inject a stub.
type CommandRunner func(ctx context.Context, dir, name string, args ...string) (string, error)

// ExecRunner is the production CommandRunner.
func ExecRunner(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// Syncer moves work between buds and a branch's linked beads repo.
type Syncer struct {
	store store
	run   CommandRunner
	now   func() time.Time
}

// NewSyncer returns a Syncer. A nil runner means real command
// execution.
func NewSyncer(s store, run CommandRunner) *Syncer {
	if run == nil {
		run = ExecRunner
	}
	return &Syncer{store: s, run: run, now: time.Now}
}

// linkedRepo loads the branch and resolves its beads directory.
func (s *Syncer) linkedRepo(ctx context.Context, branchID int64) (*types.Branch, string, error) {
	br, err := s.store.GetBranch(ctx, branchID)
	if err != nil {
		return nil, "", err
	}
	if br.BeadsRepo == "" {
		return nil, "", &types.ValidationError{Field: "beads_repo", Reason: fmt.Sprintf("branch %d is not linked to a beads repo", branchID)}
	}
	dir, err := ResolveDir(br.BeadsRepo)
	if err != nil {
		return nil, "", err
	}
	return br, dir, nil
}

// linkedBuds returns the branch's buds that came from beads, indexed
// by BeadsID.
func (s *Syncer) linkedBuds(ctx context.Context, branchID int64) ([]*types.Bud, map[string]*types.Bud, error) {
	yes := true
	buds, err := s.store.ListBuds(ctx, types.BudFilter{
		BranchID:    &branchID,
		HasBeadsID:  &yes,
		IncludeDone: true,
	})
	if err != nil {
		return nil, nil, err
	}
	byBeadsID := make(map[string]*types.Bud, len(buds))
	for _, b := range buds {
		byBeadsID[b.BeadsID] = b
	}
	return buds, byBeadsID, nil
}

// PullOptions controls an import.
type PullOptions struct {
	All    bool // include finished beads, not just open ones
	DryRun bool
}

// PullResult reports what an import did (or would do).
type PullResult struct {
	Dir         string
	Imported    []*types.Bud
	WouldImport []Bead // dry run only
	Skipped     int    // already linked
}

// Pull imports beads from the branch's linked repo as buds, deduped
// by BeadsID. Open beads only unless opts.All.
func (s *Syncer) Pull(ctx context.Context, branchID int64, opts PullOptions) (*PullResult, error) {
	_, dir, err := s.linkedRepo(ctx, branchID)
	if err != nil {
		return nil, err
	}
	all, err := ReadIssues(dir)
	if err != nil {
		return nil, err
	}
	candidates := all
	if !opts.All {
		candidates = FilterOpen(all)
	}

	_, existing, err := s.linkedBuds(ctx, branchID)
	if err != nil {
		return nil, err
	}

	result := &PullResult{Dir: dir}
	for _, bead := range candidates {
		if _, ok := existing[bead.ID]; ok {
			result.Skipped++
			continue
		}
		if opts.DryRun {
			result.WouldImport = append(result.WouldImport, bead)
			continue
		}
		bud, err := s.importBead(ctx, branchID, bead)
		if err != nil {
			return nil, fmt.Errorf("import bead %s: %w", bead.ID, err)
		}
		result.Imported = append(result.Imported, bud)
	}
	return result, nil
}

func (s *Syncer) importBead(ctx context.Context, branchID int64, bead Bead) (*types.Bud, error) {
	bud := &types.Bud{
		Title:       bead.Title,
		Description: bead.Description,
		BranchID:    &branchID,
		Status:      StatusToBud(bead.Status),
		Priority:    PriorityToBud(bead.Priority),
		Assignee:    bead.Assignee,
		BeadsID:     bead.ID,
	}
	if err := s.store.CreateBud(ctx, bud); err != nil {
		return nil, err
	}
	if err := s.store.MarkBeadSynced(ctx, bud.ID, bead.ID, s.now().UTC()); err != nil {
		return nil, err
	}
	return bud, nil
}

// PushResult reports an export.
type PushResult struct {
	Dir      string
	Pushed   []int64
	Commands [][]string // dry run only
	Missing  []int64    // requested ids not on the branch
	Skipped  int        // already linked to a bead
	Errors   map[int64]error
}

// Push exports buds as beads issues by invoking the tracker CLI once
// per bud. With explicit budIDs only those are pushed; otherwise all
// unlinked seed and budding buds on the branch go.
func (s *Syncer) Push(ctx context.Context, branchID int64, budIDs []int64, dryRun bool) (*PushResult, error) {
	_, dir, err := s.linkedRepo(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("beads directory not found: %s", dir)
	}

	result := &PushResult{Dir: dir, Errors: map[int64]error{}}

	var buds []*types.Bud
	if len(budIDs) > 0 {
		for _, id := range budIDs {
			b, err := s.store.GetBud(ctx, id)
			if err != nil || b.BranchID == nil || *b.BranchID != branchID {
				result.Missing = append(result.Missing, id)
				continue
			}
			buds = append(buds, b)
		}
	} else {
		all, err := s.store.ListBuds(ctx, types.BudFilter{BranchID: &branchID})
		if err != nil {
			return nil, err
		}
		for _, b := range all {
			if b.Status == types.StatusSeed || b.Status == types.StatusBudding {
				buds = append(buds, b)
			}
		}
	}

	for _, bud := range buds {
		if bud.BeadsID != "" {
			result.Skipped++
			continue
		}
		args := s.createArgs(dir, bud)
		if dryRun {
			result.Commands = append(result.Commands, append([]string{"bd"}, args...))
			continue
		}
		if _, err := s.run(ctx, filepath.Dir(dir), "bd", args...); err != nil {
			result.Errors[bud.ID] = err
			continue
		}
		result.Pushed = append(result.Pushed, bud.ID)
	}
	return result, nil
}

func (s *Syncer) createArgs(dir string, bud *types.Bud) []string {
	args := []string{
		"create",
		"--db", filepath.Join(dir, "beads.db"),
		"--title", bud.Title,
		"--priority", strconv.Itoa(BudPriorityToBead(bud.Priority)),
		"--type", "task",
	}
	if bud.Description != "" {
		args = append(args, "--description", bud.Description)
	}
	note := fmt.Sprintf("Imported from grove bud gv-%d", bud.ID)
	if bud.Context != "" {
		note += fmt.Sprintf(" (context: %s)", bud.Context)
	}
	return append(args, "--notes", note)
}

// StatusUpdate records one bud whose status followed its bead.
type StatusUpdate struct {
	BudID int64
	From  types.BudStatus
	To    types.BudStatus
}

// SyncResult reports a bidirectional sync.
type SyncResult struct {
	Dir            string
	Pulled         []*types.Bud
	Updated        []StatusUpdate
	PushCandidates []*types.Bud
	WouldPull      []Bead         // dry run only
	WouldUpdate    []StatusUpdate // dry run only
}

// Sync pulls new open beads, follows bead status changes on already
// linked buds, and reports unlinked buds as push candidates.
func (s *Syncer) Sync(ctx context.Context, branchID int64, dryRun bool) (*SyncResult, error) {
	_, dir, err := s.linkedRepo(ctx, branchID)
	if err != nil {
		return nil, err
	}
	all, err := ReadIssues(dir)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Bead, len(all))
	for _, b := range all {
		byID[b.ID] = b
	}

	linked, linkedByBeadsID, err := s.linkedBuds(ctx, branchID)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Dir: dir}

	// Phase 1: pull open beads not yet imported.
	for _, bead := range FilterOpen(all) {
		if _, ok := linkedByBeadsID[bead.ID]; ok {
			continue
		}
		if dryRun {
			result.WouldPull = append(result.WouldPull, bead)
			continue
		}
		bud, err := s.importBead(ctx, branchID, bead)
		if err != nil {
			return nil, fmt.Errorf("import bead %s: %w", bead.ID, err)
		}
		result.Pulled = append(result.Pulled, bud)
	}

	// Phase 2: follow status changes on linked buds.
	for _, bud := range linked {
		bead, ok := byID[bud.BeadsID]
		if !ok {
			continue // orphaned link, surfaced by Status
		}
		want := StatusToBud(bead.Status)
		if bud.Status == want {
			continue
		}
		update := StatusUpdate{BudID: bud.ID, From: bud.Status, To: want}
		if dryRun {
			result.WouldUpdate = append(result.WouldUpdate, update)
			continue
		}
		if err := s.follow(ctx, bud, want); err != nil {
			return nil, fmt.Errorf("sync bud %d: %w", bud.ID, err)
		}
		result.Updated = append(result.Updated, update)
	}

	// Phase 3: unlinked workable buds are push candidates.
	allBuds, err := s.store.ListBuds(ctx, types.BudFilter{BranchID: &branchID})
	if err != nil {
		return nil, err
	}
	for _, b := range allBuds {
		if b.BeadsID == "" && (b.Status == types.StatusSeed || b.Status == types.StatusBudding) {
			result.PushCandidates = append(result.PushCandidates, b)
		}
	}
	return result, nil
}

// follow transitions a bud to the bead's status, routing through
// budding when the lifecycle forbids the direct step.
func (s *Syncer) follow(ctx context.Context, bud *types.Bud, want types.BudStatus) error {
	if bud.Status == types.StatusSeed && want == types.StatusBloomed {
		if _, err := s.store.TransitionBud(ctx, bud.ID, types.StatusBudding); err != nil {
			return err
		}
	}
	if _, err := s.store.TransitionBud(ctx, bud.ID, want); err != nil {
		return err
	}
	return s.store.MarkBeadSynced(ctx, bud.ID, bud.BeadsID, s.now().UTC())
}

// RepoStatus is the sync health of a branch's linked repo.
type RepoStatus struct {
	Dir           string
	OpenBeads     int
	TotalBeads    int
	TotalBuds     int
	LinkedBuds    int
	UnlinkedBuds  int          // workable buds with no bead
	StaleBuds     []*types.Bud // synced more than a day ago
	OrphanedBuds  []*types.Bud // bead no longer in the repo
	Unimported    []Bead       // open beads with no bud
}

// Status surveys sync health without changing anything.
func (s *Syncer) Status(ctx context.Context, branchID int64) (*RepoStatus, error) {
	_, dir, err := s.linkedRepo(ctx, branchID)
	if err != nil {
		return nil, err
	}
	all, err := ReadIssues(dir)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Bead, len(all))
	for _, b := range all {
		byID[b.ID] = b
	}
	open := FilterOpen(all)

	allBuds, err := s.store.ListBuds(ctx, types.BudFilter{BranchID: &branchID, IncludeDone: true})
	if err != nil {
		return nil, err
	}

	status := &RepoStatus{
		Dir:        dir,
		OpenBeads:  len(open),
		TotalBeads: len(all),
		TotalBuds:  len(allBuds),
	}

	staleCutoff := s.now().UTC().Add(-24 * time.Hour)
	imported := map[string]bool{}
	for _, b := range allBuds {
		if b.BeadsID == "" {
			if b.Status == types.StatusSeed || b.Status == types.StatusBudding {
				status.UnlinkedBuds++
			}
			continue
		}
		status.LinkedBuds++
		imported[b.BeadsID] = true
		if b.BeadsSyncedAt != nil && b.BeadsSyncedAt.Before(staleCutoff) {
			status.StaleBuds = append(status.StaleBuds, b)
		}
		if _, ok := byID[b.BeadsID]; !ok {
			status.OrphanedBuds = append(status.OrphanedBuds, b)
		}
	}
	for _, bead := range open {
		if !imported[bead.ID] {
			status.Unimported = append(status.Unimported, bead)
		}
	}
	return status, nil
}
