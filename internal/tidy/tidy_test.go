package tidy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovecli/grove/internal/storage/sqlite"
	"github.com/grovecli/grove/internal/types"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), t.TempDir()+"/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedCrowdedBranch creates one trunk with a branch carrying n unfinished
// buds plus one finished bud, so the branch holds n+1 direct children.
func seedCrowdedBranch(t *testing.T, s *sqlite.Store, n int) *types.Branch {
	t.Helper()
	ctx := context.Background()
	trunk := &types.Trunk{Title: "big effort"}
	require.NoError(t, s.CreateTrunk(ctx, trunk))
	branch := &types.Branch{Title: "crowded", TrunkID: &trunk.ID}
	require.NoError(t, s.CreateBranch(ctx, branch))
	for i := 0; i < n; i++ {
		b := &types.Bud{Title: "work item", BranchID: &branch.ID}
		require.NoError(t, s.CreateBud(ctx, b))
	}
	done := &types.Bud{Title: "finished", BranchID: &branch.ID}
	require.NoError(t, s.CreateBud(ctx, done))
	_, err := s.TransitionBud(ctx, done.ID, types.StatusBudding)
	require.NoError(t, err)
	_, err = s.TransitionBud(ctx, done.ID, types.StatusBloomed)
	require.NoError(t, err)
	return branch
}

func TestScanCleanStore(t *testing.T) {
	s := newTestStore(t)
	seedCrowdedBranch(t, s, 3) // 4 direct buds, well under the default of 10

	report, err := NewScanner(s).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Findings)
	assert.Equal(t, DefaultBudsPerBranch, report.Thresholds.BudsPerBranch)
}

func TestScanFlagsCrowdedBranch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	branch := seedCrowdedBranch(t, s, 11)

	report, err := NewScanner(s).Scan(ctx)
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)
	f := report.Findings[0]
	assert.Equal(t, FindingTooManyBuds, f.Kind)
	assert.Equal(t, branch.ID, f.ItemID)
	// Every direct child counts, finished buds included: 11 unfinished
	// plus the bloomed one.
	assert.Equal(t, 12, f.Count)
}

func TestScanHonorsStoredThresholds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCrowdedBranch(t, s, 5)

	require.NoError(t, s.SetTidyOption(ctx, OptionBudsPerBranch, 4))
	report, err := NewScanner(s).Scan(ctx)
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, 4, report.Findings[0].Threshold)
}

func TestScanIsReadOnlyExceptSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCrowdedBranch(t, s, 11)

	before, err := s.Statistics(ctx)
	require.NoError(t, err)
	_, err = NewScanner(s).Scan(ctx)
	require.NoError(t, err)
	after, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "scan mutated bud data")

	// Exactly one tidy_scan summary event, recorded against the store.
	events, err := s.GetEvents(ctx, types.EventFilter{EventType: types.EventTidyScan})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, types.ItemGrove, events[0].ItemType)
	assert.Equal(t, int64(0), events[0].ItemID)
}

func TestScanDeterministic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCrowdedBranch(t, s, 11)
	seedCrowdedBranch(t, s, 12)

	first, err := NewScanner(s).Scan(ctx)
	require.NoError(t, err)
	second, err := NewScanner(s).Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Findings, second.Findings)
}

func TestFromConfigDefaults(t *testing.T) {
	th := FromConfig(map[string]int{OptionFruitsPerTrunk: 3})
	assert.Equal(t, 3, th.FruitsPerTrunk)
	assert.Equal(t, DefaultBranchesPerTrunk, th.BranchesPerTrunk)
	assert.Equal(t, DefaultBudsPerBranch, th.BudsPerBranch)
}
