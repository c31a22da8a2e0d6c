package sqlite

import (
	"context"
	"testing"

	"github.com/grovecli/grove/internal/storage"
	"github.com/grovecli/grove/internal/types"
)

// Compile-time check that Store satisfies the storage interface.
var _ storage.Storage = (*Store)(nil)

// newTestStore creates a store backed by a temp-dir database, cleaned up
// with the test.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := t.TempDir() + "/test.db"
	store, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// mustCreateBud inserts a bud with the given title and status, failing
// the test on error.
func mustCreateBud(t *testing.T, s *Store, title string, status types.BudStatus) *types.Bud {
	t.Helper()
	ctx := context.Background()
	b := &types.Bud{Title: title}
	if err := s.CreateBud(ctx, b); err != nil {
		t.Fatalf("failed to create bud %q: %v", title, err)
	}
	if status != "" && status != types.StatusSeed {
		// Route through the lifecycle so stamps stay consistent.
		steps := []types.BudStatus{status}
		if status == types.StatusBloomed {
			steps = []types.BudStatus{types.StatusBudding, types.StatusBloomed}
		}
		for _, st := range steps {
			var err error
			b, err = s.TransitionBud(ctx, b.ID, st)
			if err != nil {
				t.Fatalf("failed to transition bud %q to %s: %v", title, st, err)
			}
		}
	}
	return b
}

// mustAddBlocks creates a blocks edge from blocked to blocker.
func mustAddBlocks(t *testing.T, s *Store, blockedID, blockerID int64) {
	t.Helper()
	err := s.AddDependency(context.Background(), &types.Dependency{
		BudID: blockedID, DependsOnID: blockerID, Type: types.DepBlocks,
	})
	if err != nil {
		t.Fatalf("failed to add dependency %d -> %d: %v", blockedID, blockerID, err)
	}
}
