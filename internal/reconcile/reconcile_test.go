package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

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

func TestSweepOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Minute)
	if err := s.CreateDew(ctx, &types.Dew{Content: "gone", ExpiresAt: &past}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateDew(ctx, &types.Dew{Content: "stays"}); err != nil {
		t.Fatal(err)
	}

	n, err := NewSweeper(s, 0).SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if n != 1 {
		t.Errorf("evaporated = %d, want 1", n)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- NewSweeper(s, 10*time.Millisecond).Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestTriageBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	keep := &types.Pollen{Title: "good idea", Confidence: 0.9}
	drop := &types.Pollen{Title: "noise", Confidence: 0.1}
	for _, p := range []*types.Pollen{keep, drop} {
		if err := s.CreatePollen(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	result := Triage(ctx, s, []TriageDecision{
		{PollenID: keep.ID, Accept: true},
		{PollenID: drop.ID, Accept: false, Reason: "not actionable"},
		{PollenID: 9999, Accept: true}, // missing: recorded, not fatal
	})

	if len(result.Seeded) != 1 || result.Seeded[0].Title != "good idea" {
		t.Errorf("seeded wrong: %+v", result.Seeded)
	}
	if len(result.Rejected) != 1 || result.Rejected[0] != drop.ID {
		t.Errorf("rejected wrong: %v", result.Rejected)
	}
	if len(result.Errors) != 1 {
		t.Errorf("errors = %d, want 1", len(result.Errors))
	}
}

func TestAutoTriage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	high := &types.Pollen{Title: "confident", Confidence: 0.95}
	low := &types.Pollen{Title: "uncertain", Confidence: 0.3}
	for _, p := range []*types.Pollen{high, low} {
		if err := s.CreatePollen(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	seeded, err := AutoTriage(ctx, s, 0.8)
	if err != nil {
		t.Fatalf("AutoTriage: %v", err)
	}
	if len(seeded) != 1 || seeded[0].Title != "confident" {
		t.Errorf("seeded wrong: %+v", seeded)
	}

	// The uncertain one stays pending for a human.
	pending, err := s.ListPollen(ctx, types.PollenPending)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != low.ID {
		t.Errorf("pending wrong: %+v", pending)
	}
}

func TestAutoTriageValidatesThreshold(t *testing.T) {
	s := newTestStore(t)
	if _, err := AutoTriage(context.Background(), s, 1.5); err == nil {
		t.Error("out-of-range threshold accepted")
	}
}
