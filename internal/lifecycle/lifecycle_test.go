package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/grovecli/grove/internal/types"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from types.BudStatus
		to   types.BudStatus
		want bool
	}{
		{"seed to dormant", types.StatusSeed, types.StatusDormant, true},
		{"seed to budding", types.StatusSeed, types.StatusBudding, true},
		{"seed to bloomed forbidden", types.StatusSeed, types.StatusBloomed, false},
		{"seed to mulch", types.StatusSeed, types.StatusMulch, true},
		{"dormant to budding", types.StatusDormant, types.StatusBudding, true},
		{"dormant back to seed", types.StatusDormant, types.StatusSeed, true},
		{"budding to bloomed", types.StatusBudding, types.StatusBloomed, true},
		{"budding back to dormant", types.StatusBudding, types.StatusDormant, true},
		{"bloomed is terminal", types.StatusBloomed, types.StatusBudding, false},
		{"mulch is terminal", types.StatusMulch, types.StatusDormant, false},
		{"same state allowed", types.StatusBloomed, types.StatusBloomed, true},
		{"invalid target", types.StatusSeed, types.BudStatus("waiting"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestApplyStampsMilestones(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := &types.Bud{Title: "write report", Status: types.StatusSeed, Priority: types.PriorityMedium}

	if err := Apply(b, types.StatusDormant, now); err != nil {
		t.Fatalf("Apply(dormant): %v", err)
	}
	if b.ClarifiedAt == nil || !b.ClarifiedAt.Equal(now) {
		t.Fatalf("ClarifiedAt = %v, want %v", b.ClarifiedAt, now)
	}

	later := now.Add(time.Hour)
	if err := Apply(b, types.StatusBudding, later); err != nil {
		t.Fatalf("Apply(budding): %v", err)
	}
	if b.StartedAt == nil || !b.StartedAt.Equal(later) {
		t.Fatalf("StartedAt = %v, want %v", b.StartedAt, later)
	}
	// ClarifiedAt must survive re-entry into earlier states.
	if err := Apply(b, types.StatusDormant, later.Add(time.Hour)); err != nil {
		t.Fatalf("Apply(dormant again): %v", err)
	}
	if !b.ClarifiedAt.Equal(now) {
		t.Errorf("ClarifiedAt overwritten on re-entry: %v", b.ClarifiedAt)
	}

	done := later.Add(2 * time.Hour)
	if err := Apply(b, types.StatusBloomed, done); err != nil {
		t.Fatalf("Apply(bloomed): %v", err)
	}
	if b.CompletedAt == nil || !b.CompletedAt.Equal(done) {
		t.Fatalf("CompletedAt = %v, want %v", b.CompletedAt, done)
	}
}

func TestApplySameStateIsNoop(t *testing.T) {
	now := time.Now().UTC()
	stamp := now.Add(-time.Hour)
	b := &types.Bud{Title: "t", Status: types.StatusBloomed, Priority: types.PriorityLow, CompletedAt: &stamp, UpdatedAt: stamp}

	if err := Apply(b, types.StatusBloomed, now); err != nil {
		t.Fatalf("Apply(same state): %v", err)
	}
	if !b.CompletedAt.Equal(stamp) {
		t.Errorf("CompletedAt changed on no-op: %v", b.CompletedAt)
	}
	if !b.UpdatedAt.Equal(stamp) {
		t.Errorf("UpdatedAt changed on no-op: %v", b.UpdatedAt)
	}
}

func TestApplySeedToBloomedRejected(t *testing.T) {
	b := &types.Bud{Title: "t", Status: types.StatusSeed, Priority: types.PriorityMedium}
	err := Apply(b, types.StatusBloomed, time.Now())
	var terr *TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if b.Status != types.StatusSeed {
		t.Errorf("bud mutated on rejected transition: %s", b.Status)
	}
}

func TestApplyBuddingFromSeedStampsOnlyStarted(t *testing.T) {
	now := time.Now().UTC()
	b := &types.Bud{Title: "t", Status: types.StatusSeed, Priority: types.PriorityMedium}
	if err := Apply(b, types.StatusBudding, now); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if b.StartedAt == nil {
		t.Error("StartedAt not stamped")
	}
	// ClarifiedAt belongs to dormant alone; starting straight from seed
	// must not fake a clarification.
	if b.ClarifiedAt != nil {
		t.Errorf("ClarifiedAt stamped on budding: %v", b.ClarifiedAt)
	}
}
