package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/grovecli/grove/internal/storage"
	"github.com/grovecli/grove/internal/types"
)

func TestSeedPollenAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &types.Pollen{Title: "book dentist appointment", Source: "assistant", Confidence: 0.85}
	if err := s.CreatePollen(ctx, p); err != nil {
		t.Fatalf("CreatePollen: %v", err)
	}

	bud, err := s.SeedPollen(ctx, p.ID, nil)
	if err != nil {
		t.Fatalf("SeedPollen: %v", err)
	}
	if bud.Title != p.Title {
		t.Errorf("bud title = %q, want pollen title", bud.Title)
	}
	if bud.Status != types.StatusSeed {
		t.Errorf("seeded bud status = %s, want seed", bud.Status)
	}

	got, err := s.GetPollen(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPollen: %v", err)
	}
	if got.Status != types.PollenSeededOK {
		t.Errorf("pollen status = %s, want seeded", got.Status)
	}
	if got.BudID == nil || *got.BudID != bud.ID {
		t.Errorf("pollen bud link = %v, want %d", got.BudID, bud.ID)
	}
	if got.ProcessedAt == nil {
		t.Error("ProcessedAt not stamped")
	}

	// Re-processing terminal pollen conflicts.
	if _, err := s.SeedPollen(ctx, p.ID, nil); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("double seed = %v, want ErrConflict", err)
	}
	if err := s.RejectPollen(ctx, p.ID, "changed mind"); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("reject after seed = %v, want ErrConflict", err)
	}

	// The seeded bud carries both a created and a pollen_seeded event.
	events, err := s.GetEvents(ctx, types.EventFilter{ItemType: types.ItemBud, ItemID: bud.ID})
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("events = %d, want 2", len(events))
	}
}

func TestSeedPollenBadPlacementRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &types.Pollen{Title: "misplaced", Confidence: 0.5}
	if err := s.CreatePollen(ctx, p); err != nil {
		t.Fatalf("CreatePollen: %v", err)
	}
	missing := int64(404)
	_, err := s.SeedPollen(ctx, p.ID, &types.Bud{BranchID: &missing})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got, err := s.GetPollen(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPollen: %v", err)
	}
	if got.Status != types.PollenPending {
		t.Errorf("pollen flipped despite rollback: %s", got.Status)
	}
}

func TestRejectPollen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &types.Pollen{Title: "not worth it", Confidence: 0.2}
	if err := s.CreatePollen(ctx, p); err != nil {
		t.Fatalf("CreatePollen: %v", err)
	}
	if err := s.RejectPollen(ctx, p.ID, "low value"); err != nil {
		t.Fatalf("RejectPollen: %v", err)
	}
	got, err := s.GetPollen(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPollen: %v", err)
	}
	if got.Status != types.PollenRejected || got.RejectReason != "low value" {
		t.Errorf("rejection not persisted: %+v", got)
	}
}

func TestPollenConfidenceValidation(t *testing.T) {
	s := newTestStore(t)
	err := s.CreatePollen(context.Background(), &types.Pollen{Title: "t", Confidence: 1.5})
	var verr *types.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDewLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bud := mustCreateBud(t, s, "host dinner", types.StatusDormant)

	d := &types.Dew{Content: "guests prefer vegetarian", Source: "conversation"}
	if err := s.CreateDew(ctx, d); err != nil {
		t.Fatalf("CreateDew: %v", err)
	}

	absorbed, err := s.AbsorbDew(ctx, d.ID, types.ItemBud, bud.ID)
	if err != nil {
		t.Fatalf("AbsorbDew: %v", err)
	}
	if absorbed.Status != types.DewAbsorbed || absorbed.AbsorbedAt == nil {
		t.Errorf("absorb not recorded: %+v", absorbed)
	}

	// Non-fresh dew conflicts.
	if _, err := s.AbsorbDew(ctx, d.ID, types.ItemBud, bud.ID); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("double absorb = %v, want ErrConflict", err)
	}

	// The absorption left a dew_absorbed event on the bud.
	events, err := s.GetEvents(ctx, types.EventFilter{
		ItemType: types.ItemBud, ItemID: bud.ID, EventType: types.EventDewAbsorbed,
	})
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("dew_absorbed events = %d, want 1", len(events))
	}

	attached, err := s.ListDewForItem(ctx, types.ItemBud, bud.ID)
	if err != nil {
		t.Fatalf("ListDewForItem: %v", err)
	}
	if len(attached) != 1 {
		t.Errorf("attached dew = %d, want 1", len(attached))
	}
}

func TestEvaporateExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	expired := &types.Dew{Content: "old signal", ExpiresAt: &past}
	fresh := &types.Dew{Content: "current signal", ExpiresAt: &future}
	eternal := &types.Dew{Content: "no expiry"}
	for _, d := range []*types.Dew{expired, fresh, eternal} {
		if err := s.CreateDew(ctx, d); err != nil {
			t.Fatalf("CreateDew: %v", err)
		}
	}

	n, err := s.EvaporateExpired(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("EvaporateExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("evaporated = %d, want 1", n)
	}

	got, err := s.GetDew(ctx, expired.ID)
	if err != nil {
		t.Fatalf("GetDew: %v", err)
	}
	if got.Status != types.DewEvaporated {
		t.Errorf("expired dew status = %s", got.Status)
	}
	for _, id := range []int64{fresh.ID, eternal.ID} {
		got, err := s.GetDew(ctx, id)
		if err != nil {
			t.Fatalf("GetDew: %v", err)
		}
		if got.Status != types.DewFresh {
			t.Errorf("dew %d evaporated early: %s", id, got.Status)
		}
	}

	// Second sweep finds nothing: idempotent.
	n, err = s.EvaporateExpired(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("EvaporateExpired: %v", err)
	}
	if n != 0 {
		t.Errorf("second sweep evaporated %d", n)
	}
}

func TestDewOrphanedByDeletion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bud := mustCreateBud(t, s, "temp", "")
	it := types.ItemBud
	d := &types.Dew{Content: "attached", ItemType: &it, ItemID: &bud.ID}
	if err := s.CreateDew(ctx, d); err != nil {
		t.Fatalf("CreateDew: %v", err)
	}

	// Deleting the bud orphans the dew rather than deleting it.
	if err := s.DeleteBud(ctx, bud.ID); err != nil {
		t.Fatalf("DeleteBud: %v", err)
	}
	got, err := s.GetDew(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDew: %v", err)
	}
	if got.Status != types.DewFresh {
		t.Errorf("orphaned dew status = %s, want fresh", got.Status)
	}
}
