package grove_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/grovecli/grove"
)

func TestOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "grove.db")

	ctx := context.Background()
	store, err := grove.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	bud := &grove.Bud{Title: "water the ferns"}
	bud.SetDefaults()
	if err := store.CreateBud(ctx, bud); err != nil {
		t.Fatalf("CreateBud failed: %v", err)
	}
	if bud.Status != grove.StatusSeed {
		t.Errorf("new bud status = %q, want %q", bud.Status, grove.StatusSeed)
	}

	got, err := store.GetBud(ctx, bud.ID)
	if err != nil {
		t.Fatalf("GetBud failed: %v", err)
	}
	if got.Title != "water the ferns" {
		t.Errorf("GetBud title = %q", got.Title)
	}
}

func TestOpenInMemory(t *testing.T) {
	ctx := context.Background()
	store, err := grove.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer store.Close()

	if _, err := store.GetBud(ctx, 9999); err == nil {
		t.Error("expected not-found for missing bud")
	}
}

// Test that exported constants have correct values
func TestConstants(t *testing.T) {
	if grove.StatusSeed != "seed" {
		t.Errorf("StatusSeed = %q, want %q", grove.StatusSeed, "seed")
	}
	if grove.StatusDormant != "dormant" {
		t.Errorf("StatusDormant = %q, want %q", grove.StatusDormant, "dormant")
	}
	if grove.StatusBudding != "budding" {
		t.Errorf("StatusBudding = %q, want %q", grove.StatusBudding, "budding")
	}
	if grove.StatusBloomed != "bloomed" {
		t.Errorf("StatusBloomed = %q, want %q", grove.StatusBloomed, "bloomed")
	}
	if grove.StatusMulch != "mulch" {
		t.Errorf("StatusMulch = %q, want %q", grove.StatusMulch, "mulch")
	}

	if grove.DepBlocks != "blocks" {
		t.Errorf("DepBlocks = %q, want %q", grove.DepBlocks, "blocks")
	}
	if grove.DepRelated != "related" {
		t.Errorf("DepRelated = %q, want %q", grove.DepRelated, "related")
	}
	if grove.DepSubtask != "subtask" {
		t.Errorf("DepSubtask = %q, want %q", grove.DepSubtask, "subtask")
	}
}
