package sqlite

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/grovecli/grove/internal/storage"
	"github.com/grovecli/grove/internal/types"
)

func TestOpenCreatesDatabase(t *testing.T) {
	dbPath := t.TempDir() + "/nested/dir/grove.db"
	s, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q", s.Path())
	}
}

func TestOpenIsIdempotentOnSchema(t *testing.T) {
	dbPath := t.TempDir() + "/grove.db"
	ctx := context.Background()

	s1, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	g := &types.Grove{Name: "persisted"}
	if err := s1.CreateGrove(ctx, g); err != nil {
		t.Fatalf("CreateGrove: %v", err)
	}
	s1.Close()

	// Reopening must not clobber existing data.
	s2, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s2.Close()
	got, err := s2.GetGroveByName(ctx, "persisted")
	if err != nil {
		t.Fatalf("GetGroveByName: %v", err)
	}
	if got.ID != g.ID {
		t.Errorf("grove lost across reopen")
	}
}

func TestCloseTwice(t *testing.T) {
	s := newTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestGroveNameUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateGrove(ctx, &types.Grove{Name: "Health"}); err != nil {
		t.Fatalf("CreateGrove: %v", err)
	}
	err := s.CreateGrove(ctx, &types.Grove{Name: "Health"})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate name = %v, want ErrConflict", err)
	}
}

func TestAppendEventValidatesTarget(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.AppendEvent(ctx, &types.ActivityEvent{
		ItemType: types.ItemBud, ItemID: 999, EventType: types.EventLog, Content: "note",
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	bud := mustCreateBud(t, s, "real", "")
	e := &types.ActivityEvent{ItemType: types.ItemBud, ItemID: bud.ID, EventType: types.EventLog, Content: "note"}
	if err := s.AppendEvent(ctx, e); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if e.ID == 0 || e.CreatedAt.IsZero() {
		t.Errorf("event not stamped: %+v", e)
	}
}

func TestGetEventsFilterAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bud := mustCreateBud(t, s, "busy", types.StatusBudding)

	events, err := s.GetEvents(ctx, types.EventFilter{ItemType: types.ItemBud, ItemID: bud.ID})
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	// created + status_changed
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	// Newest first.
	if events[0].EventType != types.EventStatusChanged {
		t.Errorf("order wrong: first = %s", events[0].EventType)
	}

	limited, err := s.GetEvents(ctx, types.EventFilter{Limit: 1})
	if err != nil {
		t.Fatalf("GetEvents(limit): %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d", len(limited))
	}
}

func TestTidyConfig(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cfg, err := s.GetTidyConfig(ctx)
	if err != nil {
		t.Fatalf("GetTidyConfig: %v", err)
	}
	if len(cfg) != 0 {
		t.Errorf("fresh store has stored thresholds: %v", cfg)
	}

	if err := s.SetTidyOption(ctx, TidyBudsPerBranch, 15); err != nil {
		t.Fatalf("SetTidyOption: %v", err)
	}
	if err := s.SetTidyOption(ctx, TidyBudsPerBranch, 20); err != nil {
		t.Fatalf("SetTidyOption (overwrite): %v", err)
	}
	cfg, err = s.GetTidyConfig(ctx)
	if err != nil {
		t.Fatalf("GetTidyConfig: %v", err)
	}
	if cfg[TidyBudsPerBranch] != 20 {
		t.Errorf("threshold = %d, want 20", cfg[TidyBudsPerBranch])
	}

	var verr *types.ValidationError
	if err := s.SetTidyOption(ctx, "bogus", 5); !errors.As(err, &verr) {
		t.Errorf("unknown option = %v, want ValidationError", err)
	}
	if err := s.SetTidyOption(ctx, TidyBudsPerBranch, 0); !errors.As(err, &verr) {
		t.Errorf("zero threshold = %v, want ValidationError", err)
	}
}

func TestHabits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	h := &types.Habit{Title: "morning run", Frequency: types.FreqThriceAWeek}
	if err := s.CreateHabit(ctx, h); err != nil {
		t.Fatalf("CreateHabit: %v", err)
	}

	log, err := s.LogHabit(ctx, h.ID, "5k, easy pace")
	if err != nil {
		t.Fatalf("LogHabit: %v", err)
	}
	if log.ID == 0 || log.CompletedAt.IsZero() {
		t.Errorf("log not stamped: %+v", log)
	}

	logs, err := s.GetHabitLog(ctx, h.ID, log.CompletedAt.Add(-time.Minute))
	if err != nil {
		t.Fatalf("GetHabitLog: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("logs = %d, want 1", len(logs))
	}

	if err := s.SetHabitActive(ctx, h.ID, false); err != nil {
		t.Fatalf("SetHabitActive: %v", err)
	}
	active, err := s.ListHabits(ctx, false)
	if err != nil {
		t.Fatalf("ListHabits: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("paused habit still listed as active")
	}
}
