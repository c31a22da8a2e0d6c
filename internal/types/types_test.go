package types

import (
	"strings"
	"testing"
	"time"
)

func TestBudValidation(t *testing.T) {
	negative := -5
	tests := []struct {
		name    string
		bud     Bud
		wantErr bool
		field   string
	}{
		{
			name: "valid bud",
			bud: Bud{
				Title:    "Water the ferns",
				Status:   StatusSeed,
				Priority: PriorityMedium,
			},
			wantErr: false,
		},
		{
			name:    "missing title",
			bud:     Bud{Status: StatusSeed, Priority: PriorityMedium},
			wantErr: true,
			field:   "title",
		},
		{
			name: "title too long",
			bud: Bud{
				Title:    strings.Repeat("x", 501),
				Status:   StatusSeed,
				Priority: PriorityMedium,
			},
			wantErr: true,
			field:   "title",
		},
		{
			name:    "invalid status",
			bud:     Bud{Title: "t", Status: "wilted", Priority: PriorityMedium},
			wantErr: true,
			field:   "status",
		},
		{
			name:    "invalid priority",
			bud:     Bud{Title: "t", Status: StatusSeed, Priority: "critical"},
			wantErr: true,
			field:   "priority",
		},
		{
			name:    "invalid energy level",
			bud:     Bud{Title: "t", Status: StatusSeed, Priority: PriorityLow, EnergyLevel: "cosmic"},
			wantErr: true,
			field:   "energy_level",
		},
		{
			name:    "negative estimate",
			bud:     Bud{Title: "t", Status: StatusSeed, Priority: PriorityLow, EstimatedMinutes: &negative},
			wantErr: true,
			field:   "estimated_minutes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bud.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Validate() returned %T, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Validate() field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestBudSetDefaults(t *testing.T) {
	b := Bud{Title: "t"}
	b.SetDefaults()
	if b.Status != StatusSeed {
		t.Errorf("default status = %s, want %s", b.Status, StatusSeed)
	}
	if b.Priority != PriorityMedium {
		t.Errorf("default priority = %s, want %s", b.Priority, PriorityMedium)
	}

	// Defaults never clobber explicit values.
	b2 := Bud{Title: "t", Status: StatusBudding, Priority: PriorityUrgent}
	b2.SetDefaults()
	if b2.Status != StatusBudding || b2.Priority != PriorityUrgent {
		t.Errorf("SetDefaults overwrote explicit values: %s/%s", b2.Status, b2.Priority)
	}
}

func TestBudStatusTerminal(t *testing.T) {
	for _, s := range []BudStatus{StatusSeed, StatusDormant, StatusBudding} {
		if s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = true, want false", s)
		}
	}
	for _, s := range []BudStatus{StatusBloomed, StatusMulch} {
		if !s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = false, want true", s)
		}
	}
}

func TestDependencyValidation(t *testing.T) {
	if err := (&Dependency{BudID: 1, DependsOnID: 1, Type: DepBlocks}).Validate(); err == nil {
		t.Error("self-dependency passed validation")
	}
	if err := (&Dependency{BudID: 1, DependsOnID: 2, Type: "tangled"}).Validate(); err == nil {
		t.Error("unknown dependency type passed validation")
	}
	if err := (&Dependency{BudID: 1, DependsOnID: 2, Type: DepRelated}).Validate(); err != nil {
		t.Errorf("valid edge rejected: %v", err)
	}
}

func TestDependencyTypeGating(t *testing.T) {
	if !DepBlocks.GatesActionability() {
		t.Error("blocks edges must gate actionability")
	}
	if DepRelated.GatesActionability() || DepSubtask.GatesActionability() {
		t.Error("related/subtask edges must not gate actionability")
	}
}

func TestGroveValidation(t *testing.T) {
	g := Grove{Name: "Health", Color: "#86b300"}
	if err := g.Validate(); err != nil {
		t.Fatalf("valid grove rejected: %v", err)
	}
	g.Color = "green"
	if err := g.Validate(); err == nil {
		t.Error("bad hex color passed validation")
	}
	g = Grove{}
	if err := g.Validate(); err == nil {
		t.Error("nameless grove passed validation")
	}
}

func TestPollenValidation(t *testing.T) {
	p := Pollen{Title: "Maybe fix the gate", Confidence: 0.4, Status: PollenPending}
	if err := p.Validate(); err != nil {
		t.Fatalf("valid pollen rejected: %v", err)
	}
	p.Confidence = 1.5
	if err := p.Validate(); err == nil {
		t.Error("out-of-range confidence passed validation")
	}
}

func TestDewExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	d := Dew{Content: "c", Status: DewFresh, ExpiresAt: &past}
	if !d.IsExpired(now) {
		t.Error("fresh dew past expiry should be expired")
	}
	d.ExpiresAt = &future
	if d.IsExpired(now) {
		t.Error("fresh dew before expiry should not be expired")
	}
	d.ExpiresAt = nil
	if d.IsExpired(now) {
		t.Error("dew without expiry should never expire")
	}
	d.Status = DewAbsorbed
	d.ExpiresAt = &past
	if d.IsExpired(now) {
		t.Error("absorbed dew should never report expired")
	}
}

func TestDewItemPairValidation(t *testing.T) {
	it := ItemBud
	id := int64(7)
	ok := Dew{Content: "c", Status: DewFresh, ItemType: &it, ItemID: &id}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid attached dew rejected: %v", err)
	}
	half := Dew{Content: "c", Status: DewFresh, ItemType: &it}
	if err := half.Validate(); err == nil {
		t.Error("item_type without item_id passed validation")
	}
}

func TestEventValidation(t *testing.T) {
	e := ActivityEvent{ItemType: ItemBud, ItemID: 1, EventType: EventStatusChanged}
	if err := e.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}
	e.EventType = "pruned"
	if err := e.Validate(); err == nil {
		t.Error("unknown event type passed validation")
	}
	e = ActivityEvent{ItemType: "weed", ItemID: 1, EventType: EventLog}
	if err := e.Validate(); err == nil {
		t.Error("unknown item type passed validation")
	}
}
