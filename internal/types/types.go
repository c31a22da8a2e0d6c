// Package types defines core data structures for the grove task engine.
package types

import (
	"fmt"
	"time"
)

// Grove is a life-domain container, the top of the hierarchy.
type Grove struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"` // hex, e.g. "#86b300"
	Icon        string    `json:"icon,omitempty"`
	SortOrder   int       `json:"sort_order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the grove for domain-constraint violations.
func (g *Grove) Validate() error {
	if g.Name == "" {
		return &ValidationError{Field: "name", Reason: "name is required"}
	}
	if len(g.Name) > 100 {
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("name must be 100 characters or less (got %d)", len(g.Name))}
	}
	if g.Color != "" && !validHexColor(g.Color) {
		return &ValidationError{Field: "color", Reason: fmt.Sprintf("invalid hex color: %s", g.Color)}
	}
	return nil
}

// Trunk is a strategic initiative. It may belong to a grove and may nest
// under a parent trunk; the parent relation must stay cycle-free.
type Trunk struct {
	ID          int64           `json:"id"`
	GroveID     *int64          `json:"grove_id,omitempty"`
	ParentID    *int64          `json:"parent_id,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Status      ContainerStatus `json:"status"`
	Priority    Priority        `json:"priority"`
	TargetDate  *time.Time      `json:"target_date,omitempty"`
	Labels      []string        `json:"labels,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Validate checks the trunk for domain-constraint violations.
func (t *Trunk) Validate() error {
	if t.Title == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	if len(t.Title) > 255 {
		return &ValidationError{Field: "title", Reason: fmt.Sprintf("title must be 255 characters or less (got %d)", len(t.Title))}
	}
	if !t.Status.IsValid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status: %s", t.Status)}
	}
	if !t.Priority.IsValid() {
		return &ValidationError{Field: "priority", Reason: fmt.Sprintf("invalid priority: %s", t.Priority)}
	}
	if t.ParentID != nil && *t.ParentID == t.ID && t.ID != 0 {
		return &ValidationError{Field: "parent_id", Reason: "trunk cannot be its own parent"}
	}
	return nil
}

// Fruit is a measurable outcome (OKR-style key result) owned by exactly
// one trunk. Fruits cascade-delete with their trunk.
type Fruit struct {
	ID           int64       `json:"id"`
	TrunkID      int64       `json:"trunk_id"`
	Description  string      `json:"description"`
	TargetValue  *int        `json:"target_value,omitempty"`
	CurrentValue int         `json:"current_value"`
	Unit         string      `json:"unit,omitempty"`
	Status       FruitStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Validate checks the fruit for domain-constraint violations.
func (f *Fruit) Validate() error {
	if f.TrunkID == 0 {
		return &ValidationError{Field: "trunk_id", Reason: "fruit requires an owning trunk"}
	}
	if f.Description == "" {
		return &ValidationError{Field: "description", Reason: "description is required"}
	}
	if !f.Status.IsValid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status: %s", f.Status)}
	}
	return nil
}

// Branch is a project container. It may link to a trunk and/or grove
// directly, and may nest under a parent branch.
type Branch struct {
	ID          int64           `json:"id"`
	TrunkID     *int64          `json:"trunk_id,omitempty"`
	GroveID     *int64          `json:"grove_id,omitempty"`
	ParentID    *int64          `json:"parent_id,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Status      ContainerStatus `json:"status"`
	Priority    Priority        `json:"priority"`
	TargetDate  *time.Time      `json:"target_date,omitempty"`
	Labels      []string        `json:"labels,omitempty"`
	DoneWhen    string          `json:"done_when,omitempty"`
	BeadsRepo   string          `json:"beads_repo,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Validate checks the branch for domain-constraint violations.
func (b *Branch) Validate() error {
	if b.Title == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	if len(b.Title) > 255 {
		return &ValidationError{Field: "title", Reason: fmt.Sprintf("title must be 255 characters or less (got %d)", len(b.Title))}
	}
	if !b.Status.IsValid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status: %s", b.Status)}
	}
	if !b.Priority.IsValid() {
		return &ValidationError{Field: "priority", Reason: fmt.Sprintf("invalid priority: %s", b.Priority)}
	}
	if b.ParentID != nil && *b.ParentID == b.ID && b.ID != 0 {
		return &ValidationError{Field: "parent_id", Reason: "branch cannot be its own parent"}
	}
	return nil
}

// Bud is the atomic work item, the leaf of the hierarchy. A bud may float
// free or link to a branch, trunk, and/or grove; the direct trunk/grove
// pointers are allowed to diverge from the branch's own placement.
type Bud struct {
	ID               int64       `json:"id"`
	BranchID         *int64      `json:"branch_id,omitempty"`
	TrunkID          *int64      `json:"trunk_id,omitempty"`
	GroveID          *int64      `json:"grove_id,omitempty"`
	Title            string      `json:"title"`
	Description      string      `json:"description,omitempty"`
	Status           BudStatus   `json:"status"`
	Priority         Priority    `json:"priority"`
	StoryPoints      *int        `json:"story_points,omitempty"`
	EstimatedMinutes *int        `json:"estimated_minutes,omitempty"`
	Assignee         string      `json:"assignee,omitempty"`
	Context          string      `json:"context,omitempty"`
	EnergyLevel      EnergyLevel `json:"energy_level,omitempty"`
	TimeSpentMinutes int         `json:"time_spent_minutes"`
	CostCents        int         `json:"cost_cents"`
	DueDate          *time.Time  `json:"due_date,omitempty"`
	ScheduledDate    *time.Time  `json:"scheduled_date,omitempty"`
	DeferUntil       *time.Time  `json:"defer_until,omitempty"`
	Labels           []string    `json:"labels,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	SessionID        string      `json:"session_id,omitempty"` // uuid of the capturing session
	SourceMessageID  *int64      `json:"source_message_id,omitempty"`
	BeadsID          string      `json:"beads_id,omitempty"`
	BeadsSyncedAt    *time.Time  `json:"beads_synced_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	ClarifiedAt      *time.Time  `json:"clarified_at,omitempty"`
	StartedAt        *time.Time  `json:"started_at,omitempty"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
}

// Validate checks the bud for domain-constraint violations.
func (b *Bud) Validate() error {
	if b.Title == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	if len(b.Title) > 500 {
		return &ValidationError{Field: "title", Reason: fmt.Sprintf("title must be 500 characters or less (got %d)", len(b.Title))}
	}
	if !b.Status.IsValid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status: %s", b.Status)}
	}
	if !b.Priority.IsValid() {
		return &ValidationError{Field: "priority", Reason: fmt.Sprintf("invalid priority: %s", b.Priority)}
	}
	if b.EnergyLevel != "" && !b.EnergyLevel.IsValid() {
		return &ValidationError{Field: "energy_level", Reason: fmt.Sprintf("invalid energy level: %s", b.EnergyLevel)}
	}
	if b.EstimatedMinutes != nil && *b.EstimatedMinutes < 0 {
		return &ValidationError{Field: "estimated_minutes", Reason: "estimated_minutes cannot be negative"}
	}
	if b.TimeSpentMinutes < 0 {
		return &ValidationError{Field: "time_spent_minutes", Reason: "time_spent_minutes cannot be negative"}
	}
	if b.CostCents < 0 {
		return &ValidationError{Field: "cost_cents", Reason: "cost_cents cannot be negative"}
	}
	return nil
}

// SetDefaults applies default values for fields omitted at creation.
func (b *Bud) SetDefaults() {
	if b.Status == "" {
		b.Status = StatusSeed
	}
	if b.Priority == "" {
		b.Priority = PriorityMedium
	}
}

// IsFinished reports whether the bud is in a terminal state. Finished buds
// never gate actionability of their dependents.
func (b *Bud) IsFinished() bool {
	return b.Status.IsTerminal()
}

// Dependency is a directed edge between buds. The bud identified by BudID
// depends on (is blocked by, relates to, or is a subtask of) DependsOnID.
type Dependency struct {
	BudID       int64          `json:"bud_id"`
	DependsOnID int64          `json:"depends_on_id"`
	Type        DependencyType `json:"type"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Validate checks the edge for domain-constraint violations.
func (d *Dependency) Validate() error {
	if d.BudID == d.DependsOnID {
		return &ValidationError{Field: "depends_on_id", Reason: "a bud cannot depend on itself"}
	}
	if !d.Type.IsValid() {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("invalid dependency type: %s", d.Type)}
	}
	return nil
}

// BlockedBud extends Bud with its unfinished blockers.
type BlockedBud struct {
	Bud
	BlockedBy []*Bud `json:"blocked_by"`
}

// Habit is a recurring practice tracked separately from buds.
type Habit struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	GroveID   *int64         `json:"grove_id,omitempty"`
	Frequency HabitFrequency `json:"frequency"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Validate checks the habit for domain-constraint violations.
func (h *Habit) Validate() error {
	if h.Title == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	if !h.Frequency.IsValid() {
		return &ValidationError{Field: "frequency", Reason: fmt.Sprintf("invalid frequency: %s", h.Frequency)}
	}
	return nil
}

// HabitLog is one completion of a habit.
type HabitLog struct {
	ID          int64     `json:"id"`
	HabitID     int64     `json:"habit_id"`
	CompletedAt time.Time `json:"completed_at"`
	Notes       string    `json:"notes,omitempty"`
}

func validHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
