package types

import "time"

// BudFilter narrows bud list queries. Zero values mean "no filter".
type BudFilter struct {
	Status       BudStatus
	Priority     Priority
	BranchID     *int64
	TrunkID      *int64
	GroveID      *int64
	Assignee     string
	Context      string
	Labels       []string // AND semantics
	HasBeadsID   *bool
	IncludeDone  bool // include bloomed/mulch when no Status filter given
	Limit        int
}

// WhyTrace is the upward hierarchy trace for a bud: branch chain first,
// then any direct trunk/grove links not already covered by the chain.
type WhyTrace struct {
	Bud         *Bud    `json:"bud"`
	Branch      *Branch `json:"branch,omitempty"`
	Trunk       *Trunk  `json:"trunk,omitempty"`
	Grove       *Grove  `json:"grove,omitempty"`
	TrunkDirect bool    `json:"trunk_direct,omitempty"` // trunk came from the bud's own pointer
	GroveDirect bool    `json:"grove_direct,omitempty"` // grove came from the bud's own pointer
}

// OverviewNode is one row of the full hierarchy tree with aggregate
// progress counts (buds under this node, transitively via branches).
type OverviewNode struct {
	Kind     ItemType        `json:"kind"`
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Status   string          `json:"status,omitempty"`
	Icon     string          `json:"icon,omitempty"`
	Depth    int             `json:"depth"`
	BudCount int             `json:"bud_count"`
	Bloomed  int             `json:"bloomed"`
	Children []*OverviewNode `json:"children,omitempty"`
}

// Overview is the full tree plus the floaters that sit outside it.
type Overview struct {
	Groves         []*OverviewNode `json:"groves"`
	OrphanTrunks   []*OverviewNode `json:"orphan_trunks,omitempty"`
	OrphanBranches []*OverviewNode `json:"orphan_branches,omitempty"`
	LooseBuds      []*Bud          `json:"loose_buds,omitempty"`
	Stats          Statistics      `json:"stats"`
}

// Statistics provides aggregate bud metrics.
type Statistics struct {
	TotalBuds      int `json:"total_buds"`
	SeedBuds       int `json:"seed_buds"`
	DormantBuds    int `json:"dormant_buds"`
	BuddingBuds    int `json:"budding_buds"`
	BloomedBuds    int `json:"bloomed_buds"`
	MulchedBuds    int `json:"mulched_buds"`
	BlockedBuds    int `json:"blocked_buds"`
	ActionableBuds int `json:"actionable_buds"`
}

// ReviewReport is the weekly review summary: what needs processing, what
// has gone stale, and what bloomed recently.
type ReviewReport struct {
	Seeds          []*Bud            `json:"seeds"`
	StaleBuds      []*Bud            `json:"stale_buds"` // budding, untouched past the stale cutoff
	BlockedCount   int               `json:"blocked_count"`
	BranchProgress []*BranchProgress `json:"branch_progress"`
	RecentBlooms   []*Bud            `json:"recent_blooms"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// BranchProgress is one active branch's completion summary.
type BranchProgress struct {
	Branch  *Branch `json:"branch"`
	Total   int     `json:"total"`
	Bloomed int     `json:"bloomed"`
	Budding int     `json:"budding"`
}
