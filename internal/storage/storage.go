// Package storage provides shared types for grove entity storage.
//
// The concrete storage implementation lives in the sqlite sub-package.
// This package holds the interface and error values referenced by both
// the implementation and its consumers (cmd/gv, tidy, reconcile, beads).
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/grovecli/grove/internal/types"
)

// ErrNotFound is returned when a referenced entity does not exist. It is
// distinct from validation failures so callers can tell "bad input shape"
// from "stale reference".
var ErrNotFound = errors.New("not found")

// ErrCycle is returned when an operation would create a cycle, either in
// the blocks dependency subgraph or in a containment parent chain.
var ErrCycle = errors.New("cycle detected")

// ErrConflict is returned when an operation contradicts current state:
// re-processing terminal pollen, absorbing non-fresh dew, or violating a
// unique key.
var ErrConflict = errors.New("conflict")

// IsValidation reports whether err is (or wraps) a domain validation
// failure carrying the offending field.
func IsValidation(err error) bool {
	var verr *types.ValidationError
	return errors.As(err, &verr)
}

// Storage is the interface satisfied by *sqlite.Store. Consumers depend on
// this interface rather than the concrete type so that alternative
// implementations (mocks, proxies) can be substituted.
//
// Every structural mutation executes inside one transaction: invariant
// checks (cycle detection, lifecycle validation) and the write they guard
// are never observable in an intermediate state. Audit events are appended
// within the same transaction as the mutation they describe.
type Storage interface {
	// Groves
	CreateGrove(ctx context.Context, g *types.Grove) error
	GetGrove(ctx context.Context, id int64) (*types.Grove, error)
	GetGroveByName(ctx context.Context, name string) (*types.Grove, error)
	ListGroves(ctx context.Context, includeInactive bool) ([]*types.Grove, error)
	UpdateGrove(ctx context.Context, g *types.Grove) error
	ArchiveGrove(ctx context.Context, id int64) error
	DeleteGrove(ctx context.Context, id int64) error

	// Trunks
	CreateTrunk(ctx context.Context, t *types.Trunk) error
	GetTrunk(ctx context.Context, id int64) (*types.Trunk, error)
	ListTrunks(ctx context.Context, groveID *int64, includeDone bool) ([]*types.Trunk, error)
	UpdateTrunk(ctx context.Context, t *types.Trunk) error
	TransitionTrunk(ctx context.Context, id int64, status types.ContainerStatus) (*types.Trunk, error)
	DeleteTrunk(ctx context.Context, id int64) error

	// Fruits
	CreateFruit(ctx context.Context, f *types.Fruit) error
	GetFruit(ctx context.Context, id int64) (*types.Fruit, error)
	ListFruits(ctx context.Context, trunkID int64) ([]*types.Fruit, error)
	UpdateFruitProgress(ctx context.Context, id int64, current int) (*types.Fruit, error)
	TransitionFruit(ctx context.Context, id int64, status types.FruitStatus) (*types.Fruit, error)
	DeleteFruit(ctx context.Context, id int64) error

	// Branches
	CreateBranch(ctx context.Context, b *types.Branch) error
	GetBranch(ctx context.Context, id int64) (*types.Branch, error)
	ListBranches(ctx context.Context, trunkID *int64, includeDone bool) ([]*types.Branch, error)
	UpdateBranch(ctx context.Context, b *types.Branch) error
	TransitionBranch(ctx context.Context, id int64, status types.ContainerStatus) (*types.Branch, error)
	DeleteBranch(ctx context.Context, id int64) error
	LinkBeadsRepo(ctx context.Context, branchID int64, repoPath string) error
	UnlinkBeadsRepo(ctx context.Context, branchID int64) error

	// Buds
	CreateBud(ctx context.Context, b *types.Bud) error
	GetBud(ctx context.Context, id int64) (*types.Bud, error)
	GetBudByBeadsID(ctx context.Context, branchID int64, beadsID string) (*types.Bud, error)
	ListBuds(ctx context.Context, filter types.BudFilter) ([]*types.Bud, error)
	UpdateBud(ctx context.Context, b *types.Bud) error
	TransitionBud(ctx context.Context, id int64, status types.BudStatus) (*types.Bud, error)
	MarkBeadSynced(ctx context.Context, budID int64, beadsID string, at time.Time) error
	DeleteBud(ctx context.Context, id int64) error

	// Dependency graph
	AddDependency(ctx context.Context, dep *types.Dependency) error
	RemoveDependency(ctx context.Context, budID, dependsOnID int64) error
	Chain(ctx context.Context, budIDs []int64) error
	GetDependencies(ctx context.Context, budID int64) ([]*types.Bud, error)
	GetDependents(ctx context.Context, budID int64) ([]*types.Bud, error)
	ActionableBuds(ctx context.Context) ([]*types.Bud, error)
	BlockedBuds(ctx context.Context) ([]*types.BlockedBud, error)

	// Hierarchy queries and remediation
	Why(ctx context.Context, budID int64) (*types.WhyTrace, error)
	Overview(ctx context.Context) (*types.Overview, error)
	Review(ctx context.Context, staleCutoff, bloomedSince time.Time) (*types.ReviewReport, error)
	Statistics(ctx context.Context) (*types.Statistics, error)
	SplitBranch(ctx context.Context, branchID int64, newTitle string, budIDs []int64) (*types.Branch, error)
	GraftBranch(ctx context.Context, branchID int64, newTrunkID, newParentID *int64) error
	GraftTrunk(ctx context.Context, trunkID int64, newGroveID, newParentID *int64) error

	// Fan-out counts for the tidy scanner (read-only)
	CountBranchesPerTrunk(ctx context.Context) (map[int64]int, error)
	CountBudsPerBranch(ctx context.Context) (map[int64]int, error)
	CountFruitsPerTrunk(ctx context.Context) (map[int64]int, error)

	// Activity log (append-only)
	AppendEvent(ctx context.Context, e *types.ActivityEvent) error
	GetEvents(ctx context.Context, filter types.EventFilter) ([]*types.ActivityEvent, error)

	// Pollen
	CreatePollen(ctx context.Context, p *types.Pollen) error
	GetPollen(ctx context.Context, id int64) (*types.Pollen, error)
	ListPollen(ctx context.Context, status types.PollenStatus) ([]*types.Pollen, error)
	SeedPollen(ctx context.Context, id int64, bud *types.Bud) (*types.Bud, error)
	RejectPollen(ctx context.Context, id int64, reason string) error

	// Dew
	CreateDew(ctx context.Context, d *types.Dew) error
	GetDew(ctx context.Context, id int64) (*types.Dew, error)
	ListDew(ctx context.Context, status types.DewStatus) ([]*types.Dew, error)
	ListDewForItem(ctx context.Context, itemType types.ItemType, itemID int64) ([]*types.Dew, error)
	AbsorbDew(ctx context.Context, id int64, itemType types.ItemType, itemID int64) (*types.Dew, error)
	EvaporateExpired(ctx context.Context, now time.Time) (int, error)

	// Habits
	CreateHabit(ctx context.Context, h *types.Habit) error
	GetHabit(ctx context.Context, id int64) (*types.Habit, error)
	ListHabits(ctx context.Context, includeInactive bool) ([]*types.Habit, error)
	SetHabitActive(ctx context.Context, id int64, active bool) error
	LogHabit(ctx context.Context, habitID int64, notes string) (*types.HabitLog, error)
	GetHabitLog(ctx context.Context, habitID int64, since time.Time) ([]*types.HabitLog, error)

	// Tidy thresholds (user-mutable, read-only to the scanner)
	SetTidyOption(ctx context.Context, name string, value int) error
	GetTidyConfig(ctx context.Context) (map[string]int, error)

	// Lifecycle
	Close() error
}
