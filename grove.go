// Package grove provides a minimal public API for building custom tooling
// on top of gv's storage layer.
//
// Most integrations should shell out to the gv CLI. This package exports
// only the essential types and functions for Go programs that want to
// read or mutate a grove database directly.
package grove

import (
	"context"

	"github.com/grovecli/grove/internal/storage"
	"github.com/grovecli/grove/internal/storage/sqlite"
	"github.com/grovecli/grove/internal/types"
)

// Core types for working with the hierarchy
type (
	Grove      = types.Grove
	Trunk      = types.Trunk
	Fruit      = types.Fruit
	Branch     = types.Branch
	Bud        = types.Bud
	BudStatus  = types.BudStatus
	Priority   = types.Priority
	Dependency = types.Dependency
	BudFilter  = types.BudFilter
)

// Bud status constants
const (
	StatusSeed    = types.StatusSeed
	StatusDormant = types.StatusDormant
	StatusBudding = types.StatusBudding
	StatusBloomed = types.StatusBloomed
	StatusMulch   = types.StatusMulch
)

// Dependency type constants
const (
	DepBlocks  = types.DepBlocks
	DepRelated = types.DepRelated
	DepSubtask = types.DepSubtask
)

// Storage is the full interface over a grove database.
type Storage = storage.Storage

// Sentinel errors returned by Storage operations.
var (
	ErrNotFound = storage.ErrNotFound
	ErrCycle    = storage.ErrCycle
	ErrConflict = storage.ErrConflict
)

// Open opens (or creates) a grove SQLite database for programmatic
// access. Use ":memory:" for an ephemeral database.
func Open(ctx context.Context, dbPath string) (Storage, error) {
	return sqlite.Open(ctx, dbPath)
}
