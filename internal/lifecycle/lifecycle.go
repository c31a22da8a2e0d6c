// Package lifecycle encodes the bud state machine and its timestamp
// stamping rules. It is pure: callers (the sqlite store) apply the
// returned changes inside their own transactions.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/grovecli/grove/internal/types"
)

// TransitionError describes a forbidden state change.
type TransitionError struct {
	From types.BudStatus
	To   types.BudStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition bud from %s to %s", e.From, e.To)
}

// CanTransition reports whether from → to is allowed. Same-state
// transitions are allowed (they are idempotent no-ops for the caller).
//
// Rules: terminal states (bloomed, mulch) admit no exit; a seed cannot
// bloom directly; mulch is reachable from any non-terminal state; all
// other moves among seed/dormant/budding/bloomed are free.
func CanTransition(from, to types.BudStatus) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if from == to {
		return true
	}
	if from.IsTerminal() {
		return false
	}
	if from == types.StatusSeed && to == types.StatusBloomed {
		return false
	}
	return true
}

// Apply validates the transition and mutates the bud in place: status,
// UpdatedAt, and the milestone timestamps. Each milestone stamp is
// monotonic — set the first time its state is entered, never overwritten
// on re-entry.
//
// A same-state transition returns nil without touching the bud, so
// repeated "done" commands stay idempotent and preserve the original
// CompletedAt.
func Apply(b *types.Bud, to types.BudStatus, now time.Time) error {
	if !to.IsValid() {
		return &types.ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status: %s", to)}
	}
	if b.Status == to {
		return nil
	}
	if !CanTransition(b.Status, to) {
		return &TransitionError{From: b.Status, To: to}
	}

	b.Status = to
	b.UpdatedAt = now
	switch to {
	case types.StatusDormant:
		if b.ClarifiedAt == nil {
			b.ClarifiedAt = &now
		}
	case types.StatusBudding:
		if b.StartedAt == nil {
			b.StartedAt = &now
		}
	case types.StatusBloomed:
		if b.CompletedAt == nil {
			b.CompletedAt = &now
		}
	}
	return nil
}
