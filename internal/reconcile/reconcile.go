// Package reconcile runs the background maintenance loops: the dew
// sweeper that evaporates expired signals and the pollen triage helpers
// that batch-process pending candidates.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/grovecli/grove/internal/debug"
	"github.com/grovecli/grove/internal/types"
)

// reconcileStore is the slice of storage the loops need.
type reconcileStore interface {
	EvaporateExpired(ctx context.Context, now time.Time) (int, error)
	ListPollen(ctx context.Context, status types.PollenStatus) ([]*types.Pollen, error)
	SeedPollen(ctx context.Context, id int64, bud *types.Bud) (*types.Bud, error)
	RejectPollen(ctx context.Context, id int64, reason string) error
}

// Sweeper periodically evaporates expired dew. Transient store errors
// are retried with exponential backoff inside a tick; the loop itself
// never dies until the context does.
type Sweeper struct {
	store    reconcileStore
	interval time.Duration
	now      func() time.Time
}

// NewSweeper creates a sweeper. A zero interval defaults to one minute.
func NewSweeper(store reconcileStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run blocks until ctx is cancelled, sweeping once immediately and then
// on every tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if err := s.sweepWithRetry(ctx); err != nil {
		debug.Logf("dew sweep failed: %v\n", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.sweepWithRetry(ctx); err != nil {
				debug.Logf("dew sweep failed: %v\n", err)
			}
		}
	}
}

// SweepOnce runs a single evaporation pass without retry.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	return s.store.EvaporateExpired(ctx, s.now())
}

func (s *Sweeper) sweepWithRetry(ctx context.Context) error {
	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	return backoff.Retry(func() error {
		n, err := s.store.EvaporateExpired(ctx, s.now())
		if err != nil {
			return err
		}
		if n > 0 {
			debug.Logf("dew evaporated: %d\n", n)
		}
		return nil
	}, backoff.WithMaxRetries(policy, 5))
}

// TriageDecision is one pollen disposition in a batch triage.
type TriageDecision struct {
	PollenID int64
	Accept   bool
	// Bud carries placement when accepting; Reason explains a rejection.
	Bud    *types.Bud
	Reason string
}

// TriageResult summarizes a batch triage run.
type TriageResult struct {
	Seeded   []*types.Bud
	Rejected []int64
	Errors   map[int64]error
}

// Triage applies a batch of pollen decisions. Each decision is its own
// storage transaction; one failure is recorded and the rest proceed.
func Triage(ctx context.Context, store reconcileStore, decisions []TriageDecision) *TriageResult {
	result := &TriageResult{Errors: map[int64]error{}}
	for _, d := range decisions {
		if d.Accept {
			bud, err := store.SeedPollen(ctx, d.PollenID, d.Bud)
			if err != nil {
				result.Errors[d.PollenID] = err
				continue
			}
			result.Seeded = append(result.Seeded, bud)
		} else {
			if err := store.RejectPollen(ctx, d.PollenID, d.Reason); err != nil {
				result.Errors[d.PollenID] = err
				continue
			}
			result.Rejected = append(result.Rejected, d.PollenID)
		}
	}
	return result
}

// AutoTriage seeds every pending pollen at or above the confidence
// threshold and leaves the rest pending for a human. It returns the
// seeded buds.
func AutoTriage(ctx context.Context, store reconcileStore, threshold float64) ([]*types.Bud, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("confidence threshold must be in [0,1], got %g", threshold)
	}
	pending, err := store.ListPollen(ctx, types.PollenPending)
	if err != nil {
		return nil, err
	}
	var seeded []*types.Bud
	for _, p := range pending {
		if p.Confidence < threshold {
			continue
		}
		bud, err := store.SeedPollen(ctx, p.ID, nil)
		if err != nil {
			return seeded, fmt.Errorf("seed pollen %d: %w", p.ID, err)
		}
		seeded = append(seeded, bud)
	}
	return seeded, nil
}
