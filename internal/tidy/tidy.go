// Package tidy implements the hygiene scanner: it reads fan-out counts
// across the hierarchy, compares them to configured thresholds, and
// suggests remediation (split, graft) without applying any of it.
package tidy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grovecli/grove/internal/types"
)

// Default thresholds, used for any option not stored in tidy config.
const (
	DefaultBranchesPerTrunk = 10
	DefaultBudsPerBranch    = 10
	DefaultFruitsPerTrunk   = 10
)

// Option names as stored in tidy config.
const (
	OptionBranchesPerTrunk = "branches_per_trunk"
	OptionBudsPerBranch    = "buds_per_branch"
	OptionFruitsPerTrunk   = "fruits_per_trunk"
)

// Thresholds are the fan-out limits a scan enforces.
type Thresholds struct {
	BranchesPerTrunk int
	BudsPerBranch    int
	FruitsPerTrunk   int
}

// FromConfig builds thresholds from stored options, defaulting whatever
// is absent.
func FromConfig(cfg map[string]int) Thresholds {
	t := Thresholds{
		BranchesPerTrunk: DefaultBranchesPerTrunk,
		BudsPerBranch:    DefaultBudsPerBranch,
		FruitsPerTrunk:   DefaultFruitsPerTrunk,
	}
	if v, ok := cfg[OptionBranchesPerTrunk]; ok {
		t.BranchesPerTrunk = v
	}
	if v, ok := cfg[OptionBudsPerBranch]; ok {
		t.BudsPerBranch = v
	}
	if v, ok := cfg[OptionFruitsPerTrunk]; ok {
		t.FruitsPerTrunk = v
	}
	return t
}

// FindingKind is the category of a hygiene violation.
type FindingKind string

// Finding kinds
const (
	FindingTooManyBranches FindingKind = "too_many_branches"
	FindingTooManyBuds     FindingKind = "too_many_buds"
	FindingTooManyFruits   FindingKind = "too_many_fruits"
)

// Finding is one threshold violation with a suggested remedy.
type Finding struct {
	Kind       FindingKind    `json:"kind"`
	ItemType   types.ItemType `json:"item_type"`
	ItemID     int64          `json:"item_id"`
	Title      string         `json:"title"`
	Count      int            `json:"count"`
	Threshold  int            `json:"threshold"`
	Suggestion string         `json:"suggestion"`
}

// Report is the outcome of one scan.
type Report struct {
	Findings   []Finding  `json:"findings"`
	Thresholds Thresholds `json:"thresholds"`
	ScannedAt  time.Time  `json:"scanned_at"`
}

// scanStore is the slice of storage the scanner reads. The scanner never
// mutates hierarchy data; its only write is the summary event.
type scanStore interface {
	GetTidyConfig(ctx context.Context) (map[string]int, error)
	CountBranchesPerTrunk(ctx context.Context) (map[int64]int, error)
	CountBudsPerBranch(ctx context.Context) (map[int64]int, error)
	CountFruitsPerTrunk(ctx context.Context) (map[int64]int, error)
	GetTrunk(ctx context.Context, id int64) (*types.Trunk, error)
	GetBranch(ctx context.Context, id int64) (*types.Branch, error)
	AppendEvent(ctx context.Context, e *types.ActivityEvent) error
}

// Scanner runs hygiene scans against a store.
type Scanner struct {
	store scanStore
}

// NewScanner creates a scanner.
func NewScanner(store scanStore) *Scanner {
	return &Scanner{store: store}
}

// Scan gathers fan-out counts concurrently, compares them to thresholds,
// and records one tidy_scan summary event. Identical store contents and
// thresholds always yield identical findings; findings are ordered by
// kind then item id.
func (s *Scanner) Scan(ctx context.Context) (*Report, error) {
	cfg, err := s.store.GetTidyConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tidy config: %w", err)
	}
	thresholds := FromConfig(cfg)

	var branchesPerTrunk, budsPerBranch, fruitsPerTrunk map[int64]int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		branchesPerTrunk, err = s.store.CountBranchesPerTrunk(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		budsPerBranch, err = s.store.CountBudsPerBranch(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		fruitsPerTrunk, err = s.store.CountFruitsPerTrunk(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("gather fan-out counts: %w", err)
	}

	report := &Report{Thresholds: thresholds, ScannedAt: time.Now().UTC()}

	for _, id := range sortedKeys(branchesPerTrunk) {
		count := branchesPerTrunk[id]
		if count <= thresholds.BranchesPerTrunk {
			continue
		}
		trunk, err := s.store.GetTrunk(ctx, id)
		if err != nil {
			return nil, err
		}
		report.Findings = append(report.Findings, Finding{
			Kind: FindingTooManyBranches, ItemType: types.ItemTrunk, ItemID: id,
			Title: trunk.Title, Count: count, Threshold: thresholds.BranchesPerTrunk,
			Suggestion: fmt.Sprintf("graft some branches to a sub-trunk or complete stale ones (%d/%d)", count, thresholds.BranchesPerTrunk),
		})
	}
	for _, id := range sortedKeys(budsPerBranch) {
		count := budsPerBranch[id]
		if count <= thresholds.BudsPerBranch {
			continue
		}
		branch, err := s.store.GetBranch(ctx, id)
		if err != nil {
			return nil, err
		}
		report.Findings = append(report.Findings, Finding{
			Kind: FindingTooManyBuds, ItemType: types.ItemBranch, ItemID: id,
			Title: branch.Title, Count: count, Threshold: thresholds.BudsPerBranch,
			Suggestion: fmt.Sprintf("split this branch (%d/%d buds)", count, thresholds.BudsPerBranch),
		})
	}
	for _, id := range sortedKeys(fruitsPerTrunk) {
		count := fruitsPerTrunk[id]
		if count <= thresholds.FruitsPerTrunk {
			continue
		}
		trunk, err := s.store.GetTrunk(ctx, id)
		if err != nil {
			return nil, err
		}
		report.Findings = append(report.Findings, Finding{
			Kind: FindingTooManyFruits, ItemType: types.ItemTrunk, ItemID: id,
			Title: trunk.Title, Count: count, Threshold: thresholds.FruitsPerTrunk,
			Suggestion: fmt.Sprintf("abandon or prune stale fruits (%d/%d)", count, thresholds.FruitsPerTrunk),
		})
	}

	// The summary event is the scan's only write. Item id 0 marks it as
	// a whole-store record rather than a per-item one.
	summary := &types.ActivityEvent{
		ItemType:  types.ItemGrove,
		ItemID:    0,
		EventType: types.EventTidyScan,
		Content:   fmt.Sprintf("%d findings", len(report.Findings)),
	}
	if err := s.store.AppendEvent(ctx, summary); err != nil {
		return nil, fmt.Errorf("record tidy scan: %w", err)
	}
	return report, nil
}

func sortedKeys(m map[int64]int) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
