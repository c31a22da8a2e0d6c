package sqlite

import (
	"context"
	"database/sql"

	"github.com/grovecli/grove/internal/types"
)

// Tidy threshold option names.
const (
	TidyBranchesPerTrunk = "branches_per_trunk"
	TidyBudsPerBranch    = "buds_per_branch"
	TidyFruitsPerTrunk   = "fruits_per_trunk"
)

func validTidyOption(name string) bool {
	switch name {
	case TidyBranchesPerTrunk, TidyBudsPerBranch, TidyFruitsPerTrunk:
		return true
	}
	return false
}

// SetTidyOption stores one scanner threshold, replacing any prior value.
func (s *Store) SetTidyOption(ctx context.Context, name string, value int) error {
	if !validTidyOption(name) {
		return &types.ValidationError{Field: "name", Reason: "unknown tidy option: " + name}
	}
	if value < 1 {
		return &types.ValidationError{Field: "value", Reason: "threshold must be at least 1"}
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tidy_config (name, value) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET value = excluded.value`, name, value)
		return wrapDBErrorf(err, "set tidy option %s", name)
	})
}

// GetTidyConfig returns the stored thresholds. Options never set are
// absent; the scanner supplies defaults.
func (s *Store) GetTidyConfig(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, value FROM tidy_config")
	if err != nil {
		return nil, wrapDBError("get tidy config", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var name string
		var value int
		if err := rows.Scan(&name, &value); err != nil {
			return nil, wrapDBError("get tidy config", err)
		}
		out[name] = value
	}
	return out, wrapDBError("get tidy config", rows.Err())
}
