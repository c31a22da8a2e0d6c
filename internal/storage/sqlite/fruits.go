package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/grovecli/grove/internal/types"
)

const fruitColumns = "id, trunk_id, description, target_value, current_value, unit, status, created_at, updated_at"

func scanFruit(row interface{ Scan(...interface{}) error }) (*types.Fruit, error) {
	f := &types.Fruit{}
	var target sql.NullInt64
	err := row.Scan(&f.ID, &f.TrunkID, &f.Description, &target,
		&f.CurrentValue, &f.Unit, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.TargetValue = intPtr(target)
	return f, nil
}

// CreateFruit inserts a fruit under its owning trunk.
func (s *Store) CreateFruit(ctx context.Context, f *types.Fruit) error {
	if f.Status == "" {
		f.Status = types.FruitActive
	}
	if err := f.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkItemExists(ctx, tx, types.ItemTrunk, f.TrunkID); err != nil {
			return err
		}
		now := s.now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO fruits (trunk_id, description, target_value, current_value, unit, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			f.TrunkID, f.Description, nullInt(f.TargetValue), f.CurrentValue,
			f.Unit, string(f.Status), now, now)
		if err != nil {
			return wrapDBErrorf(err, "create fruit on trunk %d", f.TrunkID)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return wrapDBError("create fruit", err)
		}
		f.ID = id
		f.CreatedAt = now
		f.UpdatedAt = now
		return s.appendEvent(ctx, tx, types.ItemTrunk, f.TrunkID, types.EventCreated,
			fmt.Sprintf("fruit: %s", f.Description), "")
	})
}

// GetFruit retrieves a fruit by ID.
func (s *Store) GetFruit(ctx context.Context, id int64) (*types.Fruit, error) {
	f, err := scanFruit(s.db.QueryRowContext(ctx,
		"SELECT "+fruitColumns+" FROM fruits WHERE id = ?", id))
	if err != nil {
		return nil, wrapDBErrorf(err, "get fruit %d", id)
	}
	return f, nil
}

// ListFruits returns all fruits of a trunk in creation order.
func (s *Store) ListFruits(ctx context.Context, trunkID int64) ([]*types.Fruit, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+fruitColumns+" FROM fruits WHERE trunk_id = ? ORDER BY id", trunkID)
	if err != nil {
		return nil, wrapDBErrorf(err, "list fruits of trunk %d", trunkID)
	}
	defer rows.Close()

	var fruits []*types.Fruit
	for rows.Next() {
		f, err := scanFruit(rows)
		if err != nil {
			return nil, wrapDBError("scan fruit", err)
		}
		fruits = append(fruits, f)
	}
	return fruits, wrapDBError("list fruits", rows.Err())
}

// UpdateFruitProgress sets the current value and records a checked event
// on the owning trunk. Reaching the target does not auto-complete the
// fruit; completion stays an explicit decision.
func (s *Store) UpdateFruitProgress(ctx context.Context, id int64, current int) (*types.Fruit, error) {
	var out *types.Fruit
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		f, err := scanFruit(tx.QueryRowContext(ctx,
			"SELECT "+fruitColumns+" FROM fruits WHERE id = ?", id))
		if err != nil {
			return wrapDBErrorf(err, "get fruit %d", id)
		}
		now := s.now()
		if _, err := tx.ExecContext(ctx,
			"UPDATE fruits SET current_value = ?, updated_at = ? WHERE id = ?",
			current, now, id); err != nil {
			return wrapDBErrorf(err, "update fruit %d progress", id)
		}
		content := fmt.Sprintf("fruit %d: %d", id, current)
		if f.TargetValue != nil {
			content = fmt.Sprintf("fruit %d: %d/%d %s", id, current, *f.TargetValue, f.Unit)
		}
		f.CurrentValue = current
		f.UpdatedAt = now
		out = f
		return s.appendEvent(ctx, tx, types.ItemTrunk, f.TrunkID, types.EventChecked, content, "")
	})
	return out, err
}

// TransitionFruit changes a fruit's status; same-state is a silent no-op.
func (s *Store) TransitionFruit(ctx context.Context, id int64, status types.FruitStatus) (*types.Fruit, error) {
	if !status.IsValid() {
		return nil, &types.ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status: %s", status)}
	}
	var out *types.Fruit
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		f, err := scanFruit(tx.QueryRowContext(ctx,
			"SELECT "+fruitColumns+" FROM fruits WHERE id = ?", id))
		if err != nil {
			return wrapDBErrorf(err, "get fruit %d", id)
		}
		if f.Status == status {
			out = f
			return nil
		}
		now := s.now()
		if _, err := tx.ExecContext(ctx,
			"UPDATE fruits SET status = ?, updated_at = ? WHERE id = ?",
			string(status), now, id); err != nil {
			return wrapDBErrorf(err, "transition fruit %d", id)
		}
		content := fmt.Sprintf("fruit %d: %s -> %s", id, f.Status, status)
		f.Status = status
		f.UpdatedAt = now
		out = f
		return s.appendEvent(ctx, tx, types.ItemTrunk, f.TrunkID, types.EventStatusChanged, content, "")
	})
	return out, err
}

// DeleteFruit removes a fruit.
func (s *Store) DeleteFruit(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM fruits WHERE id = ?", id)
		if err != nil {
			return wrapDBErrorf(err, "delete fruit %d", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("delete fruit", err)
		}
		if n == 0 {
			return wrapDBErrorf(sql.ErrNoRows, "delete fruit %d", id)
		}
		return nil
	})
}
