package sqlite

import (
	"context"
	"database/sql"

	"github.com/grovecli/grove/internal/types"
)

const groveColumns = "id, name, description, color, icon, sort_order, is_active, created_at, updated_at"

func scanGrove(row interface{ Scan(...interface{}) error }) (*types.Grove, error) {
	g := &types.Grove{}
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.Color, &g.Icon,
		&g.SortOrder, &g.IsActive, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// CreateGrove inserts a grove. Names are unique; a duplicate returns
// storage.ErrConflict.
func (s *Store) CreateGrove(ctx context.Context, g *types.Grove) error {
	if err := g.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO groves (name, description, color, icon, sort_order, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
			g.Name, g.Description, g.Color, g.Icon, g.SortOrder, now, now)
		if err != nil {
			return wrapDBErrorf(err, "create grove %q", g.Name)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return wrapDBError("create grove", err)
		}
		g.ID = id
		g.IsActive = true
		g.CreatedAt = now
		g.UpdatedAt = now
		return s.appendEvent(ctx, tx, types.ItemGrove, id, types.EventCreated, g.Name, "")
	})
}

// GetGrove retrieves a grove by ID.
func (s *Store) GetGrove(ctx context.Context, id int64) (*types.Grove, error) {
	g, err := scanGrove(s.db.QueryRowContext(ctx,
		"SELECT "+groveColumns+" FROM groves WHERE id = ?", id))
	if err != nil {
		return nil, wrapDBErrorf(err, "get grove %d", id)
	}
	return g, nil
}

// GetGroveByName retrieves a grove by its unique name.
func (s *Store) GetGroveByName(ctx context.Context, name string) (*types.Grove, error) {
	g, err := scanGrove(s.db.QueryRowContext(ctx,
		"SELECT "+groveColumns+" FROM groves WHERE name = ?", name))
	if err != nil {
		return nil, wrapDBErrorf(err, "get grove %q", name)
	}
	return g, nil
}

// ListGroves returns groves ordered by sort_order then name. Inactive
// (archived) groves are excluded unless includeInactive is set.
func (s *Store) ListGroves(ctx context.Context, includeInactive bool) ([]*types.Grove, error) {
	query := "SELECT " + groveColumns + " FROM groves"
	if !includeInactive {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY sort_order, name"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapDBError("list groves", err)
	}
	defer rows.Close()

	var groves []*types.Grove
	for rows.Next() {
		g, err := scanGrove(rows)
		if err != nil {
			return nil, wrapDBError("scan grove", err)
		}
		groves = append(groves, g)
	}
	return groves, wrapDBError("list groves", rows.Err())
}

// UpdateGrove saves mutable grove fields.
func (s *Store) UpdateGrove(ctx context.Context, g *types.Grove) error {
	if err := g.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		res, err := tx.ExecContext(ctx, `
			UPDATE groves SET name = ?, description = ?, color = ?, icon = ?,
				sort_order = ?, is_active = ?, updated_at = ?
			WHERE id = ?`,
			g.Name, g.Description, g.Color, g.Icon, g.SortOrder, g.IsActive, now, g.ID)
		if err != nil {
			return wrapDBErrorf(err, "update grove %d", g.ID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("update grove", err)
		}
		if n == 0 {
			return wrapDBErrorf(sql.ErrNoRows, "update grove %d", g.ID)
		}
		g.UpdatedAt = now
		return s.appendEvent(ctx, tx, types.ItemGrove, g.ID, types.EventLog, "updated", "")
	})
}

// ArchiveGrove marks a grove inactive. Archiving an already-inactive
// grove is a no-op.
func (s *Store) ArchiveGrove(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var active bool
		err := tx.QueryRowContext(ctx, "SELECT is_active FROM groves WHERE id = ?", id).Scan(&active)
		if err != nil {
			return wrapDBErrorf(err, "archive grove %d", id)
		}
		if !active {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE groves SET is_active = 0, updated_at = ? WHERE id = ?", s.now(), id); err != nil {
			return wrapDBErrorf(err, "archive grove %d", id)
		}
		return s.appendEvent(ctx, tx, types.ItemGrove, id, types.EventStatusChanged, "archived", "")
	})
}

// DeleteGrove removes a grove. Trunks, branches, and buds pointing at it
// keep existing with their grove link cleared.
func (s *Store) DeleteGrove(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM groves WHERE id = ?", id)
		if err != nil {
			return wrapDBErrorf(err, "delete grove %d", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("delete grove", err)
		}
		if n == 0 {
			return wrapDBErrorf(sql.ErrNoRows, "delete grove %d", id)
		}
		return nil
	})
}
