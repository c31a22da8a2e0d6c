package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/grovecli/grove/internal/storage"
	"github.com/grovecli/grove/internal/types"
)

const dewColumns = "id, item_type, item_id, content, source, status, expires_at, absorbed_at, created_at"

func scanDew(row interface{ Scan(...interface{}) error }) (*types.Dew, error) {
	d := &types.Dew{}
	var itemType sql.NullString
	var itemID sql.NullInt64
	var expires, absorbed sql.NullTime
	err := row.Scan(&d.ID, &itemType, &itemID, &d.Content, &d.Source,
		&d.Status, &expires, &absorbed, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if itemType.Valid {
		it := types.ItemType(itemType.String)
		d.ItemType = &it
	}
	d.ItemID = int64Ptr(itemID)
	d.ExpiresAt = timePtr(expires)
	d.AbsorbedAt = timePtr(absorbed)
	return d, nil
}

// CreateDew records an ambient context signal, optionally attached to a
// hierarchy item. The attachment is advisory: the referenced item must
// exist now, but later deletion just orphans the dew.
func (s *Store) CreateDew(ctx context.Context, d *types.Dew) error {
	if d.Status == "" {
		d.Status = types.DewFresh
	}
	if err := d.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if d.ItemType != nil {
			if err := s.checkItemExists(ctx, tx, *d.ItemType, *d.ItemID); err != nil {
				return err
			}
		}
		var itemType interface{}
		if d.ItemType != nil {
			itemType = string(*d.ItemType)
		}
		now := s.now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO dew (item_type, item_id, content, source, status, expires_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			itemType, nullInt64(d.ItemID), d.Content, d.Source, string(d.Status),
			nullTime(d.ExpiresAt), now)
		if err != nil {
			return wrapDBError("create dew", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return wrapDBError("create dew", err)
		}
		d.ID = id
		d.CreatedAt = now
		return nil
	})
}

// GetDew retrieves a dew record by ID.
func (s *Store) GetDew(ctx context.Context, id int64) (*types.Dew, error) {
	d, err := scanDew(s.db.QueryRowContext(ctx,
		"SELECT "+dewColumns+" FROM dew WHERE id = ?", id))
	if err != nil {
		return nil, wrapDBErrorf(err, "get dew %d", id)
	}
	return d, nil
}

// ListDew returns dew, newest first, optionally filtered by status.
func (s *Store) ListDew(ctx context.Context, status types.DewStatus) ([]*types.Dew, error) {
	query := "SELECT " + dewColumns + " FROM dew"
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC, id DESC"
	return s.queryDew(ctx, query, args...)
}

// ListDewForItem returns all dew attached to one hierarchy item.
func (s *Store) ListDewForItem(ctx context.Context, itemType types.ItemType, itemID int64) ([]*types.Dew, error) {
	return s.queryDew(ctx,
		"SELECT "+dewColumns+" FROM dew WHERE item_type = ? AND item_id = ? ORDER BY created_at DESC, id DESC",
		string(itemType), itemID)
}

func (s *Store) queryDew(ctx context.Context, query string, args ...interface{}) ([]*types.Dew, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("list dew", err)
	}
	defer rows.Close()

	var out []*types.Dew
	for rows.Next() {
		d, err := scanDew(rows)
		if err != nil {
			return nil, wrapDBError("scan dew", err)
		}
		out = append(out, d)
	}
	return out, wrapDBError("list dew", rows.Err())
}

// AbsorbDew marks fresh dew as absorbed into a hierarchy item and logs a
// dew_absorbed event on that item. Non-fresh dew fails with
// storage.ErrConflict.
func (s *Store) AbsorbDew(ctx context.Context, id int64, itemType types.ItemType, itemID int64) (*types.Dew, error) {
	var out *types.Dew
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		d, err := scanDew(tx.QueryRowContext(ctx,
			"SELECT "+dewColumns+" FROM dew WHERE id = ?", id))
		if err != nil {
			return wrapDBErrorf(err, "get dew %d", id)
		}
		if d.Status != types.DewFresh {
			return fmt.Errorf("absorb dew %d: already %s: %w", id, d.Status, storage.ErrConflict)
		}
		if err := s.checkItemExists(ctx, tx, itemType, itemID); err != nil {
			return err
		}
		now := s.now()
		if _, err := tx.ExecContext(ctx,
			"UPDATE dew SET status = 'absorbed', item_type = ?, item_id = ?, absorbed_at = ? WHERE id = ?",
			string(itemType), itemID, now, id); err != nil {
			return wrapDBErrorf(err, "absorb dew %d", id)
		}
		d.Status = types.DewAbsorbed
		d.ItemType = &itemType
		d.ItemID = &itemID
		d.AbsorbedAt = &now
		out = d
		return s.appendEvent(ctx, tx, itemType, itemID, types.EventDewAbsorbed, d.Content, "")
	})
	return out, err
}

// EvaporateExpired flips every fresh dew whose expiry has passed to
// evaporated and returns the count. Called by the reconcile sweeper.
func (s *Store) EvaporateExpired(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE dew SET status = 'evaporated' WHERE status = 'fresh' AND expires_at IS NOT NULL AND expires_at <= ?",
			now.UTC())
		if err != nil {
			return wrapDBError("evaporate dew", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("evaporate dew", err)
		}
		count = int(n)
		return nil
	})
	return count, err
}
