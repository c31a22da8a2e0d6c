package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/grovecli/grove/internal/storage"
	"github.com/grovecli/grove/internal/types"
)

const pollenColumns = "id, title, description, source, confidence, status, bud_id, reject_reason, created_at, processed_at"

func scanPollen(row interface{ Scan(...interface{}) error }) (*types.Pollen, error) {
	p := &types.Pollen{}
	var budID sql.NullInt64
	var processed sql.NullTime
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Source, &p.Confidence,
		&p.Status, &budID, &p.RejectReason, &p.CreatedAt, &processed)
	if err != nil {
		return nil, err
	}
	p.BudID = int64Ptr(budID)
	p.ProcessedAt = timePtr(processed)
	return p, nil
}

// CreatePollen records a candidate bud proposed by an external source.
func (s *Store) CreatePollen(ctx context.Context, p *types.Pollen) error {
	if p.Status == "" {
		p.Status = types.PollenPending
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO pollen (title, description, source, confidence, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			p.Title, p.Description, p.Source, p.Confidence, string(p.Status), now)
		if err != nil {
			return wrapDBErrorf(err, "create pollen %q", p.Title)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return wrapDBError("create pollen", err)
		}
		p.ID = id
		p.CreatedAt = now
		return nil
	})
}

// GetPollen retrieves a pollen record by ID.
func (s *Store) GetPollen(ctx context.Context, id int64) (*types.Pollen, error) {
	p, err := scanPollen(s.db.QueryRowContext(ctx,
		"SELECT "+pollenColumns+" FROM pollen WHERE id = ?", id))
	if err != nil {
		return nil, wrapDBErrorf(err, "get pollen %d", id)
	}
	return p, nil
}

// ListPollen returns pollen, newest first, optionally filtered by status.
func (s *Store) ListPollen(ctx context.Context, status types.PollenStatus) ([]*types.Pollen, error) {
	query := "SELECT " + pollenColumns + " FROM pollen"
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("list pollen", err)
	}
	defer rows.Close()

	var out []*types.Pollen
	for rows.Next() {
		p, err := scanPollen(rows)
		if err != nil {
			return nil, wrapDBError("scan pollen", err)
		}
		out = append(out, p)
	}
	return out, wrapDBError("list pollen", rows.Err())
}

// SeedPollen converts pending pollen into a real bud atomically: the bud
// insert and the pollen state flip commit together, so a crash can never
// leave a seeded bud without its pollen marked, or vice versa. Processing
// terminal pollen fails with storage.ErrConflict.
//
// The bud argument carries placement and overrides; empty title and
// description default to the pollen's own.
func (s *Store) SeedPollen(ctx context.Context, id int64, bud *types.Bud) (*types.Bud, error) {
	if bud == nil {
		bud = &types.Bud{}
	}
	var out *types.Bud
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		p, err := scanPollen(tx.QueryRowContext(ctx,
			"SELECT "+pollenColumns+" FROM pollen WHERE id = ?", id))
		if err != nil {
			return wrapDBErrorf(err, "get pollen %d", id)
		}
		if p.Status.IsTerminal() {
			return fmt.Errorf("seed pollen %d: already %s: %w", id, p.Status, storage.ErrConflict)
		}

		if bud.Title == "" {
			bud.Title = p.Title
		}
		if bud.Description == "" {
			bud.Description = p.Description
		}
		bud.SetDefaults()
		if err := bud.Validate(); err != nil {
			return err
		}
		if bud.BranchID != nil {
			if err := s.checkItemExists(ctx, tx, types.ItemBranch, *bud.BranchID); err != nil {
				return err
			}
		}
		if bud.TrunkID != nil {
			if err := s.checkItemExists(ctx, tx, types.ItemTrunk, *bud.TrunkID); err != nil {
				return err
			}
		}
		if bud.GroveID != nil {
			if err := s.checkItemExists(ctx, tx, types.ItemGrove, *bud.GroveID); err != nil {
				return err
			}
		}

		now := s.now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO buds (branch_id, trunk_id, grove_id, title, description, status, priority, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nullInt64(bud.BranchID), nullInt64(bud.TrunkID), nullInt64(bud.GroveID),
			bud.Title, bud.Description, string(bud.Status), string(bud.Priority), now, now)
		if err != nil {
			return wrapDBErrorf(err, "seed pollen %d", id)
		}
		budID, err := res.LastInsertId()
		if err != nil {
			return wrapDBError("seed pollen", err)
		}
		bud.ID = budID
		bud.CreatedAt = now
		bud.UpdatedAt = now

		if _, err := tx.ExecContext(ctx,
			"UPDATE pollen SET status = 'seeded', bud_id = ?, processed_at = ? WHERE id = ?",
			budID, now, id); err != nil {
			return wrapDBErrorf(err, "seed pollen %d", id)
		}

		if err := s.appendEvent(ctx, tx, types.ItemBud, budID, types.EventCreated, bud.Title, bud.SessionID); err != nil {
			return err
		}
		if err := s.appendEvent(ctx, tx, types.ItemBud, budID, types.EventPollenSeeded,
			fmt.Sprintf("from pollen %d (%s)", id, p.Source), bud.SessionID); err != nil {
			return err
		}
		out = bud
		return nil
	})
	return out, err
}

// RejectPollen marks pending pollen rejected with a reason. Terminal
// pollen fails with storage.ErrConflict.
func (s *Store) RejectPollen(ctx context.Context, id int64, reason string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		p, err := scanPollen(tx.QueryRowContext(ctx,
			"SELECT "+pollenColumns+" FROM pollen WHERE id = ?", id))
		if err != nil {
			return wrapDBErrorf(err, "get pollen %d", id)
		}
		if p.Status.IsTerminal() {
			return fmt.Errorf("reject pollen %d: already %s: %w", id, p.Status, storage.ErrConflict)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE pollen SET status = 'rejected', reject_reason = ?, processed_at = ? WHERE id = ?",
			reason, s.now(), id); err != nil {
			return wrapDBErrorf(err, "reject pollen %d", id)
		}
		return nil
	})
}
