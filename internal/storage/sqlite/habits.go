package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/grovecli/grove/internal/types"
)

const habitColumns = "id, title, grove_id, frequency, is_active, created_at, updated_at"

func scanHabit(row interface{ Scan(...interface{}) error }) (*types.Habit, error) {
	h := &types.Habit{}
	var groveID sql.NullInt64
	err := row.Scan(&h.ID, &h.Title, &groveID, &h.Frequency, &h.IsActive,
		&h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	h.GroveID = int64Ptr(groveID)
	return h, nil
}

// CreateHabit inserts a recurring practice.
func (s *Store) CreateHabit(ctx context.Context, h *types.Habit) error {
	if h.Frequency == "" {
		h.Frequency = types.FreqDaily
	}
	if err := h.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if h.GroveID != nil {
			if err := s.checkItemExists(ctx, tx, types.ItemGrove, *h.GroveID); err != nil {
				return err
			}
		}
		now := s.now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO habits (title, grove_id, frequency, is_active, created_at, updated_at)
			VALUES (?, ?, ?, 1, ?, ?)`,
			h.Title, nullInt64(h.GroveID), string(h.Frequency), now, now)
		if err != nil {
			return wrapDBErrorf(err, "create habit %q", h.Title)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return wrapDBError("create habit", err)
		}
		h.ID = id
		h.IsActive = true
		h.CreatedAt = now
		h.UpdatedAt = now
		return nil
	})
}

// GetHabit retrieves a habit by ID.
func (s *Store) GetHabit(ctx context.Context, id int64) (*types.Habit, error) {
	h, err := scanHabit(s.db.QueryRowContext(ctx,
		"SELECT "+habitColumns+" FROM habits WHERE id = ?", id))
	if err != nil {
		return nil, wrapDBErrorf(err, "get habit %d", id)
	}
	return h, nil
}

// ListHabits returns habits, active ones unless includeInactive is set.
func (s *Store) ListHabits(ctx context.Context, includeInactive bool) ([]*types.Habit, error) {
	query := "SELECT " + habitColumns + " FROM habits"
	if !includeInactive {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY title"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapDBError("list habits", err)
	}
	defer rows.Close()

	var habits []*types.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, wrapDBError("scan habit", err)
		}
		habits = append(habits, h)
	}
	return habits, wrapDBError("list habits", rows.Err())
}

// SetHabitActive pauses or resumes a habit.
func (s *Store) SetHabitActive(ctx context.Context, id int64, active bool) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE habits SET is_active = ?, updated_at = ? WHERE id = ?",
			active, s.now(), id)
		if err != nil {
			return wrapDBErrorf(err, "set habit %d active", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("set habit active", err)
		}
		if n == 0 {
			return wrapDBErrorf(sql.ErrNoRows, "set habit %d active", id)
		}
		return nil
	})
}

// LogHabit records one completion of a habit at the current time.
func (s *Store) LogHabit(ctx context.Context, habitID int64, notes string) (*types.HabitLog, error) {
	var out *types.HabitLog
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var one int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM habits WHERE id = ?", habitID).Scan(&one); err != nil {
			return wrapDBErrorf(err, "get habit %d", habitID)
		}
		now := s.now()
		res, err := tx.ExecContext(ctx,
			"INSERT INTO habit_log (habit_id, completed_at, notes) VALUES (?, ?, ?)",
			habitID, now, notes)
		if err != nil {
			return wrapDBErrorf(err, "log habit %d", habitID)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return wrapDBError("log habit", err)
		}
		out = &types.HabitLog{ID: id, HabitID: habitID, CompletedAt: now, Notes: notes}
		return nil
	})
	return out, err
}

// GetHabitLog returns completions of a habit since the given time,
// newest first.
func (s *Store) GetHabitLog(ctx context.Context, habitID int64, since time.Time) ([]*types.HabitLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, habit_id, completed_at, notes FROM habit_log
		WHERE habit_id = ? AND completed_at >= ?
		ORDER BY completed_at DESC, id DESC`, habitID, since.UTC())
	if err != nil {
		return nil, wrapDBErrorf(err, "get habit %d log", habitID)
	}
	defer rows.Close()

	var logs []*types.HabitLog
	for rows.Next() {
		l := &types.HabitLog{}
		if err := rows.Scan(&l.ID, &l.HabitID, &l.CompletedAt, &l.Notes); err != nil {
			return nil, wrapDBError("scan habit log", err)
		}
		logs = append(logs, l)
	}
	return logs, wrapDBError("get habit log", rows.Err())
}
