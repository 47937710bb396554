package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/repository"
)

const intervalColumns = `id, user_id, group_id, start_date, end_date, created_at, updated_at`

// IntervalStore implements availability.Store for SQLite
type IntervalStore struct {
	db *DB
}

// NewIntervalStore creates a new IntervalStore
func NewIntervalStore(db *DB) *IntervalStore {
	return &IntervalStore{db: db}
}

// Begin opens a unit of work.
func (s *IntervalStore) Begin(ctx context.Context) (availability.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &intervalTx{tx: tx}, nil
}

// ListByMember returns one user's intervals in a group ordered by start date.
func (s *IntervalStore) ListByMember(ctx context.Context, userID, groupID string) ([]availability.Interval, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+intervalColumns+`
		FROM availabilities
		WHERE group_id = ? AND user_id = ?
		ORDER BY start_date
	`, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list member intervals: %w", err)
	}
	return scanIntervals(rows)
}

// ListByGroup returns every interval in a group.
func (s *IntervalStore) ListByGroup(ctx context.Context, groupID string) ([]availability.Interval, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+intervalColumns+`
		FROM availabilities
		WHERE group_id = ?
		ORDER BY start_date, user_id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group intervals: %w", err)
	}
	return scanIntervals(rows)
}

// ListByGroupBetween returns the group's intervals intersecting [from, to].
func (s *IntervalStore) ListByGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]availability.Interval, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+intervalColumns+`
		FROM availabilities
		WHERE group_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date, user_id
	`, groupID, dates.Format(to), dates.Format(from))
	if err != nil {
		return nil, fmt.Errorf("failed to list group intervals: %w", err)
	}
	return scanIntervals(rows)
}

type intervalTx struct {
	tx *sql.Tx
}

func (t *intervalTx) Overlapping(ctx context.Context, userID, groupID string, from, to time.Time) ([]availability.Interval, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+intervalColumns+`
		FROM availabilities
		WHERE group_id = ? AND user_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date
	`, groupID, userID, dates.Format(to), dates.Format(from))
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping intervals: %w", err)
	}
	return scanIntervals(rows)
}

func (t *intervalTx) Insert(ctx context.Context, iv *availability.Interval) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO availabilities (`+intervalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, iv.ID, iv.UserID, iv.GroupID, dates.Format(iv.StartDate), dates.Format(iv.EndDate), iv.CreatedAt, iv.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return repository.ErrConflict
		case isForeignKeyViolation(err):
			return repository.ErrUnknownGroup
		}
		return fmt.Errorf("failed to insert interval: %w", err)
	}
	return nil
}

func (t *intervalTx) Update(ctx context.Context, iv *availability.Interval) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE availabilities
		SET start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND group_id = ?
	`, dates.Format(iv.StartDate), dates.Format(iv.EndDate), iv.UpdatedAt, iv.ID, iv.UserID, iv.GroupID)
	if err != nil {
		return fmt.Errorf("failed to update interval: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (t *intervalTx) Delete(ctx context.Context, userID, groupID string, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+2)
	args = append(args, userID, groupID)
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := t.tx.ExecContext(ctx, `
		DELETE FROM availabilities
		WHERE user_id = ? AND group_id = ? AND id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete intervals: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

func (t *intervalTx) DeleteAll(ctx context.Context, userID, groupID string) (int, error) {
	result, err := t.tx.ExecContext(ctx, `
		DELETE FROM availabilities WHERE user_id = ? AND group_id = ?
	`, userID, groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete member intervals: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

func (t *intervalTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (t *intervalTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to rollback: %w", err)
	}
	return nil
}

func scanIntervals(rows *sql.Rows) ([]availability.Interval, error) {
	defer rows.Close()

	var out []availability.Interval
	for rows.Next() {
		var iv availability.Interval
		var start, end string
		if err := rows.Scan(&iv.ID, &iv.UserID, &iv.GroupID, &start, &end, &iv.CreatedAt, &iv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		var err error
		if iv.StartDate, err = dates.Parse(start); err != nil {
			return nil, err
		}
		if iv.EndDate, err = dates.Parse(end); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interval rows: %w", err)
	}
	return out, nil
}
