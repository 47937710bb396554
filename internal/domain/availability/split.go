package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/google/uuid"
)

// SplitEngine carves a range out of a pair's intervals.
type SplitEngine struct {
	newID func() string
	now   func() time.Time
}

// NewSplitEngine creates a split engine using random ids and the wall clock.
func NewSplitEngine() SplitEngine {
	return SplitEngine{newID: uuid.NewString, now: time.Now}
}

// SplitResult counts what a removal did to the stored intervals.
type SplitResult struct {
	Deleted  int `json:"deleted"`
	Trimmed  int `json:"trimmed"`
	Split    int `json:"split"`
	Inserted int `json:"inserted"`
}

// Touched reports whether any interval changed.
func (r SplitResult) Touched() bool {
	return r.Deleted+r.Trimmed+r.Split > 0
}

// Remove subtracts r from the pair's coverage. Only intervals that share at
// least one date with r are touched; an interval that merely borders r is
// left alone. Removing a span nobody covers is a successful no-op.
func (e SplitEngine) Remove(ctx context.Context, tx Tx, r Range) (SplitResult, error) {
	var res SplitResult
	if err := r.Validate(); err != nil {
		return res, err
	}

	found, err := tx.Overlapping(ctx, r.UserID, r.GroupID, r.Start, r.End)
	if err != nil {
		return res, fmt.Errorf("finding overlapping intervals: %w", err)
	}

	now := e.now().UTC()
	var doomed []string
	for i := range found {
		iv := found[i]
		coversHead := !r.Start.After(iv.StartDate)
		coversTail := !r.End.Before(iv.EndDate)

		switch {
		case coversHead && coversTail:
			doomed = append(doomed, iv.ID)
			res.Deleted++
		case !coversHead && !coversTail:
			tail := &Interval{
				ID:        e.newID(),
				UserID:    iv.UserID,
				GroupID:   iv.GroupID,
				StartDate: dates.AddDays(r.End, 1),
				EndDate:   iv.EndDate,
				CreatedAt: now,
				UpdatedAt: now,
			}
			iv.EndDate = dates.AddDays(r.Start, -1)
			iv.UpdatedAt = now
			if err := tx.Update(ctx, &iv); err != nil {
				return res, fmt.Errorf("shrinking interval %s: %w", iv.ID, err)
			}
			if err := tx.Insert(ctx, tail); err != nil {
				return res, fmt.Errorf("inserting split tail: %w", err)
			}
			res.Split++
			res.Inserted++
		case coversHead:
			iv.StartDate = dates.AddDays(r.End, 1)
			iv.UpdatedAt = now
			if err := tx.Update(ctx, &iv); err != nil {
				return res, fmt.Errorf("trimming interval head %s: %w", iv.ID, err)
			}
			res.Trimmed++
		default:
			iv.EndDate = dates.AddDays(r.Start, -1)
			iv.UpdatedAt = now
			if err := tx.Update(ctx, &iv); err != nil {
				return res, fmt.Errorf("trimming interval tail %s: %w", iv.ID, err)
			}
			res.Trimmed++
		}
	}

	if len(doomed) > 0 {
		if _, err := tx.Delete(ctx, r.UserID, r.GroupID, doomed...); err != nil {
			return res, fmt.Errorf("deleting covered intervals: %w", err)
		}
	}
	return res, nil
}
