package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/google/uuid"
)

// MergeEngine folds a new range into a pair's intervals so they stay
// pairwise non-overlapping and non-adjacent.
type MergeEngine struct {
	newID func() string
	now   func() time.Time
}

// NewMergeEngine creates a merge engine using random ids and the wall clock.
func NewMergeEngine() MergeEngine {
	return MergeEngine{newID: uuid.NewString, now: time.Now}
}

// Add inserts r, absorbing every interval of the pair that overlaps it or
// touches it on either side. It returns the resulting interval and the
// number of stored intervals absorbed.
func (e MergeEngine) Add(ctx context.Context, tx Tx, r Range) (*Interval, int, error) {
	if err := r.Validate(); err != nil {
		return nil, 0, err
	}

	found, err := tx.Overlapping(ctx, r.UserID, r.GroupID, dates.AddDays(r.Start, -1), dates.AddDays(r.End, 1))
	if err != nil {
		return nil, 0, fmt.Errorf("finding mergeable intervals: %w", err)
	}

	now := e.now().UTC()
	merged := &Interval{
		ID:        e.newID(),
		UserID:    r.UserID,
		GroupID:   r.GroupID,
		StartDate: r.Start,
		EndDate:   r.End,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if len(found) > 0 {
		ids := make([]string, 0, len(found))
		for _, iv := range found {
			if iv.StartDate.Before(merged.StartDate) {
				merged.StartDate = iv.StartDate
			}
			if iv.EndDate.After(merged.EndDate) {
				merged.EndDate = iv.EndDate
			}
			ids = append(ids, iv.ID)
		}
		if _, err := tx.Delete(ctx, r.UserID, r.GroupID, ids...); err != nil {
			return nil, 0, fmt.Errorf("deleting merged intervals: %w", err)
		}
	}

	if err := tx.Insert(ctx, merged); err != nil {
		return nil, 0, fmt.Errorf("inserting merged interval: %w", err)
	}
	return merged, len(found), nil
}
