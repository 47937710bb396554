package availability

import (
	"context"
	"time"

	"github.com/ganot/overlap/internal/holiday"
)

// Store persists availability intervals.
type Store interface {
	// Begin opens a unit of work. Nothing written through the Tx is
	// visible to other readers until Commit.
	Begin(ctx context.Context) (Tx, error)
	ListByMember(ctx context.Context, userID, groupID string) ([]Interval, error)
	ListByGroup(ctx context.Context, groupID string) ([]Interval, error)
	// ListByGroupBetween returns the group's intervals that intersect [from, to].
	ListByGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]Interval, error)
}

// Tx is a unit of work scoped to the store. Rollback after Commit is a no-op.
type Tx interface {
	// Overlapping returns the pair's intervals with start <= to and end >= from,
	// ordered by start date.
	Overlapping(ctx context.Context, userID, groupID string, from, to time.Time) ([]Interval, error)
	Insert(ctx context.Context, iv *Interval) error
	Update(ctx context.Context, iv *Interval) error
	// Delete removes the listed intervals owned by the pair and returns how
	// many were removed. Ids owned by another pair are ignored.
	Delete(ctx context.Context, userID, groupID string, ids ...string) (int, error)
	DeleteAll(ctx context.Context, userID, groupID string) (int, error)
	Commit() error
	Rollback() error
}

// Locker serializes writers sharing a key.
type Locker interface {
	Lock(ctx context.Context, key string) (release func() error, err error)
}

// MembershipGuard confirms the user still belongs to the group. It runs
// under the pair's lock before any write that adds availability.
type MembershipGuard interface {
	CheckMember(ctx context.Context, userID, groupID string) error
}

// HolidaySource lists public holidays for a country.
type HolidaySource interface {
	Between(country string, from, to time.Time) []holiday.Holiday
}

// ActivityLog records committed changes.
type ActivityLog interface {
	RecordChange(ctx context.Context, c Change) error
}

// Publisher announces committed changes to other systems.
type Publisher interface {
	PublishChange(ctx context.Context, c Change) error
}

// Recorder collects operation metrics.
type Recorder interface {
	ObserveOperation(op string, err error, elapsed time.Duration)
	ObserveLockWait(elapsed time.Duration)
	IntervalsMerged(n int)
	IntervalsSplit(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, error, time.Duration) {}
func (nopRecorder) ObserveLockWait(time.Duration)                 {}
func (nopRecorder) IntervalsMerged(int)                           {}
func (nopRecorder) IntervalsSplit(int)                            {}
