package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/ganot/overlap/internal/lock"
	"github.com/ganot/overlap/internal/repository"
)

// Service runs availability mutations. Each mutation holds the pair's
// advisory lock for the whole unit of work, so concurrent writes for one
// (user, group) never interleave while other pairs proceed in parallel.
type Service struct {
	store    Store
	locker   Locker
	merge    MergeEngine
	split    SplitEngine
	holidays HolidaySource
	guard    MembershipGuard
	activity ActivityLog
	events   Publisher
	metrics  Recorder
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithHolidays sets the holiday source used by AddHolidays.
func WithHolidays(h HolidaySource) Option {
	return func(s *Service) { s.holidays = h }
}

// WithMembershipGuard rejects adds from users who are no longer members.
func WithMembershipGuard(g MembershipGuard) Option {
	return func(s *Service) { s.guard = g }
}

// WithActivityLog records every committed change.
func WithActivityLog(a ActivityLog) Option {
	return func(s *Service) { s.activity = a }
}

// WithPublisher announces every committed change.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithRecorder collects operation metrics.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithClock overrides the wall clock for stored timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.merge.now = now
		s.split.now = now
	}
}

// NewService creates a new availability service. A nil locker falls back to
// an in-process per-key lock.
func NewService(store Store, locker Locker, logger *slog.Logger, opts ...Option) *Service {
	if locker == nil {
		locker = lock.NewLocal()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		store:   store,
		locker:  locker,
		merge:   NewMergeEngine(),
		split:   NewSplitEngine(),
		metrics: nopRecorder{},
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add records [start, end] for the user in the group and returns the
// interval that now covers it.
func (s *Service) Add(ctx context.Context, userID, groupID string, start, end time.Time) (*Interval, error) {
	r := Range{UserID: userID, GroupID: groupID, Start: start, End: end}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var result *Interval
	err := s.mutate(ctx, OpAdd, r, func(ctx context.Context, tx Tx, c *Change) error {
		iv, absorbed, err := s.merge.Add(ctx, tx, r)
		if err != nil {
			return err
		}
		result = iv
		c.Merged = absorbed
		c.Inserted = 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Remove takes [start, end] out of the user's availability in the group.
func (s *Service) Remove(ctx context.Context, userID, groupID string, start, end time.Time) error {
	r := Range{UserID: userID, GroupID: groupID, Start: start, End: end}
	if err := r.Validate(); err != nil {
		return err
	}

	return s.mutate(ctx, OpRemove, r, func(ctx context.Context, tx Tx, c *Change) error {
		res, err := s.split.Remove(ctx, tx, r)
		if err != nil {
			return err
		}
		c.Split = res.Split
		c.Deleted = res.Deleted
		c.Inserted = res.Inserted
		return nil
	})
}

// Clear removes every interval the user holds in the group.
func (s *Service) Clear(ctx context.Context, userID, groupID string) (int, error) {
	return s.Evict(ctx, userID, groupID, nil)
}

// Evict clears the pair's intervals and then runs detach, typically the
// membership removal, before the pair's lock is released. An add waiting on
// the lock therefore sees the membership already gone. A detach failure is
// returned after the clear has committed.
func (s *Service) Evict(ctx context.Context, userID, groupID string, detach func(context.Context) error) (int, error) {
	if userID == "" || groupID == "" {
		return 0, ErrInvalidInput
	}

	var deleted int
	err := s.mutateThen(ctx, OpClear, Range{UserID: userID, GroupID: groupID}, func(ctx context.Context, tx Tx, c *Change) error {
		n, err := tx.DeleteAll(ctx, userID, groupID)
		if err != nil {
			return fmt.Errorf("deleting member intervals: %w", err)
		}
		deleted = n
		c.Deleted = n
		return nil
	}, detach)
	return deleted, err
}

// DeleteInterval removes one interval owned by the pair.
func (s *Service) DeleteInterval(ctx context.Context, userID, groupID, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	n, err := s.DeleteIntervals(ctx, userID, groupID, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrIntervalNotFound
	}
	return nil
}

// DeleteIntervals removes the listed intervals owned by the pair and
// returns how many were removed. Ids belonging to anyone else are skipped.
func (s *Service) DeleteIntervals(ctx context.Context, userID, groupID string, ids []string) (int, error) {
	if userID == "" || groupID == "" {
		return 0, ErrInvalidInput
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int
	err := s.mutate(ctx, OpDelete, Range{UserID: userID, GroupID: groupID}, func(ctx context.Context, tx Tx, c *Change) error {
		n, err := tx.Delete(ctx, userID, groupID, ids...)
		if err != nil {
			return fmt.Errorf("deleting intervals: %w", err)
		}
		deleted = n
		c.Deleted = n
		return nil
	})
	return deleted, err
}

// AddHolidays marks the user available on every public holiday of the
// country in year. Each holiday goes through the merge engine inside a
// single unit of work. It returns the number of holidays added.
func (s *Service) AddHolidays(ctx context.Context, userID, groupID, country string, year int) (int, error) {
	if userID == "" || groupID == "" {
		return 0, ErrInvalidInput
	}
	if s.holidays == nil {
		return 0, fmt.Errorf("%w: no holiday source configured", ErrInvalidInput)
	}

	days := s.holidays.Between(country, dates.New(year, time.January, 1), dates.New(year, time.December, 31))
	if len(days) == 0 {
		return 0, nil
	}

	scope := Range{UserID: userID, GroupID: groupID, Start: days[0].Date, End: days[len(days)-1].Date}
	err := s.mutate(ctx, OpAddHolidays, scope, func(ctx context.Context, tx Tx, c *Change) error {
		for _, h := range days {
			_, absorbed, err := s.merge.Add(ctx, tx, Range{UserID: userID, GroupID: groupID, Start: h.Date, End: h.Date})
			if err != nil {
				return fmt.Errorf("adding holiday %s: %w", dates.Format(h.Date), err)
			}
			c.Merged += absorbed
			c.Inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(days), nil
}

// List returns the user's intervals in the group ordered by start date.
func (s *Service) List(ctx context.Context, userID, groupID string) ([]Interval, error) {
	if userID == "" || groupID == "" {
		return nil, ErrInvalidInput
	}
	intervals, err := s.store.ListByMember(ctx, userID, groupID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing member intervals: %w", ErrPersistence, err)
	}
	return intervals, nil
}

// MemberDays returns, per user, how many dates they have marked available.
func (s *Service) MemberDays(ctx context.Context, groupID string) (map[string]int, error) {
	if groupID == "" {
		return nil, ErrInvalidInput
	}
	intervals, err := s.store.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing group intervals: %w", ErrPersistence, err)
	}
	days := make(map[string]int)
	for _, iv := range intervals {
		days[iv.UserID] += iv.Days()
	}
	return days, nil
}

func (s *Service) mutate(ctx context.Context, op Op, r Range, fn func(context.Context, Tx, *Change) error) error {
	return s.mutateThen(ctx, op, r, fn, nil)
}

// mutateThen runs fn as one unit of work under the pair's lock. When fn
// commits, after runs while the lock is still held.
func (s *Service) mutateThen(ctx context.Context, op Op, r Range, fn func(context.Context, Tx, *Change) error, after func(context.Context) error) error {
	started := time.Now()
	change := Change{Op: op, UserID: r.UserID, GroupID: r.GroupID, Start: r.Start, End: r.End}

	release, err := s.acquire(ctx, r.UserID, r.GroupID)
	if err != nil {
		s.metrics.ObserveOperation(string(op), err, time.Since(started))
		return err
	}
	defer release()

	if s.guard != nil && op.adds() {
		err = s.guard.CheckMember(ctx, r.UserID, r.GroupID)
	}
	if err == nil {
		err = s.inUnitOfWork(ctx, func(tx Tx) error {
			return fn(ctx, tx, &change)
		})
	}
	s.metrics.ObserveOperation(string(op), err, time.Since(started))
	if err != nil {
		s.logger.Warn("availability change failed", "op", op, "user_id", r.UserID, "group_id", r.GroupID, "error", err)
		return err
	}

	change.OccurredAt = s.now().UTC()
	s.metrics.IntervalsMerged(change.Merged)
	s.metrics.IntervalsSplit(change.Split)
	s.logger.Info("availability changed",
		"op", op,
		"user_id", r.UserID,
		"group_id", r.GroupID,
		"start", dates.Format(r.Start),
		"end", dates.Format(r.End),
		"merged", change.Merged,
		"split", change.Split,
		"deleted", change.Deleted,
	)

	var afterErr error
	if after != nil {
		afterErr = after(ctx)
	}
	if !change.Empty() {
		s.notify(ctx, change)
	}
	return afterErr
}

// acquire takes the pair's lock and returns its release.
func (s *Service) acquire(ctx context.Context, userID, groupID string) (func(), error) {
	waitStart := time.Now()
	release, err := s.locker.Lock(ctx, LockKey(userID, groupID))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLocked, err)
	}
	s.metrics.ObserveLockWait(time.Since(waitStart))
	return func() {
		if err := release(); err != nil {
			s.logger.Warn("failed to release availability lock", "user_id", userID, "group_id", groupID, "error", err)
		}
	}, nil
}

func (s *Service) inUnitOfWork(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: beginning unit of work: %w", ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		switch {
		case errors.Is(err, ErrInvalidRange), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrIntervalNotFound):
			return err
		case errors.Is(err, repository.ErrNotFound):
			return ErrIntervalNotFound
		default:
			return fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing: %w", ErrPersistence, err)
	}
	return nil
}

// notify fans a committed change out to the activity log and event stream.
// Failures are logged and never undo the change. Changes that touched
// nothing are not announced.
func (s *Service) notify(ctx context.Context, c Change) {
	if s.activity != nil {
		if err := s.activity.RecordChange(ctx, c); err != nil {
			s.logger.Warn("failed to record availability activity", "op", c.Op, "group_id", c.GroupID, "error", err)
		}
	}
	if s.events != nil {
		if err := s.events.PublishChange(ctx, c); err != nil {
			s.logger.Warn("failed to publish availability change", "op", c.Op, "group_id", c.GroupID, "error", err)
		}
	}
}
