package mocks

import (
	"context"
	"time"

	"github.com/ganot/overlap/internal/domain/activity"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/domain/group"
	"github.com/stretchr/testify/mock"
)

// IntervalStore is a mock for availability.Store.
type IntervalStore struct {
	mock.Mock
}

func (m *IntervalStore) Begin(ctx context.Context) (availability.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(availability.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IntervalStore) ListByMember(ctx context.Context, userID, groupID string) ([]availability.Interval, error) {
	args := m.Called(ctx, userID, groupID)
	if list, ok := args.Get(0).([]availability.Interval); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IntervalStore) ListByGroup(ctx context.Context, groupID string) ([]availability.Interval, error) {
	args := m.Called(ctx, groupID)
	if list, ok := args.Get(0).([]availability.Interval); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IntervalStore) ListByGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]availability.Interval, error) {
	args := m.Called(ctx, groupID, from, to)
	if list, ok := args.Get(0).([]availability.Interval); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// IntervalTx is a mock for availability.Tx.
type IntervalTx struct {
	mock.Mock
}

func (m *IntervalTx) Overlapping(ctx context.Context, userID, groupID string, from, to time.Time) ([]availability.Interval, error) {
	args := m.Called(ctx, userID, groupID, from, to)
	if list, ok := args.Get(0).([]availability.Interval); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IntervalTx) Insert(ctx context.Context, iv *availability.Interval) error {
	args := m.Called(ctx, iv)
	return args.Error(0)
}

func (m *IntervalTx) Update(ctx context.Context, iv *availability.Interval) error {
	args := m.Called(ctx, iv)
	return args.Error(0)
}

func (m *IntervalTx) Delete(ctx context.Context, userID, groupID string, ids ...string) (int, error) {
	args := m.Called(ctx, userID, groupID, ids)
	return args.Int(0), args.Error(1)
}

func (m *IntervalTx) DeleteAll(ctx context.Context, userID, groupID string) (int, error) {
	args := m.Called(ctx, userID, groupID)
	return args.Int(0), args.Error(1)
}

func (m *IntervalTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *IntervalTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// GroupRepository is a mock for group.Repository.
type GroupRepository struct {
	mock.Mock
}

func (m *GroupRepository) Create(ctx context.Context, g *group.Group) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *GroupRepository) Get(ctx context.Context, id string) (*group.Group, error) {
	args := m.Called(ctx, id)
	if g, ok := args.Get(0).(*group.Group); ok {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *GroupRepository) Update(ctx context.Context, g *group.Group) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *GroupRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *GroupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *GroupRepository) ListMembers(ctx context.Context, groupID string) ([]string, error) {
	args := m.Called(ctx, groupID)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

// AvailabilityEvictor is a mock for group.AvailabilityEvictor. When the
// expectation returns no error it runs detach like the real service does.
type AvailabilityEvictor struct {
	mock.Mock
}

func (m *AvailabilityEvictor) Evict(ctx context.Context, userID, groupID string, detach func(context.Context) error) (int, error) {
	args := m.Called(ctx, userID, groupID)
	if err := args.Error(1); err != nil || detach == nil {
		return args.Int(0), err
	}
	return args.Int(0), detach(ctx)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, groupID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, groupID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, groupID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, groupID, opts)
	if entries, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}
