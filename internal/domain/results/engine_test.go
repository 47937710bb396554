package results_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/domain/group"
	"github.com/ganot/overlap/internal/domain/results"
	"github.com/ganot/overlap/internal/holiday"
	"github.com/ganot/overlap/internal/repository/mocks"
	"github.com/stretchr/testify/require"
)

func day(m time.Month, d int) time.Time {
	return dates.New(2025, m, d)
}

func iv(user string, start, end time.Time) availability.Interval {
	return availability.Interval{ID: user + dates.Format(start), UserID: user, GroupID: "g1", StartDate: start, EndDate: end}
}

func roster(members ...string) group.Roster {
	return group.Roster{GroupID: "g1", MemberIDs: members, CountryCode: "BR"}
}

func TestAggregate_CountsAndPercentages(t *testing.T) {
	r := roster("a", "b", "c", "d", "e")
	intervals := []availability.Interval{
		iv("a", day(time.January, 6), day(time.January, 7)),
		iv("b", day(time.January, 6), day(time.January, 6)),
		iv("c", day(time.January, 6), day(time.January, 6)),
		iv("d", day(time.January, 7), day(time.January, 7)),
		iv("e", day(time.January, 7), day(time.January, 7)),
		iv("b", day(time.January, 7), day(time.January, 7)),
		iv("c", day(time.January, 7), day(time.January, 7)),
	}

	out := results.Aggregate(intervals, r, nil)
	require.Len(t, out, 2)

	require.Equal(t, day(time.January, 7), out[0].Date)
	require.Equal(t, 5, out[0].Count)
	require.Equal(t, 100.0, out[0].Percentage)
	require.True(t, out[0].IsFull)

	require.Equal(t, day(time.January, 6), out[1].Date)
	require.Equal(t, []string{"a", "b", "c"}, out[1].Users)
	require.Equal(t, 3, out[1].Count)
	require.Equal(t, 60.0, out[1].Percentage)
	require.False(t, out[1].IsFull)
}

func TestAggregate_OrderTiesByDate(t *testing.T) {
	r := roster("a", "b", "c")
	intervals := []availability.Interval{
		iv("a", day(time.March, 10), day(time.March, 12)),
		iv("b", day(time.March, 12), day(time.March, 12)),
	}
	out := results.Aggregate(intervals, r, nil)
	require.Len(t, out, 3)
	require.Equal(t, day(time.March, 12), out[0].Date)
	require.Equal(t, 66.7, out[0].Percentage)
	require.Equal(t, day(time.March, 10), out[1].Date)
	require.Equal(t, day(time.March, 11), out[2].Date)
	require.Equal(t, 33.3, out[2].Percentage)
}

func TestAggregate_WeekendsOnlyDropsWeekdays(t *testing.T) {
	r := roster("a", "b")
	r.WeekendsOnly = true
	// 2025-04-14 (Mon) .. 2025-04-21 (Mon). Apr 18 is Good Friday, Apr 21 is Tiradentes.
	intervals := []availability.Interval{iv("a", day(time.April, 14), day(time.April, 21))}

	out := results.Aggregate(intervals, r, holiday.NewCalendar())
	var got []string
	for _, res := range out {
		got = append(got, dates.Format(res.Date))
	}
	require.ElementsMatch(t, []string{"2025-04-18", "2025-04-19", "2025-04-20", "2025-04-21"}, got)

	for _, res := range out {
		if res.Date.Equal(day(time.April, 21)) {
			require.NotEmpty(t, res.Holiday)
			require.False(t, res.Weekend)
		}
	}
}

func TestAggregate_FridayCountsAsWeekend(t *testing.T) {
	r := roster("a")
	r.WeekendsOnly = true
	// 2025-01-09 Thursday, 2025-01-10 Friday.
	out := results.Aggregate([]availability.Interval{iv("a", day(time.January, 9), day(time.January, 10))}, r, nil)
	require.Len(t, out, 1)
	require.Equal(t, day(time.January, 10), out[0].Date)
	require.True(t, out[0].Weekend)
}

func TestAggregate_EmptyInputs(t *testing.T) {
	require.Empty(t, results.Aggregate(nil, roster("a"), nil))
	require.Empty(t, results.Aggregate([]availability.Interval{iv("a", day(time.May, 1), day(time.May, 1))}, group.Roster{}, nil))
}

func TestAggregate_IgnoresUsersOutsideRoster(t *testing.T) {
	r := roster("a", "b")
	intervals := []availability.Interval{
		iv("a", day(time.May, 1), day(time.May, 2)),
		iv("b", day(time.May, 1), day(time.May, 1)),
		iv("gone", day(time.May, 1), day(time.May, 3)),
	}

	out := results.Aggregate(intervals, r, nil)
	require.Len(t, out, 2)
	require.Equal(t, day(time.May, 1), out[0].Date)
	require.Equal(t, []string{"a", "b"}, out[0].Users)
	require.True(t, out[0].IsFull)
	require.Equal(t, 100.0, out[0].Percentage)
	require.Equal(t, day(time.May, 2), out[1].Date)
	require.Equal(t, 1, out[1].Count)
	require.False(t, out[1].IsFull)
}

func TestPercentage(t *testing.T) {
	require.Equal(t, 60.0, results.Percentage(3, 5))
	require.Equal(t, 100.0, results.Percentage(5, 5))
	require.Equal(t, 14.3, results.Percentage(1, 7))
	require.Zero(t, results.Percentage(1, 0))
}

type rosterStub struct {
	roster *group.Roster
	err    error
}

func (r rosterStub) Roster(context.Context, string) (*group.Roster, error) {
	return r.roster, r.err
}

func TestEngine_Results(t *testing.T) {
	ctx := context.Background()
	store := &mocks.IntervalStore{}
	store.On("ListByGroup", ctx, "g1").Return([]availability.Interval{
		iv("a", day(time.June, 1), day(time.June, 3)),
		iv("b", day(time.June, 2), day(time.June, 2)),
	}, nil)

	r := roster("a", "b")
	engine := results.NewEngine(store, rosterStub{roster: &r}, holiday.NewCalendar())
	out, err := engine.Results(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, day(time.June, 2), out[0].Date)
	require.True(t, out[0].IsFull)

	best, err := engine.Best(ctx, "g1", 1)
	require.NoError(t, err)
	require.Len(t, best, 1)
	store.AssertExpectations(t)
}

func TestEngine_PropagatesFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	engine := results.NewEngine(&mocks.IntervalStore{}, rosterStub{err: group.ErrGroupNotFound}, nil)
	_, err := engine.Results(ctx, "g1")
	require.ErrorIs(t, err, group.ErrGroupNotFound)

	store := &mocks.IntervalStore{}
	store.On("ListByGroup", ctx, "g1").Return(nil, boom)
	r := roster("a")
	engine = results.NewEngine(store, rosterStub{roster: &r}, nil)
	_, err = engine.Results(ctx, "g1")
	require.ErrorIs(t, err, boom)
}
