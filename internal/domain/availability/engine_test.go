package availability_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/stretchr/testify/require"
)

func jan(day int) time.Time {
	return dates.New(2025, time.January, day)
}

type span struct{ start, end time.Time }

func spansOf(list []availability.Interval) []span {
	out := make([]span, 0, len(list))
	for _, iv := range list {
		out = append(out, span{iv.StartDate, iv.EndDate})
	}
	return out
}

func newTestService(store availability.Store) *availability.Service {
	return availability.NewService(store, nil, nil)
}

func requireCanonical(t *testing.T, list []availability.Interval) {
	t.Helper()
	for i, iv := range list {
		require.False(t, iv.EndDate.Before(iv.StartDate), "interval %d ends before it starts", i)
		if i > 0 {
			prev := list[i-1]
			require.True(t, dates.AddDays(prev.EndDate, 1).Before(iv.StartDate),
				"intervals %s..%s and %s..%s overlap or touch",
				dates.Format(prev.StartDate), dates.Format(prev.EndDate),
				dates.Format(iv.StartDate), dates.Format(iv.EndDate))
		}
	}
}

func TestAdd_AdjacentRangesMerge(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store)

	_, err := svc.Add(ctx, "u1", "g1", jan(10), jan(12))
	require.NoError(t, err)
	iv, err := svc.Add(ctx, "u1", "g1", jan(13), jan(13))
	require.NoError(t, err)
	require.Equal(t, jan(10), iv.StartDate)
	require.Equal(t, jan(13), iv.EndDate)

	list, err := svc.List(ctx, "u1", "g1")
	require.NoError(t, err)
	require.Equal(t, []span{{jan(10), jan(13)}}, spansOf(list))
}

func TestAdd_OverlappingRangesMerge(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	_, err := svc.Add(ctx, "u1", "g1", jan(1), jan(5))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "g1", jan(3), jan(10))
	require.NoError(t, err)

	list, err := svc.List(ctx, "u1", "g1")
	require.NoError(t, err)
	require.Equal(t, []span{{jan(1), jan(10)}}, spansOf(list))
}

func TestAdd_AbsorbsEverythingInside(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	_, err := svc.Add(ctx, "u1", "g1", jan(5), jan(10))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "g1", jan(15), jan(20))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "g1", jan(1), jan(25))
	require.NoError(t, err)

	list, err := svc.List(ctx, "u1", "g1")
	require.NoError(t, err)
	require.Equal(t, []span{{jan(1), jan(25)}}, spansOf(list))
}

func TestAdd_GapOfOneDayStaysSeparate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	_, err := svc.Add(ctx, "u1", "g1", jan(1), jan(5))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "g1", jan(7), jan(9))
	require.NoError(t, err)

	list, err := svc.List(ctx, "u1", "g1")
	require.NoError(t, err)
	require.Equal(t, []span{{jan(1), jan(5)}, {jan(7), jan(9)}}, spansOf(list))
}

func TestAdd_OtherPairsUntouched(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	_, err := svc.Add(ctx, "u2", "g1", jan(1), jan(5))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "g2", jan(6), jan(8))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "g1", jan(4), jan(6))
	require.NoError(t, err)

	mine, err := svc.List(ctx, "u1", "g1")
	require.NoError(t, err)
	require.Equal(t, []span{{jan(4), jan(6)}}, spansOf(mine))

	other, err := svc.List(ctx, "u2", "g1")
	require.NoError(t, err)
	require.Equal(t, []span{{jan(1), jan(5)}}, spansOf(other))

	otherGroup, err := svc.List(ctx, "u1", "g2")
	require.NoError(t, err)
	require.Equal(t, []span{{jan(6), jan(8)}}, spansOf(otherGroup))
}

func TestAdd_InvalidRange(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store)

	_, err := svc.Add(ctx, "u1", "g1", jan(12), jan(10))
	require.ErrorIs(t, err, availability.ErrInvalidRange)

	_, err = svc.Add(ctx, "u1", "g1", time.Time{}, jan(10))
	require.ErrorIs(t, err, availability.ErrInvalidRange)

	_, err = svc.Add(ctx, "u1", "g1", jan(10), time.Time{})
	require.ErrorIs(t, err, availability.ErrInvalidRange)

	_, err = svc.Add(ctx, "", "g1", jan(1), jan(2))
	require.ErrorIs(t, err, availability.ErrInvalidInput)

	list, err := svc.List(ctx, "u1", "g1")
	require.NoError(t, err)
	require.Empty(t, list)
	require.Zero(t, store.commits)
}

func TestAdd_SpanLimit(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store)

	start := jan(1)
	_, err := svc.Add(ctx, "u1", "g1", start, dates.AddDays(start, availability.MaxSpanDays))
	require.ErrorIs(t, err, availability.ErrInvalidRange)
	require.ErrorIs(t, svc.Remove(ctx, "u1", "g1", start, dates.AddDays(start, 100000)), availability.ErrInvalidRange)
	require.Zero(t, store.commits)

	iv, err := svc.Add(ctx, "u1", "g1", start, dates.AddDays(start, availability.MaxSpanDays-1))
	require.NoError(t, err)
	require.Equal(t, availability.MaxSpanDays, iv.Days())
}

func TestRemove_InteriorSplits(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	_, err := svc.Add(ctx, "u1", "g1", jan(1), jan(31))
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, "u1", "g1", jan(10), jan(20)))

	list, err := svc.List(ctx, "u1", "g1")
	require.NoError(t, err)
	require.Equal(t, []span{{jan(1), jan(9)}, {jan(21), jan(31)}}, spansOf(list))
}

func TestRemove_TrimsHead(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	_, err := svc.Add(ctx, "u1", "g1", jan(10), jan(20))
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, "u1", "g1", jan(5), jan(12)))

	list, err := svc.List(ctx, "u1", "g1")
	require.NoError(t, err)
	require.Equal(t, []span{{jan(13), jan(20)}}, spansOf(list))
}

func TestRemove_TrimsTail(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	_, err := svc.Add(ctx, "u1", "g1", jan(10), jan(20))
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, "u1", "g1", jan(18), jan(25)))

	list, err := svc.List(ctx, "u1", "g1")
	require.NoError(t, err)
	require.Equal(t, []span{{jan(10), jan(17)}}, spansOf(list))
}

func TestRemove_FullCoverAndSeveralIntervals(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	_, err := svc.Add(ctx, "u1", "g1", jan(1), jan(3))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "g1", jan(6), jan(8))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "g1", jan(12), jan(20))
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "u1", "g1", jan(2), jan(14)))

	list, err := svc.List(ctx, "u1", "g1")
	require.NoError(t, err)
	require.Equal(t, []span{{jan(1), jan(1)}, {jan(15), jan(20)}}, spansOf(list))
}

func TestRemove_AdjacentIsNotTouched(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store)

	_, err := svc.Add(ctx, "u1", "g1", jan(10), jan(20))
	require.NoError(t, err)
	before, err := svc.List(ctx, "u1", "g1")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "u1", "g1", jan(21), jan(25)))
	require.NoError(t, svc.Remove(ctx, "u1", "g1", jan(1), jan(9)))

	after, err := svc.List(ctx, "u1", "g1")
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestRemove_InvalidRange(t *testing.T) {
	svc := newTestService(newMemStore())
	err := svc.Remove(context.Background(), "u1", "g1", jan(5), jan(4))
	require.ErrorIs(t, err, availability.ErrInvalidRange)
}

func TestAddThenRemoveRestoresPriorState(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		svc := newTestService(newMemStore())
		for i := 0; i < 4; i++ {
			s := rng.Intn(60) + 1
			_, err := svc.Add(ctx, "u1", "g1", jan(s), jan(s+rng.Intn(4)))
			require.NoError(t, err)
		}
		before, err := svc.List(ctx, "u1", "g1")
		require.NoError(t, err)

		// Pick a span sharing no date with existing coverage so the pair
		// round-trips exactly.
		var s, e int
		found := false
		for attempt := 0; attempt < 100 && !found; attempt++ {
			s = rng.Intn(80) + 1
			e = s + rng.Intn(3)
			found = true
			for _, iv := range before {
				if !iv.StartDate.After(jan(e)) && !iv.EndDate.Before(jan(s)) {
					found = false
					break
				}
			}
		}
		if !found {
			continue
		}

		_, err = svc.Add(ctx, "u1", "g1", jan(s), jan(e))
		require.NoError(t, err)
		require.NoError(t, svc.Remove(ctx, "u1", "g1", jan(s), jan(e)))

		after, err := svc.List(ctx, "u1", "g1")
		require.NoError(t, err)
		require.Equal(t, spansOf(before), spansOf(after), fmt.Sprintf("round %d span %d..%d", round, s, e))
	}
}

func TestRandomSequencesStayCanonical(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 30; round++ {
		svc := newTestService(newMemStore())
		covered := map[int]bool{}

		for step := 0; step < 40; step++ {
			s := rng.Intn(90) + 1
			e := s + rng.Intn(10)
			if rng.Intn(3) == 0 {
				require.NoError(t, svc.Remove(ctx, "u1", "g1", jan(s), jan(e)))
				for d := s; d <= e; d++ {
					delete(covered, d)
				}
			} else {
				_, err := svc.Add(ctx, "u1", "g1", jan(s), jan(e))
				require.NoError(t, err)
				for d := s; d <= e; d++ {
					covered[d] = true
				}
			}

			list, err := svc.List(ctx, "u1", "g1")
			require.NoError(t, err)
			requireCanonical(t, list)

			got := map[int]bool{}
			for _, iv := range list {
				for d := iv.StartDate; !d.After(iv.EndDate); d = dates.AddDays(d, 1) {
					got[dates.DaysBetween(jan(0), d)] = true
				}
			}
			require.Equal(t, covered, got, "round %d step %d", round, step)
		}
	}
}

func TestRemove_NoOverlapIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	_, err := svc.Add(ctx, "u1", "g1", jan(1), jan(3))
	require.NoError(t, err)
	before, err := svc.List(ctx, "u1", "g1")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "u1", "g1", jan(10), jan(12)))
	require.NoError(t, svc.Remove(ctx, "u1", "g1", jan(10), jan(12)))

	after, err := svc.List(ctx, "u1", "g1")
	require.NoError(t, err)
	require.Equal(t, before, after)
}
