package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsWeekend(t *testing.T) {
	// 2025-01-06 is a Monday.
	monday := New(2025, time.January, 6)
	want := map[time.Weekday]bool{
		time.Monday:    false,
		time.Tuesday:   false,
		time.Wednesday: false,
		time.Thursday:  false,
		time.Friday:    true,
		time.Saturday:  true,
		time.Sunday:    true,
	}
	for i := 0; i < 7; i++ {
		day := AddDays(monday, i)
		require.Equal(t, want[day.Weekday()], IsWeekend(day), day.Weekday().String())
	}
}

func TestParseFormat(t *testing.T) {
	d, err := Parse("2025-03-09")
	require.NoError(t, err)
	require.Equal(t, New(2025, time.March, 9), d)
	require.Equal(t, "2025-03-09", Format(d))
	require.Equal(t, "", Format(time.Time{}))

	_, err = Parse("2025-13-01")
	require.Error(t, err)

	m, err := ParseMonth("2024-02")
	require.NoError(t, err)
	require.Equal(t, New(2024, time.February, 1), m)
	require.Equal(t, New(2024, time.February, 29), LastOfMonth(m))
}

func TestOfDropsClockAndZone(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	in := time.Date(2025, time.May, 1, 23, 30, 0, 0, loc)
	require.Equal(t, New(2025, time.May, 1), Of(in))
}

func TestWeekBounds(t *testing.T) {
	// June 2025 starts on a Sunday and ends on a Monday.
	first := New(2025, time.June, 1)
	require.Equal(t, first, StartOfWeek(first))
	last := LastOfMonth(first)
	require.Equal(t, New(2025, time.July, 5), EndOfWeek(last))

	require.Equal(t, 0, DaysBetween(first, first))
	require.Equal(t, 29, DaysBetween(first, last))
}
