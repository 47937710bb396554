package calendar

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/domain/group"
)

// Builder lays out month grids. It never writes.
type Builder struct {
	intervals IntervalSource
	roster    RosterSource
	holidays  HolidayLookup
	now       func() time.Time
}

// NewBuilder creates a grid builder. A nil clock uses time.Now.
func NewBuilder(intervals IntervalSource, roster RosterSource, holidays HolidayLookup, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{intervals: intervals, roster: roster, holidays: holidays, now: now}
}

// Grid builds the grid for the month containing month, as seen by viewerID.
func (b *Builder) Grid(ctx context.Context, groupID string, month time.Time, viewerID string) (*Grid, error) {
	roster, err := b.roster.Roster(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}

	from, to := Bounds(month)
	intervals, err := b.intervals.ListByGroupBetween(ctx, groupID, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading intervals: %w", err)
	}

	holidays := make(map[time.Time]string)
	if b.holidays != nil {
		for _, h := range b.holidays.Between(roster.CountryCode, from, to) {
			holidays[h.Date] = h.Name
		}
	}

	return Build(month, viewerID, intervals, *roster, holidays, dates.Of(b.now())), nil
}

// Bounds returns the Sunday on or before the first of month and the
// Saturday on or after its last day.
func Bounds(month time.Time) (time.Time, time.Time) {
	return dates.StartOfWeek(dates.FirstOfMonth(month)), dates.EndOfWeek(dates.LastOfMonth(month))
}

// Build lays out the grid from already loaded data. holidays maps a date
// to its holiday name. Only roster members count as available.
func Build(month time.Time, viewerID string, intervals []availability.Interval, roster group.Roster, holidays map[time.Time]string, today time.Time) *Grid {
	first := dates.FirstOfMonth(month)
	from, to := Bounds(first)

	n := dates.DaysBetween(from, to) + 1
	available := make([]map[string]struct{}, n)
	for _, iv := range intervals {
		if !roster.Has(iv.UserID) {
			continue
		}
		start, end := iv.StartDate, iv.EndDate
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		for d := start; !d.After(end); d = dates.AddDays(d, 1) {
			i := dates.DaysBetween(from, d)
			if available[i] == nil {
				available[i] = make(map[string]struct{})
			}
			available[i][iv.UserID] = struct{}{}
		}
	}

	total := roster.Total()
	days := make([]DayCell, 0, n)
	for i := 0; i < n; i++ {
		d := dates.AddDays(from, i)
		users := make([]string, 0, len(available[i]))
		for id := range available[i] {
			users = append(users, id)
		}
		sort.Strings(users)
		_, viewer := available[i][viewerID]

		name, isHoliday := holidays[d]
		weekend := dates.IsWeekend(d)
		days = append(days, DayCell{
			Date:            d,
			Day:             d.Day(),
			InMonth:         d.Month() == first.Month(),
			Weekend:         weekend,
			Holiday:         isHoliday,
			HolidayName:     name,
			Today:           d.Equal(today),
			Users:           users,
			ViewerAvailable: viewerID != "" && viewer,
			AvailableCount:  len(users),
			TotalMembers:    total,
			Percentage:      Percentage(len(users), total),
			Disabled:        roster.WeekendsOnly && !weekend && !isHoliday,
		})
	}

	return &Grid{
		GroupID:   roster.GroupID,
		Year:      first.Year(),
		Month:     int(first.Month()),
		MonthName: first.Month().String(),
		PrevMonth: first.AddDate(0, -1, 0).Format(dates.MonthLayout),
		NextMonth: first.AddDate(0, 1, 0).Format(dates.MonthLayout),
		Days:      days,
	}
}

// Percentage returns count/total as a whole percentage. An empty roster yields 0.
func Percentage(count, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(count) * 100 / float64(total)))
}
