package results

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

// Engine aggregates a group's intervals into per-date participation.
// It never writes.
type Engine struct {
	intervals IntervalSource
	roster    RosterSource
	holidays  HolidayLookup
}

// NewEngine creates a new aggregation engine.
func NewEngine(intervals IntervalSource, roster RosterSource, holidays HolidayLookup) *Engine {
	return &Engine{intervals: intervals, roster: roster, holidays: holidays}
}

// Results returns the group's dates, best first.
func (e *Engine) Results(ctx context.Context, groupID string) ([]DateResult, error) {
	roster, err := e.roster.Roster(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	intervals, err := e.intervals.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("loading intervals: %w", err)
	}
	return Aggregate(intervals, *roster, e.holidays), nil
}

// Best returns at most limit results. A non-positive limit returns all.
func (e *Engine) Best(ctx context.Context, groupID string, limit int) ([]DateResult, error) {
	list, err := e.Results(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Aggregate computes, for every date covered by at least one member's
// interval, the distinct members available, their count and share of the
// roster. Intervals of users outside the roster are ignored. When the roster
// is weekends-only, dates that are neither weekend nor holiday are dropped.
// Results are ordered by count descending, then date ascending.
func Aggregate(intervals []availability.Interval, roster group.Roster, holidays HolidayLookup) []DateResult {
	byDate := make(map[time.Time]map[string]struct{})
	for _, iv := range intervals {
		if !roster.Has(iv.UserID) {
			continue
		}
		for d := iv.StartDate; !d.After(iv.EndDate); d = dates.AddDays(d, 1) {
			users, ok := byDate[d]
			if !ok {
				users = make(map[string]struct{})
				byDate[d] = users
			}
			users[iv.UserID] = struct{}{}
		}
	}

	total := roster.Total()
	out := make([]DateResult, 0, len(byDate))
	for d, users := range byDate {
		weekend := dates.IsWeekend(d)
		var holidayName string
		if holidays != nil {
			if h, ok := holidays.On(roster.CountryCode, d); ok {
				holidayName = h.Name
			}
		}
		if roster.WeekendsOnly && !weekend && holidayName == "" {
			continue
		}

		ids := make([]string, 0, len(users))
		for id := range users {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		out = append(out, DateResult{
			Date:       d,
			Users:      ids,
			Count:      len(ids),
			Percentage: Percentage(len(ids), total),
			IsFull:     total > 0 && len(ids) == total,
			Weekend:    weekend,
			Holiday:    holidayName,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Percentage returns count/total as a percentage rounded to one decimal.
// An empty roster yields 0.
func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(count)*100/float64(total)*10) / 10
}
