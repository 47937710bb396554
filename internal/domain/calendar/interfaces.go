package calendar

import (
	"context"
	"time"

	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/domain/group"
	"github.com/ganot/overlap/internal/holiday"
)

// IntervalSource reads the group's intervals intersecting a date window.
type IntervalSource interface {
	ListByGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]availability.Interval, error)
}

// RosterSource returns a group's membership view.
type RosterSource interface {
	Roster(ctx context.Context, groupID string) (*group.Roster, error)
}

// HolidayLookup lists public holidays in a window.
type HolidayLookup interface {
	Between(country string, from, to time.Time) []holiday.Holiday
}
