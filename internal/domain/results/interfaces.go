package results

import (
	"context"
	"time"

	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/domain/group"
	"github.com/ganot/overlap/internal/holiday"
)

// IntervalSource reads a group's intervals in one consistent read.
type IntervalSource interface {
	ListByGroup(ctx context.Context, groupID string) ([]availability.Interval, error)
}

// RosterSource returns a group's membership view.
type RosterSource interface {
	Roster(ctx context.Context, groupID string) (*group.Roster, error)
}

// HolidayLookup answers whether a date is a public holiday.
type HolidayLookup interface {
	On(country string, date time.Time) (holiday.Holiday, bool)
}
