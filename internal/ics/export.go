// Package ics renders availability and best dates as iCalendar feeds.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/ganot/overlap/internal/dates"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/domain/results"
)

const productID = "-//overlap//availability//EN"

// ContentType is the media type served for exports.
const ContentType = "text/calendar; charset=utf-8"

// Member renders one member's intervals as all-day events. DTEND is
// exclusive, so each event ends the day after the interval's last day.
func Member(calName string, intervals []availability.Interval, stamp time.Time) string {
	cal := newCalendar(calName)
	for _, iv := range intervals {
		ev := cal.AddEvent(iv.ID + "@overlap")
		ev.SetDtStampTime(stamp.UTC())
		ev.SetAllDayStartAt(iv.StartDate)
		ev.SetAllDayEndAt(dates.AddDays(iv.EndDate, 1))
		ev.SetSummary("Available")
		ev.SetDescription(fmt.Sprintf("%s to %s (%d days)", dates.Format(iv.StartDate), dates.Format(iv.EndDate), iv.Days()))
		if !iv.UpdatedAt.IsZero() {
			ev.SetModifiedAt(iv.UpdatedAt.UTC())
		}
	}
	return cal.Serialize()
}

// BestDates renders ranked dates as single-day events summarised as
// "N/M available".
func BestDates(calName, groupID string, best []results.DateResult, total int, stamp time.Time) string {
	cal := newCalendar(calName)
	for _, r := range best {
		ev := cal.AddEvent(fmt.Sprintf("%s-%s@overlap", groupID, dates.Format(r.Date)))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetAllDayStartAt(r.Date)
		ev.SetAllDayEndAt(dates.AddDays(r.Date, 1))
		ev.SetSummary(fmt.Sprintf("%d/%d available", r.Count, total))

		desc := fmt.Sprintf("%.1f%% of members", r.Percentage)
		if r.Holiday != "" {
			desc += ", " + r.Holiday
		}
		ev.SetDescription(desc)
	}
	return cal.Serialize()
}

func newCalendar(name string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	return cal
}
