package ics

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/domain/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMember(t *testing.T) {
	stamp := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	out := Member("alice in Trip", []availability.Interval{
		{ID: "a1", UserID: "alice", GroupID: "g1", StartDate: day(2025, 3, 1), EndDate: day(2025, 3, 5)},
		{ID: "a2", UserID: "alice", GroupID: "g1", StartDate: day(2025, 3, 9), EndDate: day(2025, 3, 9)},
	}, stamp)

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	assert.Equal(t, "a1@overlap", events[0].Id())
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250301")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20250306")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250309")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20250310")
	assert.Contains(t, out, "X-WR-CALNAME:alice in Trip")
	assert.Equal(t, "Available", events[1].GetProperty(ical.ComponentPropertySummary).Value)
}

func TestBestDates(t *testing.T) {
	out := BestDates("", "g1", []results.DateResult{
		{Date: day(2025, 4, 18), Count: 3, Percentage: 100, IsFull: true, Holiday: "Sexta-feira Santa"},
		{Date: day(2025, 4, 19), Count: 2, Percentage: 66.7},
	}, 3, time.Now())

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	assert.Equal(t, "g1-2025-04-18@overlap", events[0].Id())
	assert.Equal(t, "3/3 available", events[0].GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "2/3 available", events[1].GetProperty(ical.ComponentPropertySummary).Value)
	assert.Contains(t, events[0].GetProperty(ical.ComponentPropertyDescription).Value, "Sexta-feira Santa")
	assert.NotContains(t, out, "X-WR-CALNAME")
}

func TestEmptyExport(t *testing.T) {
	out := Member("", nil, time.Now())
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "PRODID:"+productID)
	assert.NotContains(t, out, "BEGIN:VEVENT")
}
