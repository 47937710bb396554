package availability

import (
	"fmt"
	"time"

	"github.com/ganot/overlap/internal/dates"
)

// Interval is one contiguous block of a member's availability in a group.
// Start and end are inclusive calendar dates.
type Interval struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	GroupID   string    `json:"group_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Days returns the number of dates the interval covers.
func (iv Interval) Days() int {
	return dates.DaysBetween(iv.StartDate, iv.EndDate) + 1
}

// Contains reports whether d falls inside the interval.
func (iv Interval) Contains(d time.Time) bool {
	d = dates.Of(d)
	return !d.Before(iv.StartDate) && !d.After(iv.EndDate)
}

// SingleDay reports whether the interval covers exactly one date.
func (iv Interval) SingleDay() bool {
	return iv.StartDate.Equal(iv.EndDate)
}

// MaxSpanDays bounds how many dates one add or remove may cover.
const MaxSpanDays = 731

// Range is a requested span for one (user, group) pair.
type Range struct {
	UserID  string
	GroupID string
	Start   time.Time
	End     time.Time
}

// Validate checks ownership ids, date order and span width, and normalizes
// both dates.
func (r *Range) Validate() error {
	if r.UserID == "" || r.GroupID == "" {
		return ErrInvalidInput
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrInvalidRange
	}
	r.Start = dates.Of(r.Start)
	r.End = dates.Of(r.End)
	if r.End.Before(r.Start) {
		return ErrInvalidRange
	}
	if dates.DaysBetween(r.Start, r.End) >= MaxSpanDays {
		return fmt.Errorf("%w: spans more than %d days", ErrInvalidRange, MaxSpanDays)
	}
	return nil
}

// Op names a mutating availability operation.
type Op string

const (
	OpAdd         Op = "add"
	OpRemove      Op = "remove"
	OpClear       Op = "clear"
	OpDelete      Op = "delete"
	OpAddHolidays Op = "add_holidays"
)

func (op Op) adds() bool {
	return op == OpAdd || op == OpAddHolidays
}

// Change describes a committed mutation.
type Change struct {
	Op         Op        `json:"op"`
	UserID     string    `json:"user_id"`
	GroupID    string    `json:"group_id"`
	Start      time.Time `json:"start,omitempty"`
	End        time.Time `json:"end,omitempty"`
	Merged     int       `json:"merged,omitempty"`
	Split      int       `json:"split,omitempty"`
	Deleted    int       `json:"deleted,omitempty"`
	Inserted   int       `json:"inserted,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Empty reports whether the change touched no stored interval.
func (c Change) Empty() bool {
	return c.Merged == 0 && c.Split == 0 && c.Deleted == 0 && c.Inserted == 0
}

// LockKey is the advisory lock key serializing writes for one pair.
func LockKey(userID, groupID string) string {
	return "availability:" + groupID + ":" + userID
}
