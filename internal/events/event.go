// Package events publishes committed availability changes.
package events

import (
	"context"
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/google/uuid"
)

// TypeAvailabilityChanged is the event type for every committed mutation.
const TypeAvailabilityChanged = "availability.changed"

// Event is the wire form of an availability change.
type Event struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	Op         string    `json:"op"`
	UserID     string    `json:"user_id"`
	GroupID    string    `json:"group_id"`
	Start      string    `json:"start,omitempty"`
	End        string    `json:"end,omitempty"`
	Merged     int       `json:"merged,omitempty"`
	Split      int       `json:"split,omitempty"`
	Deleted    int       `json:"deleted,omitempty"`
	Inserted   int       `json:"inserted,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// FromChange builds an event with a fresh ID.
func FromChange(c availability.Change) Event {
	return Event{
		EventID:    uuid.NewString(),
		Type:       TypeAvailabilityChanged,
		Op:         string(c.Op),
		UserID:     c.UserID,
		GroupID:    c.GroupID,
		Start:      dates.Format(c.Start),
		End:        dates.Format(c.End),
		Merged:     c.Merged,
		Split:      c.Split,
		Deleted:    c.Deleted,
		Inserted:   c.Inserted,
		OccurredAt: c.OccurredAt,
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) PublishChange(context.Context, availability.Change) error { return nil }

func (Nop) Close() error { return nil }
