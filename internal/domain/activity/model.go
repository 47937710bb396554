package activity

import "time"

// ActivityType represents the type of availability event
type ActivityType string

const (
	TypeAvailabilityAdded   ActivityType = "availability_added"
	TypeAvailabilityRemoved ActivityType = "availability_removed"
	TypeAvailabilityCleared ActivityType = "availability_cleared"
	TypeIntervalsDeleted    ActivityType = "intervals_deleted"
	TypeHolidaysAdded       ActivityType = "holidays_added"
)

// ActivityEntry represents an event in a group's activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	GroupID      string       `json:"group_id"`
	UserID       string       `json:"user_id"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	UserID       string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
