package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/ganot/overlap/internal/domain/availability"
)

const defaultListLimit = 50

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, groupID string, entry *ActivityEntry) error {
	if entry == nil || groupID == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Log(ctx, groupID, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// RecordChange turns a committed availability change into a log entry.
func (s *Service) RecordChange(ctx context.Context, c availability.Change) error {
	details, err := json.Marshal(changeDetails{
		Start:    dates.Format(c.Start),
		End:      dates.Format(c.End),
		Merged:   c.Merged,
		Split:    c.Split,
		Deleted:  c.Deleted,
		Inserted: c.Inserted,
	})
	if err != nil {
		return fmt.Errorf("encoding activity details: %w", err)
	}
	return s.LogActivity(ctx, c.GroupID, &ActivityEntry{
		UserID:       c.UserID,
		ActivityType: typeFor(c.Op),
		Summary:      summarize(c),
		Details:      string(details),
		CreatedAt:    c.OccurredAt,
	})
}

// GetRecentActivity lists a group's entries, newest first.
func (s *Service) GetRecentActivity(ctx context.Context, groupID string, opts ListActivityOptions) ([]ActivityEntry, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	return s.repo.List(ctx, groupID, opts)
}

type changeDetails struct {
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Merged   int    `json:"merged,omitempty"`
	Split    int    `json:"split,omitempty"`
	Deleted  int    `json:"deleted,omitempty"`
	Inserted int    `json:"inserted,omitempty"`
}

func typeFor(op availability.Op) ActivityType {
	switch op {
	case availability.OpAdd:
		return TypeAvailabilityAdded
	case availability.OpRemove:
		return TypeAvailabilityRemoved
	case availability.OpClear:
		return TypeAvailabilityCleared
	case availability.OpAddHolidays:
		return TypeHolidaysAdded
	default:
		return TypeIntervalsDeleted
	}
}

func summarize(c availability.Change) string {
	switch c.Op {
	case availability.OpAdd:
		return fmt.Sprintf("marked %s to %s available", dates.Format(c.Start), dates.Format(c.End))
	case availability.OpRemove:
		return fmt.Sprintf("removed %s to %s", dates.Format(c.Start), dates.Format(c.End))
	case availability.OpClear:
		return fmt.Sprintf("cleared availability (%d intervals)", c.Deleted)
	case availability.OpAddHolidays:
		return fmt.Sprintf("added %d holidays", c.Inserted)
	default:
		return fmt.Sprintf("deleted %d intervals", c.Deleted)
	}
}
