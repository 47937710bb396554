package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/ganot/overlap/internal/domain/activity"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogAndList(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	entry := &activity.ActivityEntry{
		UserID:       "u1",
		ActivityType: activity.TypeAvailabilityAdded,
		Summary:      "added",
	}

	repo.On("Log", ctx, "g1", entry).Return(nil)
	repo.On("List", ctx, "g1", activity.ListActivityOptions{Limit: 50}).Return([]activity.ActivityEntry{}, nil)

	svc := activity.NewService(repo, nil)
	require.NoError(t, svc.LogActivity(ctx, "g1", entry))
	require.False(t, entry.CreatedAt.IsZero())
	_, err := svc.GetRecentActivity(ctx, "g1", activity.ListActivityOptions{})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestActivityService_LogRejectsNil(t *testing.T) {
	svc := activity.NewService(&mocks.ActivityRepository{}, nil)
	require.ErrorIs(t, svc.LogActivity(context.Background(), "g1", nil), activity.ErrInvalidInput)
}

func TestActivityService_RecordChange(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	repo := &mocks.ActivityRepository{}
	repo.On("Log", ctx, "g1", mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.UserID == "u1" &&
			e.ActivityType == activity.TypeAvailabilityAdded &&
			e.Summary == "marked 2025-01-10 to 2025-01-13 available" &&
			e.Details == `{"start":"2025-01-10","end":"2025-01-13","merged":1,"inserted":1}` &&
			e.CreatedAt.Equal(at)
	})).Return(nil)

	svc := activity.NewService(repo, nil)
	err := svc.RecordChange(ctx, availability.Change{
		Op:         availability.OpAdd,
		UserID:     "u1",
		GroupID:    "g1",
		Start:      dates.New(2025, time.January, 10),
		End:        dates.New(2025, time.January, 13),
		Merged:     1,
		Inserted:   1,
		OccurredAt: at,
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
