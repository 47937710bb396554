package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/ganot/overlap/internal/domain/activity"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/domain/group"
	"github.com/ganot/overlap/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newTestDB connects to OVERLAP_TEST_MONGO_URI (a replica set) and uses a
// throwaway database.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	uri := os.Getenv("OVERLAP_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("OVERLAP_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, uri, "overlap_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	require.NoError(t, db.EnsureIndexes(ctx))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Database.Drop(ctx)
		_ = db.Close(ctx)
	})
	return db
}

func d(s string) time.Time {
	t, err := dates.Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestIntervalStore_MergeAndSplit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := availability.NewService(NewIntervalStore(db), nil, nil)

	_, err := svc.Add(ctx, "alice", "g1", d("2025-03-01"), d("2025-03-05"))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "alice", "g1", d("2025-03-06"), d("2025-03-10"))
	require.NoError(t, err)

	list, err := svc.List(ctx, "alice", "g1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, list[0].EndDate.Equal(d("2025-03-10")))

	require.NoError(t, svc.Remove(ctx, "alice", "g1", d("2025-03-04"), d("2025-03-05")))
	list, err = svc.List(ctx, "alice", "g1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	between, err := NewIntervalStore(db).ListByGroupBetween(ctx, "g1", d("2025-03-08"), d("2025-03-31"))
	require.NoError(t, err)
	require.Len(t, between, 1)
}

func TestIntervalStore_RollbackDiscardsWrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := NewIntervalStore(db)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, tx.Insert(ctx, &availability.Interval{
		ID: "a1", UserID: "alice", GroupID: "g1",
		StartDate: d("2025-03-01"), EndDate: d("2025-03-01"),
		CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, tx.Rollback())
	require.NoError(t, tx.Rollback())

	list, err := store.ListByGroup(ctx, "g1")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestGroupRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewGroupRepository(db)

	require.NoError(t, repo.Create(ctx, &group.Group{ID: "g1", Name: "Trip", OwnerID: "alice", CountryCode: "BR"}))
	require.ErrorIs(t, repo.Create(ctx, &group.Group{ID: "g1", Name: "Dup", OwnerID: "bob"}), repository.ErrConflict)

	require.NoError(t, repo.AddMember(ctx, "g1", "alice"))
	require.ErrorIs(t, repo.AddMember(ctx, "g1", "alice"), repository.ErrConflict)
	require.ErrorIs(t, repo.AddMember(ctx, "nope", "alice"), repository.ErrNotFound)

	members, err := repo.ListMembers(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, []string{"alice"}, members)

	require.NoError(t, repo.RemoveMember(ctx, "g1", "alice"))
	require.ErrorIs(t, repo.RemoveMember(ctx, "g1", "alice"), repository.ErrNotFound)
}

func TestGroupRepository_UpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewGroupRepository(db)
	svc := availability.NewService(NewIntervalStore(db), nil, nil)

	g := &group.Group{ID: "g1", Name: "Trip", OwnerID: "alice", CountryCode: "BR", InvitationToken: "tok"}
	require.NoError(t, repo.Create(ctx, g))
	g.IsPublic = true
	g.InvitationEnabled = true
	require.NoError(t, repo.Update(ctx, g))

	got, err := repo.Get(ctx, "g1")
	require.NoError(t, err)
	require.True(t, got.IsPublic)
	require.True(t, got.InvitationEnabled)
	require.Equal(t, "tok", got.InvitationToken)
	require.ErrorIs(t, repo.Update(ctx, &group.Group{ID: "nope"}), repository.ErrNotFound)

	_, err = svc.Add(ctx, "alice", "g1", d("2025-03-01"), d("2025-03-02"))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, "g1"))
	_, err = repo.Get(ctx, "g1")
	require.ErrorIs(t, err, repository.ErrNotFound)
	left, err := svc.List(ctx, "alice", "g1")
	require.NoError(t, err)
	require.Empty(t, left)
	require.ErrorIs(t, repo.Delete(ctx, "g1"), repository.ErrNotFound)
}

func TestActivityAndAPIKeys(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	acts := NewActivityRepository(db)
	require.NoError(t, acts.Log(ctx, "g1", &activity.ActivityEntry{UserID: "alice", ActivityType: activity.TypeAvailabilityAdded, Summary: "a"}))
	require.NoError(t, acts.Log(ctx, "g1", &activity.ActivityEntry{UserID: "bob", ActivityType: activity.TypeAvailabilityRemoved, Summary: "b"}))
	entries, err := acts.List(ctx, "g1", activity.ListActivityOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, int64(2), entries[0].ID)

	keys := NewAPIKeyRepository(db)
	require.NoError(t, keys.Create(ctx, "tok", "alice", ""))
	userID, err := keys.ResolveUser(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, "alice", userID)
	_, err = keys.ResolveUser(ctx, "bad")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
