package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/ganot/overlap/internal/domain/activity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type activityDoc struct {
	ID           int64                 `bson:"_id"`
	GroupID      string                `bson:"group_id"`
	UserID       string                `bson:"user_id"`
	ActivityType activity.ActivityType `bson:"activity_type"`
	Summary      string                `bson:"summary"`
	Details      string                `bson:"details,omitempty"`
	CreatedAt    time.Time             `bson:"created_at"`
}

// ActivityRepository implements activity.Repository on MongoDB.
type ActivityRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{
		collection: db.Database.Collection(ActivityCollection),
		counters:   db.Database.Collection(CountersCollection),
	}
}

func (r *ActivityRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": ActivityCollection},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate activity id: %w", err)
	}
	return counter.Seq, nil
}

func (r *ActivityRepository) Log(ctx context.Context, groupID string, entry *activity.ActivityEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	id, err := r.nextID(ctx)
	if err != nil {
		return err
	}

	doc := activityDoc{
		ID:           id,
		GroupID:      groupID,
		UserID:       entry.UserID,
		ActivityType: entry.ActivityType,
		Summary:      entry.Summary,
		Details:      entry.Details,
		CreatedAt:    entry.CreatedAt.UTC().Truncate(time.Millisecond),
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	entry.ID = id
	entry.GroupID = groupID
	return nil
}

func (r *ActivityRepository) List(ctx context.Context, groupID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	filter := bson.M{"group_id": groupID}
	if opts.UserID != "" {
		filter["user_id"] = opts.UserID
	}
	if opts.ActivityType != nil {
		filter["activity_type"] = *opts.ActivityType
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []activityDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode activity: %w", err)
	}

	entries := make([]activity.ActivityEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, activity.ActivityEntry{
			ID:           d.ID,
			GroupID:      d.GroupID,
			UserID:       d.UserID,
			ActivityType: d.ActivityType,
			Summary:      d.Summary,
			Details:      d.Details,
			CreatedAt:    d.CreatedAt,
		})
	}
	return entries, nil
}
