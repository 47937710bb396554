package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type intervalDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	GroupID   string    `bson:"group_id"`
	StartDate string    `bson:"start_date"`
	EndDate   string    `bson:"end_date"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toDoc(iv *availability.Interval) intervalDoc {
	return intervalDoc{
		ID:        iv.ID,
		UserID:    iv.UserID,
		GroupID:   iv.GroupID,
		StartDate: dates.Format(iv.StartDate),
		EndDate:   dates.Format(iv.EndDate),
		CreatedAt: iv.CreatedAt,
		UpdatedAt: iv.UpdatedAt,
	}
}

func (d intervalDoc) interval() (availability.Interval, error) {
	start, err := dates.Parse(d.StartDate)
	if err != nil {
		return availability.Interval{}, err
	}
	end, err := dates.Parse(d.EndDate)
	if err != nil {
		return availability.Interval{}, err
	}
	return availability.Interval{
		ID:        d.ID,
		UserID:    d.UserID,
		GroupID:   d.GroupID,
		StartDate: start,
		EndDate:   end,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

// IntervalStore implements availability.Store on MongoDB.
type IntervalStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewIntervalStore creates a new IntervalStore
func NewIntervalStore(db *DB) *IntervalStore {
	return &IntervalStore{client: db.Client, collection: db.Database.Collection(AvailabilitiesCollection)}
}

// Begin starts a session and a transaction on it.
func (s *IntervalStore) Begin(ctx context.Context) (availability.Tx, error) {
	session, err := s.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	if err := session.StartTransaction(); err != nil {
		session.EndSession(ctx)
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return &intervalTx{session: session, collection: s.collection}, nil
}

// ListByMember returns one user's intervals in a group ordered by start date.
func (s *IntervalStore) ListByMember(ctx context.Context, userID, groupID string) ([]availability.Interval, error) {
	return s.snapshotFind(ctx, bson.M{"group_id": groupID, "user_id": userID})
}

// ListByGroup returns every interval in a group.
func (s *IntervalStore) ListByGroup(ctx context.Context, groupID string) ([]availability.Interval, error) {
	return s.snapshotFind(ctx, bson.M{"group_id": groupID})
}

// ListByGroupBetween returns the group's intervals intersecting [from, to].
func (s *IntervalStore) ListByGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]availability.Interval, error) {
	return s.snapshotFind(ctx, bson.M{
		"group_id":   groupID,
		"start_date": bson.M{"$lte": dates.Format(to)},
		"end_date":   bson.M{"$gte": dates.Format(from)},
	})
}

// snapshotFind reads at a single point in time so a committing unit of
// work is seen entirely or not at all.
func (s *IntervalStore) snapshotFind(ctx context.Context, filter bson.M) ([]availability.Interval, error) {
	session, err := s.client.StartSession(options.Session().SetSnapshot(true))
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	return find(mongo.NewSessionContext(ctx, session), s.collection, filter)
}

func find(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]availability.Interval, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "user_id", Value: 1}})
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query intervals: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []intervalDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode intervals: %w", err)
	}

	out := make([]availability.Interval, 0, len(docs))
	for _, d := range docs {
		iv, err := d.interval()
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, nil
}

type intervalTx struct {
	session    mongo.Session
	collection *mongo.Collection
	done       bool
}

func (t *intervalTx) ctx(ctx context.Context) mongo.SessionContext {
	return mongo.NewSessionContext(ctx, t.session)
}

func (t *intervalTx) Overlapping(ctx context.Context, userID, groupID string, from, to time.Time) ([]availability.Interval, error) {
	return find(t.ctx(ctx), t.collection, bson.M{
		"group_id":   groupID,
		"user_id":    userID,
		"start_date": bson.M{"$lte": dates.Format(to)},
		"end_date":   bson.M{"$gte": dates.Format(from)},
	})
}

func (t *intervalTx) Insert(ctx context.Context, iv *availability.Interval) error {
	if _, err := t.collection.InsertOne(t.ctx(ctx), toDoc(iv)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to insert interval: %w", err)
	}
	return nil
}

func (t *intervalTx) Update(ctx context.Context, iv *availability.Interval) error {
	result, err := t.collection.UpdateOne(t.ctx(ctx),
		bson.M{"_id": iv.ID, "user_id": iv.UserID, "group_id": iv.GroupID},
		bson.M{"$set": bson.M{
			"start_date": dates.Format(iv.StartDate),
			"end_date":   dates.Format(iv.EndDate),
			"updated_at": iv.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update interval: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (t *intervalTx) Delete(ctx context.Context, userID, groupID string, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := t.collection.DeleteMany(t.ctx(ctx), bson.M{
		"_id":      bson.M{"$in": ids},
		"user_id":  userID,
		"group_id": groupID,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete intervals: %w", err)
	}
	return int(result.DeletedCount), nil
}

func (t *intervalTx) DeleteAll(ctx context.Context, userID, groupID string) (int, error) {
	result, err := t.collection.DeleteMany(t.ctx(ctx), bson.M{"user_id": userID, "group_id": groupID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete member intervals: %w", err)
	}
	return int(result.DeletedCount), nil
}

func (t *intervalTx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	defer t.finish(ctx)

	if err := t.session.CommitTransaction(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (t *intervalTx) Rollback() error {
	if t.done {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	defer t.finish(ctx)

	if err := t.session.AbortTransaction(ctx); err != nil {
		return fmt.Errorf("failed to rollback: %w", err)
	}
	return nil
}

func (t *intervalTx) finish(ctx context.Context) {
	t.done = true
	t.session.EndSession(ctx)
}
