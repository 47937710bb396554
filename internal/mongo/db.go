// Package mongo stores availability, groups, and activity in MongoDB.
// Units of work run inside client session transactions, so the server
// must be a replica set.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	AvailabilitiesCollection = "availabilities"
	GroupsCollection         = "groups"
	ActivityCollection       = "activity_log"
	APIKeysCollection        = "api_keys"
	CountersCollection       = "counters"

	defaultTimeout = 10 * time.Second
)

// DB bundles a connected client and its database.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Connect dials uri and pings the primary.
func Connect(ctx context.Context, uri, database string) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &DB{Client: client, Database: client.Database(database)}, nil
}

// Close disconnects the client.
func (db *DB) Close(ctx context.Context) error {
	return db.Client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes every repository relies on.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		AvailabilitiesCollection: {
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "start_date", Value: 1}}},
		},
		GroupsCollection: {
			{Keys: bson.D{{Key: "members", Value: 1}}},
		},
		ActivityCollection: {
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		APIKeysCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Database.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll, err)
		}
	}
	return nil
}
