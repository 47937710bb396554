package mongo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/overlap/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type apiKeyDoc struct {
	Hash        string     `bson:"_id"`
	UserID      string     `bson:"user_id"`
	CreatedAt   time.Time  `bson:"created_at"`
	LastUsed    *time.Time `bson:"last_used,omitempty"`
	Description string     `bson:"description,omitempty"`
}

// APIKeyRepository stores hashed bearer tokens.
type APIKeyRepository struct {
	collection *mongo.Collection
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{collection: db.Database.Collection(APIKeysCollection)}
}

func (r *APIKeyRepository) Create(ctx context.Context, token, userID, description string) error {
	doc := apiKeyDoc{Hash: hashToken(token), UserID: userID, CreatedAt: time.Now().UTC(), Description: description}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

func (r *APIKeyRepository) ResolveUser(ctx context.Context, token string) (string, error) {
	var doc apiKeyDoc
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": hashToken(token)},
		bson.M{"$set": bson.M{"last_used": time.Now().UTC()}},
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}
	return doc.UserID, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
