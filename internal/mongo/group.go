package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/overlap/internal/domain/group"
	"github.com/ganot/overlap/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type groupDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Description  string    `bson:"description"`
	OwnerID      string    `bson:"owner_id"`
	IsPublic     bool      `bson:"is_public"`
	WeekendsOnly bool      `bson:"weekends_only"`
	CountryCode  string    `bson:"country_code"`
	Token        string    `bson:"invitation_token"`
	TokenEnabled bool      `bson:"invitation_enabled"`
	CreatedAt    time.Time `bson:"created_at"`
	Members      []string  `bson:"members"`
}

// GroupRepository implements group.Repository on MongoDB. Members live in
// an array on the group document.
type GroupRepository struct {
	db         *DB
	collection *mongo.Collection
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *DB) *GroupRepository {
	return &GroupRepository{db: db, collection: db.Database.Collection(GroupsCollection)}
}

func (r *GroupRepository) Create(ctx context.Context, g *group.Group) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	doc := groupDoc{
		ID:           g.ID,
		Name:         g.Name,
		Description:  g.Description,
		OwnerID:      g.OwnerID,
		IsPublic:     g.IsPublic,
		WeekendsOnly: g.WeekendsOnly,
		CountryCode:  g.CountryCode,
		Token:        g.InvitationToken,
		TokenEnabled: g.InvitationEnabled,
		CreatedAt:    g.CreatedAt.Truncate(time.Millisecond),
		Members:      []string{},
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

func (r *GroupRepository) Get(ctx context.Context, id string) (*group.Group, error) {
	var doc groupDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group.Group{
		ID:                doc.ID,
		Name:              doc.Name,
		Description:       doc.Description,
		OwnerID:           doc.OwnerID,
		IsPublic:          doc.IsPublic,
		WeekendsOnly:      doc.WeekendsOnly,
		CountryCode:       doc.CountryCode,
		InvitationToken:   doc.Token,
		InvitationEnabled: doc.TokenEnabled,
		CreatedAt:         doc.CreatedAt,
	}, nil
}

func (r *GroupRepository) Update(ctx context.Context, g *group.Group) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": g.ID}, bson.M{"$set": bson.M{
		"name":               g.Name,
		"description":        g.Description,
		"is_public":          g.IsPublic,
		"weekends_only":      g.WeekendsOnly,
		"country_code":       g.CountryCode,
		"invitation_token":   g.InvitationToken,
		"invitation_enabled": g.InvitationEnabled,
	}})
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the group document, its availability and its activity in
// one transaction. Members live on the group document.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	session, err := r.db.Client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		result, err := r.collection.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return nil, fmt.Errorf("failed to delete group: %w", err)
		}
		if result.DeletedCount == 0 {
			return nil, repository.ErrNotFound
		}
		for _, coll := range []string{AvailabilitiesCollection, ActivityCollection} {
			if _, err := r.db.Database.Collection(coll).DeleteMany(sc, bson.M{"group_id": id}); err != nil {
				return nil, fmt.Errorf("failed to delete %s: %w", coll, err)
			}
		}
		return nil, nil
	})
	return err
}

func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": groupID, "members": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"members": userID}},
	)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}
	if _, err := r.Get(ctx, groupID); err != nil {
		return err
	}
	return repository.ErrConflict
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": groupID, "members": userID},
		bson.M{"$pull": bson.M{"members": userID}},
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *GroupRepository) ListMembers(ctx context.Context, groupID string) ([]string, error) {
	var doc groupDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": groupID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return doc.Members, nil
}
