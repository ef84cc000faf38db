package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/guyr22/web-dev-final-project/internal/models"
)

type UserStore struct {
	coll *mongo.Collection
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.RefreshTokens == nil {
		user.RefreshTokens = []string{}
	}

	res, err := s.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("creating user: %w", err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

// FindByEmailOrUsername backs the duplicate check on register: a hit on
// either unique field counts.
func (s *UserStore) FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"$or": []bson.M{
		{"email": strings.ToLower(strings.TrimSpace(email))},
		{"username": username},
	}})
}

// AddRefreshToken appends a newly issued refresh token to the user's
// valid set. A single atomic $push, so concurrent logins for the same
// user race harmlessly to a superset.
func (s *UserStore) AddRefreshToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	res, err := s.coll.UpdateByID(ctx, userID, bson.M{
		"$push": bson.M{"refreshTokens": token},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("storing refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveRefreshToken revokes one token. Removing an absent entry is not
// an error: logout is idempotent.
func (s *UserStore) RemoveRefreshToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	res, err := s.coll.UpdateByID(ctx, userID, bson.M{
		"$pull": bson.M{"refreshTokens": token},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("removing refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, userID primitive.ObjectID, avatarURL, bio *string) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if avatarURL != nil {
		set["avatarUrl"] = *avatarURL
	}
	if bio != nil {
		set["bio"] = *bio
	}

	res, err := s.coll.UpdateByID(ctx, userID, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}

	return s.findOne(ctx, bson.M{"_id": userID})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &user, nil
}
