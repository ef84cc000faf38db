package api

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/guyr22/web-dev-final-project/internal/models"
	"github.com/guyr22/web-dev-final-project/internal/store"
)

// Handler-facing store contracts. The concrete Mongo stores satisfy
// them in production; tests inject in-memory fakes.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	AddRefreshToken(ctx context.Context, userID primitive.ObjectID, token string) error
	RemoveRefreshToken(ctx context.Context, userID primitive.ObjectID, token string) error
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, avatarURL, bio *string) (*models.User, error)
}

type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	Find(ctx context.Context, filter store.PostFilter) ([]*models.Post, error)
	FindByID(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, id string, title, content, imageURL *string, tags []string) (*models.Post, error)
	Delete(ctx context.Context, id string) error
	SetLiked(ctx context.Context, postID, userID string, liked bool) (*models.Post, error)
	AddComment(ctx context.Context, postID string, comment models.Comment) (*models.Post, error)
}

var (
	_ UserStore = (*store.UserStore)(nil)
	_ PostStore = (*store.PostStore)(nil)
)
