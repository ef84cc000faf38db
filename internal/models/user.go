package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the credential-store document. PasswordHash and RefreshTokens
// must never be serialized to clients, so only the bson mapping exists;
// handlers expose users exclusively through PublicUser.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Username      string             `bson:"username"`
	Email         string             `bson:"email"`
	PasswordHash  string             `bson:"passwordHash"`
	AvatarURL     string             `bson:"avatarUrl,omitempty"`
	Bio           string             `bson:"bio,omitempty"`
	RefreshTokens []string           `bson:"refreshTokens"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

// PublicUser is the client-visible projection of a User.
type PublicUser struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"imgUrl,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID.Hex(),
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Bio:       u.Bio,
	}
}

// HasRefreshToken reports whether the exact token string is currently
// valid for this user. Membership in RefreshTokens is the revocation
// check: removal revokes regardless of signature validity.
func (u *User) HasRefreshToken(token string) bool {
	for _, t := range u.RefreshTokens {
		if t == token {
			return true
		}
	}
	return false
}
