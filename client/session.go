// Package client is a Go consumer of the service API. It keeps a
// durable session (token pair plus cached profile) and transparently
// refreshes an expired access token once per failed call.
package client

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/guyr22/web-dev-final-project/internal/models"
)

var (
	sessionBucket = []byte("session")

	keyAccessToken  = []byte("access_token")
	keyRefreshToken = []byte("refresh_token")
	keyUser         = []byte("user")
)

// Session is the durable credential store for one logged-in identity.
// It survives process restarts; the refresh token inside is what keeps
// the session alive across access-token expiries.
type Session struct {
	db *bolt.DB
}

func OpenSession(path string) (*Session, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing session store: %w", err)
	}

	return &Session{db: db}, nil
}

func (s *Session) Close() error {
	return s.db.Close()
}

func (s *Session) AccessToken() string {
	return s.get(keyAccessToken)
}

func (s *Session) RefreshToken() string {
	return s.get(keyRefreshToken)
}

// SetTokens stores a freshly issued pair, replacing whatever was there.
func (s *Session) SetTokens(accessToken, refreshToken string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if err := b.Put(keyAccessToken, []byte(accessToken)); err != nil {
			return err
		}
		return b.Put(keyRefreshToken, []byte(refreshToken))
	})
}

// SetAccessToken replaces only the access token. Used after a refresh,
// which never rotates the refresh token.
func (s *Session) SetAccessToken(accessToken string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put(keyAccessToken, []byte(accessToken))
	})
}

func (s *Session) SetUser(user *models.PublicUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding cached user: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put(keyUser, data)
	})
}

func (s *Session) User() (*models.PublicUser, bool) {
	raw := s.get(keyUser)
	if raw == "" {
		return nil, false
	}
	var user models.PublicUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false
	}
	return &user, true
}

// Clear wipes all session state. Called when the refresh path gives up.
func (s *Session) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		for _, key := range [][]byte{keyAccessToken, keyRefreshToken, keyUser} {
			if err := b.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Session) get(key []byte) string {
	var value string
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(sessionBucket).Get(key); v != nil {
			value = string(v)
		}
		return nil
	})
	return value
}
