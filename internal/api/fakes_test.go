package api

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/guyr22/web-dev-final-project/internal/google"
	"github.com/guyr22/web-dev-final-project/internal/models"
	"github.com/guyr22/web-dev-final-project/internal/store"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	for _, u := range s.users {
		if u.Email == email || u.Username == user.Username {
			return store.ErrDuplicate
		}
	}

	user.ID = primitive.NewObjectID()
	user.Email = email
	if user.RefreshTokens == nil {
		user.RefreshTokens = []string{}
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	s.users[user.ID.Hex()] = cloneUser(user)
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeUserStore) FindByEmailOrUsername(_ context.Context, email, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email || u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeUserStore) AddRefreshToken(_ context.Context, userID primitive.ObjectID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID.Hex()]
	if !ok {
		return store.ErrNotFound
	}
	u.RefreshTokens = append(u.RefreshTokens, token)
	return nil
}

func (s *fakeUserStore) RemoveRefreshToken(_ context.Context, userID primitive.ObjectID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID.Hex()]
	if !ok {
		return store.ErrNotFound
	}
	kept := u.RefreshTokens[:0]
	for _, t := range u.RefreshTokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	u.RefreshTokens = kept
	return nil
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, userID primitive.ObjectID, avatarURL, bio *string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID.Hex()]
	if !ok {
		return nil, store.ErrNotFound
	}
	if avatarURL != nil {
		u.AvatarURL = *avatarURL
	}
	if bio != nil {
		u.Bio = *bio
	}
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

// stored returns the raw record for assertions on persisted state.
func (s *fakeUserStore) stored(id string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return cloneUser(u)
	}
	return nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.RefreshTokens = append([]string(nil), u.RefreshTokens...)
	return &c
}

type fakePostStore struct {
	mu    sync.Mutex
	posts map[string]*models.Post
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{posts: make(map[string]*models.Post)}
}

func (s *fakePostStore) Create(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	s.posts[post.ID.Hex()] = clonePost(post)
	return nil
}

func (s *fakePostStore) Find(_ context.Context, filter store.PostFilter) ([]*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Post
	for _, p := range s.posts {
		if filter.OwnerID != "" && p.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Tag != "" && !containsTag(p.Tags, filter.Tag) {
			continue
		}
		out = append(out, clonePost(p))
	}
	return out, nil
}

func (s *fakePostStore) FindByID(_ context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clonePost(p), nil
}

func (s *fakePostStore) Update(_ context.Context, id string, title, content, imageURL *string, tags []string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if title != nil {
		p.Title = *title
	}
	if content != nil {
		p.Content = *content
	}
	if imageURL != nil {
		p.ImageURL = *imageURL
	}
	if tags != nil {
		p.Tags = tags
	}
	p.UpdatedAt = time.Now().UTC()
	return clonePost(p), nil
}

func (s *fakePostStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *fakePostStore) SetLiked(_ context.Context, postID, userID string, liked bool) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, store.ErrNotFound
	}

	kept := p.Likes[:0]
	for _, id := range p.Likes {
		if id != userID {
			kept = append(kept, id)
		}
	}
	p.Likes = kept
	if liked {
		p.Likes = append(p.Likes, userID)
	}
	return clonePost(p), nil
}

func (s *fakePostStore) AddComment(_ context.Context, postID string, comment models.Comment) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Comments = append(p.Comments, comment)
	return clonePost(p), nil
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Likes = append([]string(nil), p.Likes...)
	c.Tags = append([]string(nil), p.Tags...)
	c.Comments = append([]models.Comment(nil), p.Comments...)
	return &c
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// fakeVerifier returns a fixed profile, or fails when profile is nil.
type fakeVerifier struct {
	profile *google.Profile
}

func (v *fakeVerifier) Verify(context.Context, string) (*google.Profile, error) {
	if v.profile == nil {
		return nil, context.DeadlineExceeded
	}
	return v.profile, nil
}

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(context.Context) error {
	return p.err
}
