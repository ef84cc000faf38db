package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	"github.com/guyr22/web-dev-final-project/internal/ai"
	"github.com/guyr22/web-dev-final-project/internal/blob"
	"github.com/guyr22/web-dev-final-project/internal/models"
	"github.com/guyr22/web-dev-final-project/internal/store"
	"github.com/guyr22/web-dev-final-project/internal/ws"
)

// Broadcaster pushes feed events to connected websocket clients.
type Broadcaster interface {
	Broadcast(eventType string, data any)
}

const tagGenerationTimeout = 10 * time.Second

type PostsHandler struct {
	posts     PostStore
	blobs     *blob.Service
	tagger    ai.Tagger
	hub       Broadcaster
	sanitizer *bluemonday.Policy
}

func NewPostsHandler(posts PostStore, blobs *blob.Service, tagger ai.Tagger, hub Broadcaster) *PostsHandler {
	return &PostsHandler{
		posts:     posts,
		blobs:     blobs,
		tagger:    tagger,
		hub:       hub,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type likeResponse struct {
	Likes   int  `json:"likes"`
	IsLiked bool `json:"isLiked"`
}

func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.PostFilter{
		OwnerID: r.URL.Query().Get("owner"),
		Tag:     r.URL.Query().Get("tag"),
	}

	posts, err := h.posts.Find(r.Context(), filter)
	if err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "Post not found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentity(r)
	if !ok {
		unauthorized(w, "No token provided")
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	content := strings.TrimSpace(r.FormValue("content"))
	if title == "" {
		badRequest(w, "title is required")
		return
	}
	if content == "" {
		badRequest(w, "content is required")
		return
	}
	content = h.sanitizer.Sanitize(content)

	post := &models.Post{
		Title:   title,
		Content: content,
		OwnerID: identity.ID,
		Tags:    h.generateTags(r.Context(), content),
	}

	stored, ok := saveUpload(w, r, "image", blob.KindPostImage, h.blobs)
	if !ok {
		return
	}
	if stored != nil {
		post.ImageURL = mediaURL(stored)
	}

	if err := h.posts.Create(r.Context(), post); err != nil {
		if stored != nil {
			h.blobs.Delete(stored.StoragePath)
		}
		internalError(w)
		return
	}

	h.hub.Broadcast(ws.EventPostCreated, post)
	writeJSON(w, http.StatusCreated, post)
}

func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	post, owned := h.ownedPost(w, r)
	if !owned {
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}

	var title, content, imageURL *string
	var tags []string

	if v := strings.TrimSpace(r.FormValue("title")); v != "" {
		title = &v
	}
	if v := strings.TrimSpace(r.FormValue("content")); v != "" {
		sanitized := h.sanitizer.Sanitize(v)
		content = &sanitized
		tags = h.generateTags(r.Context(), sanitized)
	}

	stored, ok := saveUpload(w, r, "image", blob.KindPostImage, h.blobs)
	if !ok {
		return
	}
	if stored != nil {
		url := mediaURL(stored)
		imageURL = &url
	}

	updated, err := h.posts.Update(r.Context(), post.ID.Hex(), title, content, imageURL, tags)
	if err != nil {
		if stored != nil {
			h.blobs.Delete(stored.StoragePath)
		}
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "Post not found")
			return
		}
		internalError(w)
		return
	}

	// The replaced image file is orphaned once the document points at
	// the new one.
	if stored != nil {
		deleteLocalMedia(h.blobs, post.ImageURL)
	}

	h.hub.Broadcast(ws.EventPostUpdated, updated)
	writeJSON(w, http.StatusOK, updated)
}

func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	post, owned := h.ownedPost(w, r)
	if !owned {
		return
	}

	if err := h.posts.Delete(r.Context(), post.ID.Hex()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "Post not found")
			return
		}
		internalError(w)
		return
	}

	deleteLocalMedia(h.blobs, post.ImageURL)

	h.hub.Broadcast(ws.EventPostDeleted, map[string]string{"_id": post.ID.Hex()})
	writeMessage(w, http.StatusOK, "Post deleted successfully")
}

// Like toggles the caller's like on a post.
func (h *PostsHandler) Like(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentity(r)
	if !ok {
		unauthorized(w, "No token provided")
		return
	}

	post, err := h.posts.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "Post not found")
			return
		}
		internalError(w)
		return
	}

	liked := !post.LikedBy(identity.ID)
	updated, err := h.posts.SetLiked(r.Context(), post.ID.Hex(), identity.ID, liked)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "Post not found")
			return
		}
		internalError(w)
		return
	}

	h.hub.Broadcast(ws.EventPostLiked, map[string]any{
		"_id":   updated.ID.Hex(),
		"likes": len(updated.Likes),
	})
	writeJSON(w, http.StatusOK, likeResponse{Likes: len(updated.Likes), IsLiked: liked})
}

func (h *PostsHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentity(r)
	if !ok {
		unauthorized(w, "No token provided")
		return
	}

	var req commentRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	comment := models.Comment{
		UserID:    identity.ID,
		Content:   h.sanitizer.Sanitize(strings.TrimSpace(req.Content)),
		CreatedAt: time.Now().UTC(),
	}
	if comment.Content == "" {
		badRequest(w, "content is required")
		return
	}

	updated, err := h.posts.AddComment(r.Context(), chi.URLParam(r, "id"), comment)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "Post not found")
			return
		}
		internalError(w)
		return
	}

	h.hub.Broadcast(ws.EventPostCommented, updated)
	writeJSON(w, http.StatusCreated, updated)
}

// ownedPost loads the addressed post and enforces ownership, writing
// the error response itself when the caller may not touch it.
func (h *PostsHandler) ownedPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	identity, ok := GetIdentity(r)
	if !ok {
		unauthorized(w, "No token provided")
		return nil, false
	}

	post, err := h.posts.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "Post not found")
			return nil, false
		}
		internalError(w)
		return nil, false
	}

	if post.OwnerID != identity.ID {
		forbidden(w, "You do not own this post")
		return nil, false
	}
	return post, true
}

// generateTags asks the tagger for hashtags under a deadline, so a
// slow model never blocks publishing. The tagger itself fails open.
func (h *PostsHandler) generateTags(ctx context.Context, content string) []string {
	tagCtx, cancel := context.WithTimeout(ctx, tagGenerationTimeout)
	defer cancel()

	return h.tagger.GenerateTags(tagCtx, content)
}
