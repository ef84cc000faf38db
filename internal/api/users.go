package api

import (
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/guyr22/web-dev-final-project/internal/blob"
	"github.com/guyr22/web-dev-final-project/internal/store"
	"github.com/guyr22/web-dev-final-project/internal/ws"
)

type UsersHandler struct {
	users UserStore
	blobs *blob.Service
	hub   Broadcaster
}

func NewUsersHandler(users UserStore, blobs *blob.Service, hub Broadcaster) *UsersHandler {
	return &UsersHandler{users: users, blobs: blobs, hub: hub}
}

func (h *UsersHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentity(r)
	if !ok {
		unauthorized(w, "No token provided")
		return
	}

	user, err := h.users.FindByID(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "User not found")
			return
		}
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

// UpdateMe changes the caller's bio and/or avatar. The avatar arrives
// either as an uploaded file or as an explicit avatarUrl field.
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentity(r)
	if !ok {
		unauthorized(w, "No token provided")
		return
	}

	userID, err := primitive.ObjectIDFromHex(identity.ID)
	if err != nil {
		unauthorized(w, "Invalid token")
		return
	}

	current, err := h.users.FindByID(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "User not found")
			return
		}
		internalError(w)
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}

	var avatarURL, bio *string

	if _, ok := r.MultipartForm.Value["bio"]; ok {
		v := strings.TrimSpace(r.FormValue("bio"))
		bio = &v
	}
	if v := strings.TrimSpace(r.FormValue("avatarUrl")); v != "" {
		avatarURL = &v
	}

	stored, ok := saveUpload(w, r, "avatar", blob.KindAvatar, h.blobs)
	if !ok {
		return
	}
	if stored != nil {
		url := mediaURL(stored)
		avatarURL = &url
	}

	if avatarURL == nil && bio == nil {
		badRequest(w, "nothing to update")
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), userID, avatarURL, bio)
	if err != nil {
		if stored != nil {
			h.blobs.Delete(stored.StoragePath)
		}
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, "User not found")
			return
		}
		internalError(w)
		return
	}

	// Drop the old locally stored avatar once it is unreferenced.
	if avatarURL != nil && current.AvatarURL != *avatarURL {
		deleteLocalMedia(h.blobs, current.AvatarURL)
	}

	h.hub.Broadcast(ws.EventUserUpdated, updated.Public())
	writeJSON(w, http.StatusOK, updated.Public())
}
