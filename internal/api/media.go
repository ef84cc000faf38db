package api

import (
	"errors"
	"net/http"
	"os"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/guyr22/web-dev-final-project/internal/blob"
)

type MediaHandler struct {
	blobs *blob.Service
}

func NewMediaHandler(blobs *blob.Service) *MediaHandler {
	return &MediaHandler{blobs: blobs}
}

// Serve streams a stored upload. File names embed a uuid, so content
// at a given URL never changes and long-lived caching is safe.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	storagePath := path.Join(chi.URLParam(r, "kind"), chi.URLParam(r, "file"))

	file, err := h.blobs.Open(storagePath)
	if err != nil {
		if errors.Is(err, blob.ErrInvalidPath) || os.IsNotExist(err) {
			notFound(w, "File not found")
			return
		}
		internalError(w)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		internalError(w)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}
