package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/guyr22/web-dev-final-project/internal/blob"
	"github.com/guyr22/web-dev-final-project/internal/mediaurl"
)

const multipartMemoryLimit = 4 << 20

// formFile returns the named upload part, or (nil, "", nil) when the
// field is absent.
func formFile(r *http.Request, field string) (multipart.File, string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return file, header.Filename, nil
}

// saveUpload stores the named form file and reports whether one was
// present. Blob errors are translated to client responses; the caller
// must return on handled == false with ok == false.
func saveUpload(w http.ResponseWriter, r *http.Request, field string, kind blob.Kind, blobs *blob.Service) (stored *blob.StoredFile, ok bool) {
	file, name, err := formFile(r, field)
	if err != nil {
		badRequest(w, "invalid file upload")
		return nil, false
	}
	if file == nil {
		return nil, true
	}
	defer file.Close()

	stored, err = blobs.Save(kind, name, file)
	switch {
	case errors.Is(err, blob.ErrFileTooLarge):
		payloadTooLarge(w, "File too large")
		return nil, false
	case errors.Is(err, blob.ErrDisallowedType):
		badRequest(w, "Only image uploads are allowed")
		return nil, false
	case err != nil:
		internalError(w)
		return nil, false
	}
	return stored, true
}

func mediaURL(f *blob.StoredFile) string {
	return mediaurl.For(f.StoragePath)
}

// deleteLocalMedia removes the backing file for a /media URL. URLs not
// served by this process (e.g. Google avatar links) are ignored.
func deleteLocalMedia(blobs *blob.Service, url string) {
	if storagePath, ok := mediaurl.StoragePath(url); ok {
		blobs.Delete(storagePath)
	}
}
