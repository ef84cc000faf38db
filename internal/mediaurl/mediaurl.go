// Package mediaurl maps stored upload files to the public /media URLs
// the API serves them under, and back.
package mediaurl

import (
	"net/url"
	"strings"
)

const PathPrefix = "/media/"

// For returns the public path for a storage path ("kind/file.ext").
func For(storagePath string) string {
	return PathPrefix + strings.TrimLeft(storagePath, "/")
}

// StoragePath extracts the storage path from a /media URL. Accepts
// both bare paths and absolute URLs. Returns false for anything not
// served by this process, such as external avatar links.
func StoragePath(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	path := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		path = u.Path
	}

	if !strings.HasPrefix(path, PathPrefix) {
		return "", false
	}

	storagePath := strings.TrimPrefix(path, PathPrefix)
	if storagePath == "" {
		return "", false
	}
	return storagePath, true
}

// IsLocal reports whether the URL points at a file this process stores.
func IsLocal(raw string) bool {
	_, ok := StoragePath(raw)
	return ok
}
