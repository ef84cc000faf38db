package blob

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindAvatar    Kind = "avatar"
	KindPostImage Kind = "post_image"
)

var (
	ErrFileTooLarge   = errors.New("upload file too large")
	ErrInvalidKind    = errors.New("invalid upload kind")
	ErrDisallowedType = errors.New("disallowed upload mime type")
	ErrInvalidPath    = errors.New("invalid storage path")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type StoredFile struct {
	ID           string
	Kind         Kind
	StoragePath  string
	MimeType     string
	SizeBytes    int64
	OriginalName string
	CreatedAt    time.Time
}

// Service stores uploaded images on local disk under a root directory,
// one subdirectory per kind.
type Service struct {
	rootDir        string
	maxUploadBytes int64
}

func NewService(rootDir string, maxUploadBytes int64) (*Service, error) {
	if strings.TrimSpace(rootDir) == "" {
		return nil, fmt.Errorf("upload root directory is required")
	}
	if maxUploadBytes <= 0 {
		return nil, fmt.Errorf("max upload bytes must be > 0")
	}

	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload root directory: %w", err)
	}

	return &Service{
		rootDir:        rootDir,
		maxUploadBytes: maxUploadBytes,
	}, nil
}

func (s *Service) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Save sniffs the content type, enforces the image allowlist and size
// cap, and writes through a temp file so a partial upload never becomes
// visible.
func (s *Service) Save(kind Kind, originalName string, src io.Reader) (*StoredFile, error) {
	if kind != KindAvatar && kind != KindPostImage {
		return nil, ErrInvalidKind
	}

	sniff := make([]byte, 512)
	n, err := io.ReadFull(src, sniff)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("reading upload data: %w", err)
	}
	sniff = sniff[:n]

	mimeType := strings.ToLower(strings.TrimSpace(http.DetectContentType(sniff)))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	ext, ok := allowedImageTypes[mimeType]
	if !ok {
		return nil, ErrDisallowedType
	}

	fileID := uuid.NewString()
	relPath := filepath.Join(string(kind), fileID+ext)
	absPath, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(absPath), fileID+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary upload file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	full := io.MultiReader(bytes.NewReader(sniff), src)
	written, err := io.Copy(tmpFile, io.LimitReader(full, s.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("writing upload file: %w", err)
	}
	if written > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("closing temporary upload file: %w", err)
	}

	if err := os.Rename(tmpPath, absPath); err != nil {
		return nil, fmt.Errorf("finalizing upload file: %w", err)
	}

	return &StoredFile{
		ID:           fileID,
		Kind:         kind,
		StoragePath:  relPath,
		MimeType:     mimeType,
		SizeBytes:    written,
		OriginalName: sanitizeName(originalName),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (s *Service) Open(storagePath string) (*os.File, error) {
	absPath, err := s.resolve(storagePath)
	if err != nil {
		return nil, err
	}
	return os.Open(absPath)
}

func (s *Service) Delete(storagePath string) error {
	absPath, err := s.resolve(storagePath)
	if err != nil {
		return err
	}
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting upload file: %w", err)
	}
	return nil
}

// resolve joins a relative storage path under the root and refuses
// anything that escapes it.
func (s *Service) resolve(storagePath string) (string, error) {
	if storagePath == "" || filepath.IsAbs(storagePath) {
		return "", ErrInvalidPath
	}
	abs := filepath.Join(s.rootDir, filepath.Clean(storagePath))
	root, err := filepath.Abs(s.rootDir)
	if err != nil {
		return "", fmt.Errorf("resolving upload root: %w", err)
	}
	absResolved, err := filepath.Abs(abs)
	if err != nil {
		return "", fmt.Errorf("resolving storage path: %w", err)
	}
	if absResolved != root && !strings.HasPrefix(absResolved, root+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return absResolved, nil
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	name = strings.Map(func(r rune) rune {
		switch r {
		case '\\', '"', '\r', '\n':
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." {
		return "upload"
	}
	return name
}
