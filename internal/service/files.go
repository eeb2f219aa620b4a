package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/purrfectmatch/api/internal/domain"
)

const maxUploadSize = 10 * 1024 * 1024 // 10MB

// FileURLPrefix is where stored blobs are served from; photo and avatar
// URLs persisted on users, notices, and pets point under it.
const FileURLPrefix = "/api/files/"

// FileService stores uploaded photos and avatars and maps between storage
// keys and public URLs.
type FileService struct {
	files domain.FileStore
}

// NewFileService creates a new FileService.
func NewFileService(files domain.FileStore) *FileService {
	return &FileService{files: files}
}

// Upload validates and stores an uploaded image, returning its public URL.
func (s *FileService) Upload(ctx context.Context, contentType string, data []byte) (string, error) {
	if contentType != "image/jpeg" && contentType != "image/png" {
		return "", fmt.Errorf("%w: only JPEG and PNG images are accepted", domain.ErrInvalidInput)
	}
	if len(data) > maxUploadSize {
		return "", fmt.Errorf("%w: image exceeds 10MB limit", domain.ErrInvalidInput)
	}

	key := uuid.NewString()
	if err := s.files.Save(ctx, key, contentType, data); err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}
	return FileURLPrefix + key, nil
}

// Get returns the stored bytes and content type for a storage key.
func (s *FileService) Get(ctx context.Context, key string) ([]byte, string, error) {
	return s.files.Get(ctx, key)
}

// DeleteByURL removes the blob a stored URL points at. URLs outside the
// local file store (seeded defaults, external images) are ignored.
// Failures are logged, never surfaced: blob cleanup is fire-and-forget
// relative to the request that triggered it.
func (s *FileService) DeleteByURL(ctx context.Context, fileURL string) {
	key, ok := strings.CutPrefix(fileURL, FileURLPrefix)
	if !ok || key == "" {
		return
	}
	if err := s.files.Delete(ctx, key); err != nil {
		slog.Error("delete stored file", "key", key, "error", err)
	}
}
