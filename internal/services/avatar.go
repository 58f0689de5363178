package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/notedesk/server/internal/storage"
)

// MaxAvatarBytes is the upload size ceiling for avatar images.
const MaxAvatarBytes = 1 << 20

var allowedAvatarTypes = map[string]string{
	"image/jpeg": ".jpeg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

var allowedAvatarExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

// AvatarUpload describes an uploaded avatar file before validation.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// AvatarService validates avatar uploads and writes them to object
// storage.
type AvatarService struct {
	storage *storage.Storage
}

func NewAvatarService(storage *storage.Storage) *AvatarService {
	return &AvatarService{storage: storage}
}

// Store validates and persists an uploaded avatar, returning the
// serving path recorded on the user row. Disallowed MIME types and
// uploads over MaxAvatarBytes fail with ErrInvalidUpload.
func (s *AvatarService) Store(ctx context.Context, upload AvatarUpload) (string, error) {
	contentType := strings.ToLower(strings.TrimSpace(upload.ContentType))
	ext, ok := allowedAvatarTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported type %q", ErrInvalidUpload, contentType)
	}

	data, err := readLimited(upload.Reader, MaxAvatarBytes)
	if err != nil {
		return "", err
	}

	// The stored extension drives the Content-Type the avatar is later
	// served with, so only allowlisted extensions may override the one
	// mapped from the validated MIME type.
	if fromName := strings.ToLower(path.Ext(upload.Filename)); allowedAvatarExts[fromName] {
		ext = fromName
	}
	key := uuid.NewString() + ext

	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}
	return "/avatars/" + key, nil
}

// Open streams a stored avatar by key.
func (s *AvatarService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.storage.Get(ctx, key)
}

// Remove deletes a stored avatar by its serving path. Used to roll
// back an upload when the owning registration fails.
func (s *AvatarService) Remove(ctx context.Context, avatarPath string) error {
	return s.storage.Delete(ctx, strings.TrimPrefix(avatarPath, "/avatars/"))
}

func readLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: file too large", ErrInvalidUpload)
	}
	return data, nil
}
