package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"civicpulse-be/engine"
	"civicpulse-be/store"

	"github.com/google/uuid"
)

const uploadURLExpiry = 15 * time.Minute

// ErrMediaUnavailable is returned when no object store is configured.
var ErrMediaUnavailable = errors.New("media storage is not configured")

var allowedMediaExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".mp4": true, ".mov": true, ".pdf": true,
}

// MediaService hands out presigned upload URLs for issue and comment
// attachments.
type MediaService struct {
	media  store.MediaStore
	bucket string
}

// Upload is a presigned target, the object key it writes to and the stable
// URL clients store in an issue's mediaUrls once the upload completes.
type Upload struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
	ObjectURL string `json:"objectUrl"`
	ExpiresIn int    `json:"expiresIn"`
}

// NewMediaService accepts a nil MediaStore; every call then fails with
// ErrMediaUnavailable.
func NewMediaService(media store.MediaStore, bucket string) *MediaService {
	return &MediaService{media: media, bucket: bucket}
}

// Initialize creates the bucket when it is missing.
func (s *MediaService) Initialize(ctx context.Context) error {
	if s.media == nil {
		return ErrMediaUnavailable
	}
	exists, err := s.media.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	return s.media.MakeBucket(ctx, s.bucket)
}

// UploadURL returns a 15 minute upload URL for fileName under a random
// object key that keeps the original extension.
func (s *MediaService) UploadURL(ctx context.Context, fileName string) (*Upload, error) {
	if s.media == nil {
		return nil, ErrMediaUnavailable
	}
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if !allowedMediaExt[ext] {
		return nil, engine.Invalid("unsupported file type %q", ext)
	}
	key := "issues/" + uuid.NewString() + ext
	url, err := s.media.PresignedUploadURL(ctx, s.bucket, key, uploadURLExpiry)
	if err != nil {
		return nil, err
	}
	return &Upload{
		UploadURL: url,
		ObjectKey: key,
		ObjectURL: s.media.ObjectURL(s.bucket, key),
		ExpiresIn: int(uploadURLExpiry.Seconds()),
	}, nil
}
