package store

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MediaStore issues upload URLs against an object store bucket.
type MediaStore interface {
	PresignedUploadURL(ctx context.Context, bucket, object string, expiry time.Duration) (string, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string) error
	// ObjectURL is the permanent, unsigned location of an object.
	ObjectURL(bucket, object string) string
}

// MinioMedia is the S3-compatible MediaStore.
type MinioMedia struct {
	client *minio.Client
}

func NewMinioMedia(endpoint, accessKey, secretKey string, useSSL bool) (*MinioMedia, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioMedia{client: client}, nil
}

func (m *MinioMedia) PresignedUploadURL(ctx context.Context, bucket, object string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedPutObject(ctx, bucket, object, expiry)
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", bucket, object, err)
	}
	return u.String(), nil
}

func (m *MinioMedia) ObjectURL(bucket, object string) string {
	return m.client.EndpointURL().JoinPath(bucket, object).String()
}

func (m *MinioMedia) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return m.client.BucketExists(ctx, bucket)
}

func (m *MinioMedia) MakeBucket(ctx context.Context, bucket string) error {
	return m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}
