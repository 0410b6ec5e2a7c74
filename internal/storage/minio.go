// internal/storage/minio.go
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/fedor-resh/bite/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOStore struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

func NewMinIOStore(ctx context.Context, cfg config.StorageConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	// Create bucket if it doesn't exist
	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	// Stored image URLs are permanent, so objects must be anonymously readable.
	if err := client.SetBucketPolicy(ctx, cfg.MinIOBucket, publicReadPolicy(cfg.MinIOBucket)); err != nil {
		return nil, fmt.Errorf("failed to set bucket policy: %w", err)
	}

	return &MinIOStore{
		client:        client,
		bucket:        cfg.MinIOBucket,
		publicBaseURL: minioBaseURL(cfg),
	}, nil
}

// minioBaseURL is MINIO_PUBLIC_BASE_URL, or the API endpoint itself.
func minioBaseURL(cfg config.StorageConfig) string {
	if cfg.MinIOPublicBaseURL != "" {
		return cfg.MinIOPublicBaseURL
	}
	scheme := "http"
	if cfg.MinIOUseSSL {
		scheme = "https"
	}
	return scheme + "://" + cfg.MinIOEndpoint
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

func (m *MinIOStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to MinIO: %w", err)
	}
	return nil
}

// PublicURL returns <base>/<bucket>/<path>. The bucket policy set at startup
// keeps it readable without a signature.
func (m *MinIOStore) PublicURL(_ context.Context, path string) (string, error) {
	return joinURL(joinURL(m.publicBaseURL, m.bucket), path), nil
}
