package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"expense-bot/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ObjectStore provides access to object storage.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PublicURL(key string) string
}

// MinioStore implements ObjectStore for S3 compatible storage
// (Supabase Storage S3 endpoint, MinIO, AWS S3).
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	logger    *zap.Logger
}

// NewMinioStore connects to the storage endpoint and ensures the bucket exists.
func NewMinioStore(cfg *config.StorageConfig, logger *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
		logger.Info("Storage bucket created", zap.String("bucket", cfg.Bucket))
	}

	return &MinioStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
		logger:    logger,
	}, nil
}

// Put uploads an object.
func (m *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	info, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	m.logger.Info("Object uploaded",
		zap.String("bucket", m.bucket),
		zap.String("key", key),
		zap.Int64("size", info.Size),
	)
	return nil
}

// PublicURL returns the unauthenticated URL of key in the bucket.
func (m *MinioStore) PublicURL(key string) string {
	return publicObjectURL(m.publicURL, m.client.EndpointURL(), m.bucket, key)
}

func publicObjectURL(base string, endpoint *url.URL, bucket, key string) string {
	objectPath := path.Join(bucket, key)
	if base != "" {
		return strings.TrimRight(base, "/") + "/" + objectPath
	}
	u := *endpoint
	u.Path = "/" + objectPath
	return u.String()
}
