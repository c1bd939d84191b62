package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore keeps uploaded source documents in minio. Objects are named
// <document_id>/<filename> so everything for one document lives under one
// prefix.
type ObjectStore struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewObjectStore(cfg *config.MinioConfig) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ObjectStore{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// StoreSource uploads a source document and returns the object name.
func (s *ObjectStore) StoreSource(ctx context.Context, documentID, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	objectName := documentID + "/" + filepath.Base(filename)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload source: %w", err)
	}

	return objectName, nil
}

// FetchSource downloads an object into a temp file for local extraction and
// returns the local path. The caller removes the file when done.
func (s *ObjectStore) FetchSource(ctx context.Context, objectName string) (string, error) {
	dir, err := os.MkdirTemp("", "legalassist-source-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	localPath := filepath.Join(dir, filepath.Base(objectName))
	if err := s.client.FGetObject(ctx, s.bucket, objectName, localPath, minio.GetObjectOptions{}); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("failed to fetch source: %w", err)
	}

	return localPath, nil
}

// PresignedURL generates a presigned URL for the object with expiration
func (s *ObjectStore) PresignedURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// RemoveSource deletes a source object.
func (s *ObjectStore) RemoveSource(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}

	return nil
}
