package resource

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

type MinIOObjectStore struct {
	client     *minio.Client
	bucketName string
}

func NewMinIOObjectStore(client *minio.Client, bucketName string) *MinIOObjectStore {
	return &MinIOObjectStore{
		client:     client,
		bucketName: bucketName,
	}
}

// objectName creates a consistent S3 key for resource files
func (m *MinIOObjectStore) objectName(resourceID uuid.UUID, filename string) string {
	now := time.Now()

	return fmt.Sprintf(
		"resources/%d/%02d/%s%s",
		now.Year(),
		now.Month(),
		resourceID.String(),
		filepath.Ext(filename),
	)
}

// Upload stores a resource file in MinIO and returns its object key
func (m *MinIOObjectStore) Upload(
	ctx context.Context,
	resourceID uuid.UUID,
	filename string,
	reader io.Reader,
	size int64,
) (string, error) {
	objectKey := m.objectName(resourceID, filename)

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := m.client.PutObject(
		ctx,
		m.bucketName,
		objectKey,
		reader,
		size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"resource-id":       resourceID.String(),
				"original-filename": filename,
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload to minio: %w", err)
	}

	return objectKey, nil
}

// PresignedURL generates a temporary download link for a resource file
func (m *MinIOObjectStore) PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucketName, objectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned url: %w", err)
	}
	return url.String(), nil
}

// Delete removes a resource file from MinIO
func (m *MinIOObjectStore) Delete(ctx context.Context, objectKey string) error {
	err := m.client.RemoveObject(ctx, m.bucketName, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
