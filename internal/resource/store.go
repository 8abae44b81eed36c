package resource

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// Store defines what storage operations the resource entity has
type Store interface {
	CreateResource(ctx context.Context, res *Resource) error
	ListResources(ctx context.Context, level string) ([]*Resource, error)
	GetResourceByID(ctx context.Context, id uuid.UUID) (*Resource, error)
	DeleteResource(ctx context.Context, id uuid.UUID) error
}

// ObjectStore holds the resource files themselves
type ObjectStore interface {
	Upload(ctx context.Context, resourceID uuid.UUID, filename string, reader io.Reader, size int64) (string, error)
	PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, objectKey string) error
}
