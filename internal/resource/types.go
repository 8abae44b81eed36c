package resource

import (
	"time"

	"github.com/google/uuid"
)

// Resource is a study material (notes, question papers, recordings)
// shared in the resource library, keyed by subject level.
type Resource struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Level      string    `json:"level"`
	S3Key      string    `json:"-"`
	UploadedBy uuid.UUID `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListResourcesResponse struct {
	Resources []Resource `json:"resources"`
	Count     int        `json:"count"`
}

type ResourceURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in_seconds"`
}
