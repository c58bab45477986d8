package photos

import (
	"context"
	"time"
)

// Repository defines the interface for photo metadata persistence
type Repository interface {
	Add(ctx context.Context, photo *Photo) (*Photo, error)
	// ListByUser returns the user's photos, newest first
	ListByUser(ctx context.Context, userID string) ([]*Photo, error)
	// Delete removes the row for objectKey owned by userID.
	// Returns ErrPhotoNotFound when nothing matched.
	Delete(ctx context.Context, objectKey, userID string) error
}

// ObjectStore stores photo bytes and hands out signed read links
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Resizer scales an encoded image to fit a bounding box and re-encodes it as PNG
type Resizer interface {
	Resize(data []byte, maxWidth, maxHeight int) ([]byte, error)
}

// Service defines the interface for photo business logic
type Service interface {
	List(ctx context.Context, userID string) ([]*Photo, error)
	Upload(ctx context.Context, userID string, req UploadRequest) (*Photo, error)
	Delete(ctx context.Context, userID, objectKey string) error
}
