package photos

import (
	"time"

	"github.com/google/uuid"
)

// KeyPrefix is the object store prefix every photo lives under
const KeyPrefix = "photos/"

// PendingLabels is stored until the out-of-process labeller fills in labels
const PendingLabels = "Labels generating asynchronously"

// Thumbnail bounds; uploads are scaled down to fit, never up
const (
	MaxWidth  = 300
	MaxHeight = 300
)

// MaxDescriptionLength bounds the free-text description in characters
const MaxDescriptionLength = 1000

// Photo is one uploaded image owned by a single user
type Photo struct {
	CreatedAt   time.Time `db:"created_at"`
	ObjectKey   string    `db:"object_key"`
	Labels      string    `db:"labels"`
	Description string    `db:"description"`
	UserID      string    `db:"user_id"`
	// SignedURL is a time-limited GET link, filled in on read
	SignedURL string `db:"-"`
	ID        int64  `db:"id"`
}

// UploadRequest carries the raw upload
type UploadRequest struct {
	Description string
	Data        []byte
}

// NewObjectKey returns a fresh random key under KeyPrefix
func NewObjectKey() string {
	return KeyPrefix + uuid.NewString() + ".png"
}
