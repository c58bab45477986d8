package photos

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"Gallery/internal/metrics"
)

// DefaultPresignTTL is how long listed photo links stay valid
const DefaultPresignTTL = time.Hour

type photoService struct {
	repo       Repository
	store      ObjectStore
	resizer    Resizer
	metrics    *metrics.Metrics
	logger     *zap.Logger
	presignTTL time.Duration
}

// NewPhotoService creates the photo service. m may be nil.
func NewPhotoService(repo Repository, store ObjectStore, resizer Resizer, presignTTL time.Duration, m *metrics.Metrics, logger *zap.Logger) Service {
	if presignTTL <= 0 {
		presignTTL = DefaultPresignTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &photoService{
		repo:       repo,
		store:      store,
		resizer:    resizer,
		presignTTL: presignTTL,
		metrics:    m,
		logger:     logger,
	}
}

// List returns the user's photos with signed links, newest first
func (s *photoService) List(ctx context.Context, userID string) (photos []*Photo, err error) {
	defer func() { s.metrics.RecordPhotoOperation("list", err) }()

	photos, err = s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}

	for _, p := range photos {
		p.SignedURL, err = s.store.PresignGet(ctx, p.ObjectKey, s.presignTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to sign %s: %w", p.ObjectKey, err)
		}
	}
	return photos, nil
}

// Upload resizes the image, stores it and records it for userID.
// The object is written before the row, so a failed insert can leave an
// orphan object behind.
func (s *photoService) Upload(ctx context.Context, userID string, req UploadRequest) (photo *Photo, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordPhotoOperation("upload", err)
		if err == nil {
			s.metrics.RecordUpload(len(req.Data), time.Since(start))
		}
	}()

	if len(req.Data) == 0 {
		return nil, ErrMissingPhoto
	}

	description := strings.TrimSpace(req.Description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, &ValidationError{Field: "description", Message: fmt.Sprintf("must be at most %d characters", MaxDescriptionLength)}
	}

	resized, err := s.resizer.Resize(req.Data, MaxWidth, MaxHeight)
	if err != nil {
		return nil, err
	}

	key := NewObjectKey()
	if err := s.store.Put(ctx, key, resized, "image/png"); err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}

	photo, err = s.repo.Add(ctx, &Photo{
		ObjectKey:   key,
		Labels:      PendingLabels,
		Description: description,
		UserID:      userID,
	})
	if err != nil {
		s.logger.Error("photo stored but not recorded", zap.String("object_key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to record photo: %w", err)
	}

	photo.SignedURL, err = s.store.PresignGet(ctx, key, s.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s: %w", key, err)
	}

	s.logger.Info("photo uploaded",
		zap.String("user", userID),
		zap.String("object_key", key),
		zap.Int("bytes", len(resized)))

	return photo, nil
}

// Delete forgets the user's photo. The stored object is kept.
func (s *photoService) Delete(ctx context.Context, userID, objectKey string) (err error) {
	defer func() { s.metrics.RecordPhotoOperation("delete", err) }()

	if !strings.HasPrefix(objectKey, KeyPrefix) {
		return ErrPhotoNotFound
	}
	if err := s.repo.Delete(ctx, objectKey, userID); err != nil {
		return err
	}

	s.logger.Info("photo deleted", zap.String("user", userID), zap.String("object_key", objectKey))
	return nil
}
