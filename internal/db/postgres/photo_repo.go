package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"Gallery/internal/core/photos"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure
const uniqueViolation = "23505"

type postgresPhotoRepo struct {
	db *sqlx.DB
}

// NewPhotoRepository creates a new PostgreSQL photo repository
func NewPhotoRepository(db *sqlx.DB) photos.Repository {
	return &postgresPhotoRepo{db: db}
}

// Add inserts a photo row and returns it with id and created_at filled in
func (r *postgresPhotoRepo) Add(ctx context.Context, photo *photos.Photo) (*photos.Photo, error) {
	query := `
		INSERT INTO photos (object_key, labels, description, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, object_key, labels, description, user_id, created_at`

	created := &photos.Photo{}
	err := r.db.QueryRowxContext(ctx, query, photo.ObjectKey, photo.Labels, photo.Description, photo.UserID).
		StructScan(created)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, photos.ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to insert photo: %w", err)
	}

	return created, nil
}

// ListByUser returns userID's photos, newest first
func (r *postgresPhotoRepo) ListByUser(ctx context.Context, userID string) ([]*photos.Photo, error) {
	query := `
		SELECT id, object_key, labels, description, user_id, created_at
		FROM photos
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	result := []*photos.Photo{}
	if err := r.db.SelectContext(ctx, &result, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return result, nil
}

// Delete removes the row only when it belongs to userID
func (r *postgresPhotoRepo) Delete(ctx context.Context, objectKey, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE object_key = $1 AND user_id = $2`, objectKey, userID)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return photos.ErrPhotoNotFound
	}
	return nil
}
