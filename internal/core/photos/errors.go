package photos

import (
	"errors"
	"fmt"
)

// Sentinel errors for photo operations
var (
	// ErrPhotoNotFound is returned when no photo with the key belongs to the user
	ErrPhotoNotFound = errors.New("photo not found")

	// ErrMissingPhoto is returned when an upload carries no file
	ErrMissingPhoto = errors.New("no photo provided")

	// ErrInvalidImage is returned when the upload cannot be decoded as an image
	ErrInvalidImage = errors.New("invalid image")

	// ErrDuplicateKey is returned when an object key is already recorded
	ErrDuplicateKey = errors.New("photo object key already exists")
)

// ValidationError reports a bad user-supplied field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is a user input problem
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrMissingPhoto) || errors.Is(err, ErrInvalidImage)
}
