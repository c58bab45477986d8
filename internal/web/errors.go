package web

import (
	"errors"
	"net/http"

	"Gallery/internal/core/photos"
)

// statusFor maps photo errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, photos.ErrPhotoNotFound):
		return http.StatusNotFound
	case photos.IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the text shown for errors the user can act on
func userMessage(err error) string {
	var ve *photos.ValidationError
	switch {
	case errors.Is(err, photos.ErrPhotoNotFound):
		return "Photo not found"
	case errors.Is(err, photos.ErrMissingPhoto):
		return "Please choose a photo to upload"
	case errors.Is(err, photos.ErrInvalidImage):
		return "That file is not an image we can read"
	case errors.As(err, &ve):
		return "Description " + ve.Message
	default:
		return "Invalid upload"
	}
}
