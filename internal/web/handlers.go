package web

import (
	"errors"
	"io"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Gallery/internal/api/middleware"
	"Gallery/internal/core/photos"
	"Gallery/internal/instance"
)

const (
	// DefaultMaxUploadBytes caps the multipart body of an upload
	DefaultMaxUploadBytes = 10 << 20

	siteTitle = "Photo gallery"
)

// Handlers serves the gallery pages
type Handlers struct {
	templates      *Templates
	photos         photos.Service
	describer      instance.Describer
	logger         *zap.Logger
	maxUploadBytes int64
}

// NewHandlers creates the page handlers. describer may be nil, in which case
// /info reports unknown placement.
func NewHandlers(templates *Templates, photoService photos.Service, describer instance.Describer, logger *zap.Logger) *Handlers {
	if describer == nil {
		describer = instance.Static{InstanceID: instance.Unknown, AvailabilityZone: instance.Unknown}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		templates:      templates,
		photos:         photoService,
		describer:      describer,
		logger:         logger,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
}

// Home renders the landing page
// GET /
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "home.html", newPage(r, siteTitle))
}

// Info renders where this process is running
// GET /info
func (h *Handlers) Info(w http.ResponseWriter, r *http.Request) {
	info := h.describer.Describe(r.Context())
	h.render(w, http.StatusOK, "info.html", InfoPage{
		Page:             newPage(r, "Server info"),
		InstanceID:       info.InstanceID,
		AvailabilityZone: info.AvailabilityZone,
		GoVersion:        runtime.Version(),
	})
}

// MyPhotos lists the current user's photos
// GET /myphotos
func (h *Handlers) MyPhotos(w http.ResponseWriter, r *http.Request) {
	h.renderMyPhotos(w, r, http.StatusOK, nil, "")
}

// Upload stores a new photo from a multipart form with fields "photo" and
// "description".
// POST /myphotos
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		h.Unauthorized(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderMyPhotos(w, r, http.StatusRequestEntityTooLarge, nil, "Photo is too large")
			return
		}
		h.renderMyPhotos(w, r, http.StatusBadRequest, nil, "Invalid upload")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	data, err := readFormFile(r, "photo")
	if err != nil {
		h.renderMyPhotos(w, r, http.StatusBadRequest, nil, userMessage(err))
		return
	}

	photo, err := h.photos.Upload(r.Context(), identity.UserID, photos.UploadRequest{
		Description: r.FormValue("description"),
		Data:        data,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("photo upload failed", zap.String("user", identity.UserID), zap.Error(err))
			h.RenderMessage(w, r, status, "Something went wrong")
			return
		}
		h.renderMyPhotos(w, r, status, nil, userMessage(err))
		return
	}

	h.renderMyPhotos(w, r, http.StatusOK, photo, "")
}

// Delete removes one of the current user's photos and goes back to the list.
// The object key is the rest of the path and contains slashes.
// POST /myphotos/delete/*
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		h.Unauthorized(w, r)
		return
	}

	objectKey := chi.URLParam(r, "*")
	if err := h.photos.Delete(r.Context(), identity.UserID, objectKey); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("photo delete failed",
				zap.String("user", identity.UserID),
				zap.String("object_key", objectKey),
				zap.Error(err))
			h.RenderMessage(w, r, status, "Something went wrong")
			return
		}
		h.RenderMessage(w, r, status, userMessage(err))
		return
	}

	http.Redirect(w, r, "/myphotos", http.StatusFound)
}

// Unauthorized renders the login prompt with status 401
func (h *Handlers) Unauthorized(w http.ResponseWriter, r *http.Request) {
	h.RenderMessage(w, r, http.StatusUnauthorized, "Please login to access this page")
}

// RenderMessage renders a one-line page with the given status
func (h *Handlers) RenderMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, status, "message.html", MessagePage{
		Page:    newPage(r, siteTitle),
		Message: message,
	})
}

func (h *Handlers) renderMyPhotos(w http.ResponseWriter, r *http.Request, status int, uploaded *photos.Photo, formError string) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		h.Unauthorized(w, r)
		return
	}

	list, err := h.photos.List(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("failed to list photos", zap.String("user", identity.UserID), zap.Error(err))
		h.RenderMessage(w, r, http.StatusInternalServerError, "Something went wrong")
		return
	}

	h.render(w, status, "myphotos.html", MyPhotosPage{
		Page:     newPage(r, "My photos"),
		Photos:   list,
		Uploaded: uploaded,
		Error:    formError,
	})
}

func (h *Handlers) render(w http.ResponseWriter, status int, name string, data any) {
	if err := h.templates.Render(w, status, name, data); err != nil {
		h.logger.Error("failed to render page", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func readFormFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, photos.ErrMissingPhoto
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return io.ReadAll(file)
}
