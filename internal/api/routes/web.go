package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"Gallery/internal/api/middleware"
	"Gallery/internal/web"
)

// RegisterWebRoutes registers the public pages. Pages show the logged-in
// user when there is one.
func RegisterWebRoutes(r chi.Router, handlers *web.Handlers, authMiddleware *middleware.SessionAuthMiddleware) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.OptionalSession)
		r.Get("/", handlers.Home)
		r.Get("/info", handlers.Info)
	})
}

// RegisterPhotoRoutes registers the guarded photo pages
func RegisterPhotoRoutes(r chi.Router, handlers *web.Handlers, authMiddleware *middleware.SessionAuthMiddleware) {
	// Uploads are expensive: 30 req/min per IP
	uploadLimiter := middleware.NewRateLimiter(30, 1*time.Minute)

	r.Route("/myphotos", func(r chi.Router) {
		r.Use(authMiddleware.RequireSession)

		r.Get("/", handlers.MyPhotos)
		r.With(uploadLimiter.Middleware).Post("/", handlers.Upload)

		// Object keys contain slashes. POST only: a GET would ride along on
		// cross-site navigations with the Lax session cookie.
		r.Post("/delete/*", handlers.Delete)
	})
}
