package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"Gallery/internal/api/handlers/oauth"
	"Gallery/internal/api/middleware"
)

// RegisterOAuthRoutes registers the hosted-login endpoints with their own
// per-IP rate limit, stricter than the global one.
func RegisterOAuthRoutes(r chi.Router, handler *oauth.OAuthHandler, allowedOrigins []string) {
	// Login endpoints: 10 req/min per IP
	loginLimiter := middleware.NewRateLimiter(10, 1*time.Minute)

	// Logout endpoint: 10 req/min per IP
	logoutLimiter := middleware.NewRateLimiter(10, 1*time.Minute)

	r.With(loginLimiter.Middleware).Get("/login", handler.HandleLogin)

	// The callback is reached by a redirect from the provider's domain
	r.With(corsMiddleware(allowedOrigins), loginLimiter.Middleware).Get("/callback", handler.HandleCallback)

	r.With(logoutLimiter.Middleware).Get("/logout", handler.HandleLogout)
}

// corsMiddleware creates a CORS middleware for the callback with specific allowed origins
func corsMiddleware(allowedOrigins []string) func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	})
}
