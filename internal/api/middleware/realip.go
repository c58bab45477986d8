package middleware

import (
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// TrustedRealIP applies chi's RealIP when the server sits behind a proxy that
// sets X-Forwarded-For or X-Real-IP. Otherwise those headers are client input
// and RemoteAddr is left alone.
func TrustedRealIP(trustProxy bool) func(http.Handler) http.Handler {
	if trustProxy {
		return chiMiddleware.RealIP
	}
	return func(next http.Handler) http.Handler { return next }
}
