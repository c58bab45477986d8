package middleware

import (
	"context"
	"net/http"

	"Gallery/internal/core/oauth"
	"Gallery/internal/session"
)

// Context keys for storing user information
type contextKey string

const (
	IdentityKey contextKey = "identity"
)

// Authorizer answers whether a session holds a live identity
type Authorizer interface {
	AuthorizeRequest(sess oauth.Session) (oauth.Identity, bool)
}

// SessionAuthMiddleware guards routes with the cookie session established at
// login. It never calls the identity provider.
type SessionAuthMiddleware struct {
	store      *session.Store
	authorizer Authorizer
	// unauthorized renders the response for requests without a live session
	unauthorized http.Handler
}

// NewSessionAuthMiddleware creates the guard. unauthorized writes the 401
// page; when nil a plain 401 is sent.
func NewSessionAuthMiddleware(store *session.Store, authorizer Authorizer, unauthorized http.Handler) *SessionAuthMiddleware {
	if unauthorized == nil {
		unauthorized = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Please login to access this page", http.StatusUnauthorized)
		})
	}
	return &SessionAuthMiddleware{
		store:        store,
		authorizer:   authorizer,
		unauthorized: unauthorized,
	}
}

// RequireSession lets the request through only with an unexpired session and
// injects its Identity into the context. Expired sessions are rejected but
// not cleared.
func (m *SessionAuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := m.authorizer.AuthorizeRequest(m.store.Load(r))
		if !ok {
			m.unauthorized.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), identity)))
	})
}

// OptionalSession injects the Identity when there is one and always calls next
func (m *SessionAuthMiddleware) OptionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := m.authorizer.AuthorizeRequest(m.store.Load(r)); ok {
			r = r.WithContext(SetIdentity(r.Context(), identity))
		}
		next.ServeHTTP(w, r)
	})
}

// GetIdentity extracts the authenticated identity from the context
func GetIdentity(ctx context.Context) (oauth.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(oauth.Identity)
	return identity, ok
}

// SetIdentity stores identity in ctx
func SetIdentity(ctx context.Context, identity oauth.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}
