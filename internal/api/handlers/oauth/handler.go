package oauth

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	oauthCore "Gallery/internal/core/oauth"
	"Gallery/internal/metrics"
	"Gallery/internal/session"
)

// Service is the part of the auth session manager the HTTP layer drives
type Service interface {
	InitiateLogin(sess oauthCore.Session) (string, error)
	HandleCallback(ctx context.Context, sess oauthCore.Session, state, code string) (oauthCore.Identity, error)
	Logout(sess oauthCore.Session) string
}

// MessageRenderer writes a one-line HTML page
type MessageRenderer interface {
	RenderMessage(w http.ResponseWriter, r *http.Request, status int, message string)
}

// failureMessage is all the browser learns about a failed login
const failureMessage = "Something went wrong"

// OAuthHandler serves the hosted-login endpoints
type OAuthHandler struct {
	service  Service
	store    *session.Store
	renderer MessageRenderer
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewOAuthHandler creates the handler. m may be nil.
func NewOAuthHandler(service Service, store *session.Store, renderer MessageRenderer, m *metrics.Metrics, logger *zap.Logger) *OAuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OAuthHandler{
		service:  service,
		store:    store,
		renderer: renderer,
		metrics:  m,
		logger:   logger,
	}
}

func (h *OAuthHandler) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	if err := sess.Save(r, w); err != nil {
		h.logger.Error("failed to save session", zap.Error(err))
		h.renderer.RenderMessage(w, r, http.StatusInternalServerError, failureMessage)
		return false
	}
	return true
}
