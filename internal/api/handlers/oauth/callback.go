package oauth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"Gallery/internal/auth"
	oauthCore "Gallery/internal/core/oauth"
	"Gallery/internal/metrics"
)

// HandleCallback completes the login started by HandleLogin
// GET /callback?code=...&state=...
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Load(r)
	query := r.URL.Query()

	// The provider reports a refused login with error instead of code
	if errParam := query.Get("error"); errParam != "" {
		h.logger.Warn("identity provider returned an error",
			zap.String("error", errParam),
			zap.String("error_description", query.Get("error_description")))
		sess.Delete(oauthCore.SessionKeyState)
		h.metrics.RecordAuthEvent("callback", metrics.ResultFailure, "provider_error")
		if h.saveSession(w, r, sess) {
			h.renderer.RenderMessage(w, r, http.StatusBadRequest, failureMessage)
		}
		return
	}

	identity, err := h.service.HandleCallback(r.Context(), sess, query.Get("state"), query.Get("code"))

	// Save either way so the consumed state does not survive
	if !h.saveSession(w, r, sess) {
		return
	}

	if err != nil {
		kind := auth.KindOf(err)
		var authErr *auth.AuthenticationError
		if errors.As(err, &authErr) && authErr.Kind == auth.KindInvalidToken {
			// report the specific verification failure
			if inner := auth.KindOf(authErr.Err); inner != "" {
				kind = inner
			}
		}
		h.metrics.RecordAuthEvent("callback", metrics.ResultFailure, string(kind))
		h.renderer.RenderMessage(w, r, callbackStatus(err), failureMessage)
		return
	}

	h.metrics.RecordAuthEvent("callback", metrics.ResultSuccess, "")
	h.logger.Debug("session established", zap.String("user", identity.UserID))
	http.Redirect(w, r, "/", http.StatusFound)
}

func callbackStatus(err error) int {
	if errors.Is(err, auth.ErrTokenExchangeFailed) {
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}
