package oauth

import (
	"net/http"

	"go.uber.org/zap"

	"Gallery/internal/metrics"
)

// HandleLogin starts the hosted-login flow
// GET /login
func (h *OAuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Load(r)

	loginURL, err := h.service.InitiateLogin(sess)
	if err != nil {
		h.logger.Error("failed to start login", zap.Error(err))
		h.metrics.RecordAuthEvent("login", metrics.ResultFailure, "")
		h.renderer.RenderMessage(w, r, http.StatusInternalServerError, failureMessage)
		return
	}

	if !h.saveSession(w, r, sess) {
		return
	}

	h.metrics.RecordAuthEvent("login", metrics.ResultSuccess, "")
	http.Redirect(w, r, loginURL, http.StatusFound)
}
