package oauth

import (
	"net/http"

	"Gallery/internal/metrics"
)

// HandleLogout clears the session and sends the browser to the provider's
// logout endpoint. Works with or without a session.
// GET /logout
func (h *OAuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Load(r)
	logoutURL := h.service.Logout(sess)

	if !h.saveSession(w, r, sess) {
		return
	}

	h.metrics.RecordAuthEvent("logout", metrics.ResultSuccess, "")
	http.Redirect(w, r, logoutURL, http.StatusFound)
}
