package handler

import (
	"net/http"

	"github.com/nimbusapp/nimbus-api/internal/application/otp"
	"github.com/nimbusapp/nimbus-api/internal/transport/http/cookies"
)

// CallbackHandler receives provider-originated email links: password
// recovery and email-change confirmations.
type CallbackHandler struct {
	svc     otp.Service
	cookies *cookies.Manager
}

func NewCallbackHandler(svc otp.Service, ck *cookies.Manager) *CallbackHandler {
	return &CallbackHandler{svc: svc, cookies: ck}
}

func (h *CallbackHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.CompleteCallback(r.Context(), otp.CallbackRequest{
		Code:      q.Get("code"),
		TokenHash: q.Get("token_hash"),
		Type:      q.Get("type"),
		Next:      q.Get("next"),
	})
	if err != nil {
		http.Redirect(w, r, "/auth-code-error", http.StatusSeeOther)
		return
	}
	if result.Session != nil {
		h.cookies.SetSession(w, result.Session)
	}
	http.Redirect(w, r, result.Redirect, http.StatusSeeOther)
}
