package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nimbusapp/nimbus-api/internal/application/otp"
	"github.com/nimbusapp/nimbus-api/internal/transport/http/cookies"
)

// EmailHandler covers changing the account's primary email. Confirmation
// happens via a provider-emailed link; the settings page long-polls the wait
// endpoint until the provider reports the new address.
type EmailHandler struct {
	svc otp.Service
}

func NewEmailHandler(svc otp.Service) *EmailHandler {
	return &EmailHandler{svc: svc}
}

func (h *EmailHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.UpdateEmail(r.Context(), cookies.AccessTokenValue(r), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "confirmation link sent to your new email"})
}

// WaitEmailChange blocks until the provider reports the new address or the
// bounded polling window closes. Client disconnects cancel the wait through
// the request context.
func (h *EmailHandler) WaitEmailChange(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email query parameter required")
		return
	}
	// The wait outlives the server's default write timeout.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Now().Add(3 * time.Minute))
	err := h.svc.WaitForEmailChange(r.Context(), cookies.AccessTokenValue(r), email)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			writeError(w, http.StatusGatewayTimeout, "email change not confirmed yet")
			return
		}
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "email updated"})
}
