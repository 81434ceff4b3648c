package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nimbusapp/nimbus-api/internal/application/otp"
	"github.com/nimbusapp/nimbus-api/internal/transport/http/cookies"
)

// PasswordHandler covers the recovery-link flow: requesting the email and
// setting the new password from the link's one-time code.
type PasswordHandler struct {
	svc     otp.Service
	cookies *cookies.Manager
}

func NewPasswordHandler(svc otp.Service, ck *cookies.Manager) *PasswordHandler {
	return &PasswordHandler{svc: svc, cookies: ck}
}

func (h *PasswordHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password reset email sent"})
}

func (h *PasswordHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code            string `json:"code"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := h.svc.UpdatePassword(r.Context(), req.Code, req.Password, req.ConfirmPassword)
	if err != nil {
		httpError(w, err)
		return
	}
	h.cookies.SetSession(w, sess)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password updated", Redirect: "/login"})
}
