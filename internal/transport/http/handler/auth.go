package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nimbusapp/nimbus-api/internal/application/otp"
	"github.com/nimbusapp/nimbus-api/internal/domain"
	"github.com/nimbusapp/nimbus-api/internal/transport/http/cookies"
)

// AuthHandler exposes the OTP signup/login/verify/resend flow.
type AuthHandler struct {
	svc     otp.Service
	cookies *cookies.Manager
}

func NewAuthHandler(svc otp.Service, ck *cookies.Manager) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: ck}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req otp.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	h.cookies.SetSession(w, result.Session)
	h.cookies.SetVerification(w, result.ChallengeHandle)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent", Redirect: "/verify-code"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req otp.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.svc.Login(r.Context(), req, cookies.VerificationHandle(r))
	if err != nil {
		httpError(w, err)
		return
	}
	h.cookies.SetSession(w, result.Session)
	if result.ChallengeHandle != "" {
		h.cookies.SetVerification(w, result.ChallengeHandle)
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Redirect: result.Redirect})
}

func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.svc.VerifyCode(r.Context(), cookies.AccessTokenValue(r), cookies.VerificationHandle(r), req.Code)
	if err != nil {
		// A mismatch keeps the record so the user may retry; anything else
		// terminal for the challenge drops the cookie.
		if !errors.Is(err, domain.ErrCodeMismatch) {
			h.cookies.ClearVerification(w)
		}
		httpError(w, err)
		return
	}
	h.cookies.ClearVerification(w)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "email verified", Redirect: result.Redirect})
}

func (h *AuthHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req otp.ResendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.svc.ResendCode(r.Context(), cookies.VerificationHandle(r), req.Email)
	if err != nil {
		httpError(w, err)
		return
	}
	h.cookies.SetVerification(w, result.ChallengeHandle)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	_ = h.svc.SignOut(r.Context(), cookies.AccessTokenValue(r))
	h.cookies.ClearSession(w)
	h.cookies.ClearVerification(w)
	writeJSON(w, http.StatusOK, MessageEnvelope{Redirect: "/login"})
}
