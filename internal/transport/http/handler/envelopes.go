package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nimbusapp/nimbus-api/internal/domain"
	"github.com/nimbusapp/nimbus-api/internal/infrastructure/identity"
)

// MessageEnvelope is the generic response wrapper. Redirect tells the caller
// where to navigate next.
type MessageEnvelope struct {
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Error    string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinels and provider errors to HTTP status codes.
// Provider messages are forwarded verbatim; everything else uses the
// sentinel's own message.
func httpError(w http.ResponseWriter, err error) {
	var perr *identity.Error
	if errors.As(err, &perr) {
		status := perr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		writeError(w, status, perr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrResendCooldown):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrChallengeExpired),
		errors.Is(err, domain.ErrCodeMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrEmailDelivery):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
