package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/portal-auth/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TokenEnvelope wraps issuance responses.
type TokenEnvelope struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// writeDomainError maps error kinds to generic, non-enumerating messages.
// Account-existence details never leak: auth failures of any flavor collapse
// to the same 401.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCooldownActive):
		writeError(w, http.StatusTooManyRequests, "please wait before requesting another code")
	case errors.Is(err, domain.ErrDailyQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, "daily code limit reached")
	case errors.Is(err, domain.ErrNotificationFailed):
		writeError(w, http.StatusBadGateway, "could not deliver the code, try again later")
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "unable to register with the provided details")
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenRevoked),
		errors.Is(err, domain.ErrSessionMismatch),
		errors.Is(err, domain.ErrCodeInvalidOrExpired):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
