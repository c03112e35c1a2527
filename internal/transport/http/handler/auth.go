package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/portal-auth/internal/application/account"
	"github.com/portal-auth/internal/application/token"
	"github.com/portal-auth/internal/application/verification"
	"github.com/portal-auth/internal/domain"
	"github.com/portal-auth/internal/pkg/validate"
	"github.com/portal-auth/internal/transport/http/middleware"
)

// AuthHandler exposes the auth core over thin JSON endpoints.
type AuthHandler struct {
	tokens   token.Service
	codes    verification.Service
	accounts account.Service
}

func NewAuthHandler(tokens token.Service, codes verification.Service, accounts account.Service) *AuthHandler {
	return &AuthHandler{tokens: tokens, codes: codes, accounts: accounts}
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login is the password flow: credential check then pair issuance.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	identity, err := h.accounts.VerifyPassword(r.Context(), req.Login, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.issue(w, r, identity)
}

type codeLoginRequest struct {
	Login string `json:"login" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

// LoginWithCode is the email-code flow: consume the LOGIN code, then issue.
func (h *AuthHandler) LoginWithCode(w http.ResponseWriter, r *http.Request) {
	var req codeLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	identity, err := h.accounts.Lookup(r.Context(), req.Login)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !h.codes.Verify(r.Context(), identity, domain.PurposeLogin, req.Code) {
		writeDomainError(w, domain.ErrCodeInvalidOrExpired)
		return
	}
	h.issue(w, r, identity)
}

type sendCodeRequest struct {
	Login   string         `json:"login" validate:"required"`
	Purpose domain.Purpose `json:"purpose" validate:"required"`
}

// SendCode issues a verification code for login, registration or password
// reset. For registration the login field is the email to register.
func (h *AuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Purpose.Valid() {
		writeError(w, http.StatusBadRequest, "unknown purpose")
		return
	}

	var identity domain.Identity
	if req.Purpose == domain.PurposeRegister {
		// No account exists yet; key the code by the submitted address.
		identity = domain.Identity{Username: req.Login}
	} else {
		var err error
		identity, err = h.accounts.Lookup(r.Context(), req.Login)
		if err != nil {
			// Non-enumerating: report success whether or not the account
			// exists, but only dispatch when it does.
			writeJSON(w, http.StatusOK, MessageEnvelope{Message: "code sent if the account exists"})
			return
		}
	}

	if err := h.codes.Send(r.Context(), identity, req.Purpose); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "code sent if the account exists"})
}

type registerRequest struct {
	account.RegisterRequest
	Code string `json:"code" validate:"required"`
}

// Register creates an account after the REGISTER code for the email verifies.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	preRegister := domain.Identity{Username: req.Email}
	if !h.codes.Verify(r.Context(), preRegister, domain.PurposeRegister, req.Code) {
		writeDomainError(w, domain.ErrCodeInvalidOrExpired)
		return
	}
	identity, err := h.accounts.Register(r.Context(), req.RegisterRequest)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.issue(w, r, identity)
}

type resetPasswordRequest struct {
	Login       string `json:"login" validate:"required"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// ResetPassword consumes a RESET_PASSWORD code and replaces the password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	identity, err := h.accounts.Lookup(r.Context(), req.Login)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !h.codes.Verify(r.Context(), identity, domain.PurposeResetPassword, req.Code) {
		writeDomainError(w, domain.ErrCodeInvalidOrExpired)
		return
	}
	if err := h.accounts.ResetPassword(r.Context(), identity, req.NewPassword); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password updated"})
}

// Refresh mints a new access token from a refresh token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token required")
		return
	}
	access, err := h.tokens.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenEnvelope{AccessToken: access})
}

// Logout revokes the presented access token and drops the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	info, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.tokens.Revoke(r.Context(), info.Token); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}

func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	pair, err := h.tokens.IssuePair(r.Context(), identity)
	if err != nil {
		writeDomainError(w, fmt.Errorf("issue pair: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, TokenEnvelope{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}
