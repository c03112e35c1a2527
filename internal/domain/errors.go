package domain

import "errors"

// Sentinel errors for the auth core. Services wrap these with
// fmt.Errorf("...: %w", ...) so callers branch with errors.Is,
// never on message text.
var (
	// Token lifecycle.
	ErrTokenInvalid    = errors.New("token invalid")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenRevoked    = errors.New("token revoked")
	ErrSessionMismatch = errors.New("session mismatch")

	// Verification codes and rate limiting.
	ErrCooldownActive       = errors.New("send cooldown active")
	ErrDailyQuotaExceeded   = errors.New("daily send quota exceeded")
	ErrCodeInvalidOrExpired = errors.New("verification code invalid or expired")
	ErrNotificationFailed   = errors.New("notification dispatch failed")

	// Infrastructure.
	ErrStoreUnavailable = errors.New("key-value store unavailable")

	// Generic kinds used by the HTTP surface.
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
)
