package kv

import (
	"time"

	"github.com/portal-auth/internal/domain"
)

// Key builders for the shared store. All components share one Store instance;
// these prefixes keep their namespaces disjoint. The patterns are part of the
// external contract and must not change.

// AccessTokenKey holds the single currently-valid access token per identity.
func AccessTokenKey(id domain.Identity) string {
	return "access_token:" + id.Username + ":" + id.UserID
}

// RefreshTokenKey holds the single currently-valid refresh token per user.
func RefreshTokenKey(id domain.Identity) string {
	return "refresh_token:" + id.Username
}

// BlacklistKey marks an explicitly revoked token.
func BlacklistKey(token string) string {
	return "token_blacklist:" + token
}

// VerificationCodeKey holds the outstanding single-use code per
// (identity, purpose).
func VerificationCodeKey(id domain.Identity, purpose domain.Purpose) string {
	return "verification_code:" + id.Key() + ":" + string(purpose)
}

// SendCooldownKey existing means "too soon to resend" for this identity.
func SendCooldownKey(id domain.Identity) string {
	return "send_time:" + id.Key()
}

// DailyQuotaKey counts sends per identity per calendar date (UTC).
func DailyQuotaKey(id domain.Identity, day time.Time) string {
	return "send_count:" + id.Key() + ":" + day.UTC().Format("20060102")
}
