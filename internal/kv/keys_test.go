package kv

import (
	"testing"
	"time"

	"github.com/portal-auth/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestKeyPatterns(t *testing.T) {
	id := domain.Identity{Username: "alice", UserID: "u-123"}
	day := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "access_token:alice:u-123", AccessTokenKey(id))
	assert.Equal(t, "refresh_token:alice", RefreshTokenKey(id))
	assert.Equal(t, "token_blacklist:tok-xyz", BlacklistKey("tok-xyz"))
	assert.Equal(t, "verification_code:alice:u-123:login", VerificationCodeKey(id, domain.PurposeLogin))
	assert.Equal(t, "send_time:alice:u-123", SendCooldownKey(id))
	assert.Equal(t, "send_count:alice:u-123:20250601", DailyQuotaKey(id, day))
}

func TestDailyQuotaKey_UsesUTCDate(t *testing.T) {
	id := domain.Identity{Username: "bob", UserID: "u-9"}
	// 23:30 in UTC-3 is already the next day in UTC.
	loc := time.FixedZone("UTC-3", -3*3600)
	local := time.Date(2025, 6, 1, 23, 30, 0, 0, loc)

	assert.Equal(t, "send_count:bob:u-9:20250602", DailyQuotaKey(id, local))
}
