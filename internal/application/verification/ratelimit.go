package verification

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/portal-auth/internal/domain"
	"github.com/portal-auth/internal/kv"
)

const quotaWindow = 24 * time.Hour

// RateLimiter enforces a per-identity send cooldown and a per-identity-per-day
// send quota, both kept in the shared TTL store so no cleanup jobs exist.
type RateLimiter struct {
	store    kv.Store
	cooldown time.Duration
	dailyMax int
	now      func() time.Time
}

func NewRateLimiter(store kv.Store, cooldown time.Duration, dailyMax int) *RateLimiter {
	return &RateLimiter{store: store, cooldown: cooldown, dailyMax: dailyMax, now: time.Now}
}

// WithClock replaces the limiter's time source. For tests.
func (r *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	r.now = now
	return r
}

// CooldownRemaining returns how long until the identity may send again;
// zero means sendable now.
func (r *RateLimiter) CooldownRemaining(ctx context.Context, id domain.Identity) (time.Duration, error) {
	v, err := r.store.Get(ctx, kv.SendCooldownKey(id))
	if errors.Is(err, kv.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	sentAt, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, nil
	}
	remaining := time.Unix(sentAt, 0).Add(r.cooldown).Sub(r.now())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// QuotaRemaining returns how many sends the identity has left today.
func (r *RateLimiter) QuotaRemaining(ctx context.Context, id domain.Identity) (int, error) {
	v, err := r.store.Get(ctx, kv.DailyQuotaKey(id, r.now()))
	if errors.Is(err, kv.ErrNotFound) {
		return r.dailyMax, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return r.dailyMax, nil
	}
	remaining := r.dailyMax - int(n)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// ClaimCooldown atomically takes the cooldown slot (set-if-absent with TTL).
// Returns false when another send already holds it. This closes the
// check-then-act race two concurrent sends would otherwise slip through.
func (r *RateLimiter) ClaimCooldown(ctx context.Context, id domain.Identity) (bool, error) {
	ts := strconv.FormatInt(r.now().Unix(), 10)
	return r.store.SetNX(ctx, kv.SendCooldownKey(id), ts, r.cooldown)
}

// ReleaseCooldown frees a claimed slot, used when dispatch fails after the
// claim so the user can retry without waiting out the interval.
func (r *RateLimiter) ReleaseCooldown(ctx context.Context, id domain.Identity) error {
	return r.store.Delete(ctx, kv.SendCooldownKey(id))
}

// RecordSend counts a successfully dispatched send against today's quota.
// The counter key embeds the calendar date, so the quota resets implicitly
// when the date changes.
func (r *RateLimiter) RecordSend(ctx context.Context, id domain.Identity) error {
	_, err := r.store.Increment(ctx, kv.DailyQuotaKey(id, r.now()), quotaWindow)
	return err
}
