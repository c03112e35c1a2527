// Package verification issues and verifies rate-limited one-time codes for
// registration, email-code login and password reset.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/portal-auth/internal/domain"
	"github.com/portal-auth/internal/pkg/code"
)

// Codes is the outstanding-code store.
type Codes interface {
	Put(ctx context.Context, id domain.Identity, purpose domain.Purpose, code string, ttl time.Duration) error
	Consume(ctx context.Context, id domain.Identity, purpose domain.Purpose, submitted string) (bool, error)
}

// Limiter enforces the send cooldown and daily quota.
type Limiter interface {
	CooldownRemaining(ctx context.Context, id domain.Identity) (time.Duration, error)
	QuotaRemaining(ctx context.Context, id domain.Identity) (int, error)
	ClaimCooldown(ctx context.Context, id domain.Identity) (bool, error)
	ReleaseCooldown(ctx context.Context, id domain.Identity) error
	RecordSend(ctx context.Context, id domain.Identity) error
}

// Notifier dispatches a generated code to the identity. It is a fallible
// black box; retry/backoff, if any, lives inside the Notifier.
type Notifier interface {
	Send(ctx context.Context, id domain.Identity, codeStr string, purpose domain.Purpose, ttl time.Duration) error
}

type Service interface {
	// Send generates a code for (identity, purpose), stores it and
	// dispatches it, subject to the cooldown and daily quota.
	Send(ctx context.Context, id domain.Identity, purpose domain.Purpose) error

	// Verify consumes the outstanding code. True exactly once per issued
	// code; wrong guesses leave the stored code intact.
	Verify(ctx context.Context, id domain.Identity, purpose domain.Purpose, submitted string) bool
}

type service struct {
	codes    Codes
	limiter  Limiter
	notifier Notifier
	policy   code.Policy
	codeTTL  time.Duration
}

func NewService(codes Codes, limiter Limiter, notifier Notifier, policy code.Policy, codeTTL time.Duration) Service {
	return &service{
		codes:    codes,
		limiter:  limiter,
		notifier: notifier,
		policy:   policy,
		codeTTL:  codeTTL,
	}
}

func (s *service) Send(ctx context.Context, id domain.Identity, purpose domain.Purpose) error {
	if !purpose.Valid() {
		return fmt.Errorf("unknown purpose %q: %w", purpose, domain.ErrBadRequest)
	}

	remaining, err := s.limiter.CooldownRemaining(ctx, id)
	if err != nil {
		return fmt.Errorf("read cooldown: %w", domain.ErrStoreUnavailable)
	}
	if remaining > 0 {
		return fmt.Errorf("retry in %s: %w", remaining.Round(time.Second), domain.ErrCooldownActive)
	}

	quota, err := s.limiter.QuotaRemaining(ctx, id)
	if err != nil {
		return fmt.Errorf("read quota: %w", domain.ErrStoreUnavailable)
	}
	if quota == 0 {
		return fmt.Errorf("identity %s: %w", id.Username, domain.ErrDailyQuotaExceeded)
	}

	codeStr, err := s.policy.Generate()
	if err != nil {
		return err
	}
	if err := s.codes.Put(ctx, id, purpose, codeStr, s.codeTTL); err != nil {
		return fmt.Errorf("store code: %w", domain.ErrStoreUnavailable)
	}

	// The cooldown slot is claimed atomically before dispatch, so two
	// concurrent sends can never both dispatch inside one window.
	claimed, err := s.limiter.ClaimCooldown(ctx, id)
	if err != nil {
		return fmt.Errorf("claim cooldown: %w", domain.ErrStoreUnavailable)
	}
	if !claimed {
		return fmt.Errorf("concurrent send won the slot: %w", domain.ErrCooldownActive)
	}

	if err := s.notifier.Send(ctx, id, codeStr, purpose, s.codeTTL); err != nil {
		// The stored code stays valid until its TTL; a resend overwrites it.
		// The claim is released so the user need not wait out the interval.
		if rerr := s.limiter.ReleaseCooldown(ctx, id); rerr != nil {
			slog.Warn("failed to release cooldown after dispatch failure",
				"username", id.Username, "purpose", purpose, "err", rerr)
		}
		return fmt.Errorf("dispatch code: %w", domain.ErrNotificationFailed)
	}

	if err := s.limiter.RecordSend(ctx, id); err != nil {
		return fmt.Errorf("record send: %w", domain.ErrStoreUnavailable)
	}
	return nil
}

func (s *service) Verify(ctx context.Context, id domain.Identity, purpose domain.Purpose, submitted string) bool {
	ok, err := s.codes.Consume(ctx, id, purpose, submitted)
	if err != nil {
		// Fail closed: a store error never reads as a valid code.
		slog.Warn("code consume failed", "username", id.Username, "purpose", purpose, "err", err)
		return false
	}
	return ok
}
