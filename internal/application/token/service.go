// Package token issues, validates, refreshes and revokes access/refresh
// token pairs. At most one session is active per identity: each issuance
// supersedes the previous one.
package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/portal-auth/internal/domain"
	"github.com/portal-auth/internal/kv"
)

// Signer signs and verifies token claims. No persistent state.
type Signer interface {
	Sign(id domain.Identity, kind domain.TokenKind) (string, error)
	Verify(token string) (domain.Identity, domain.TokenKind, error)
	TTL(kind domain.TokenKind) time.Duration
}

// Sessions is the per-identity current-token store the service writes to.
type Sessions interface {
	PutAccess(ctx context.Context, id domain.Identity, token string, ttl time.Duration) error
	GetAccess(ctx context.Context, id domain.Identity) (string, error)
	DeleteAccess(ctx context.Context, id domain.Identity) error
	PutRefresh(ctx context.Context, id domain.Identity, token string, ttl time.Duration) error
	GetRefresh(ctx context.Context, id domain.Identity) (string, error)
	DeleteRefresh(ctx context.Context, id domain.Identity) error
}

// Revocations is the explicit-revocation blacklist.
type Revocations interface {
	Revoke(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type Service interface {
	// IssuePair signs and stores a fresh access/refresh pair, superseding any
	// prior session for the identity.
	IssuePair(ctx context.Context, id domain.Identity) (*domain.TokenPair, error)

	// Validate reports whether the presented access token is the identity's
	// current, unrevoked, unexpired one. Store failures read as invalid.
	Validate(ctx context.Context, accessToken string) bool

	// Refresh mints a new access token against a valid refresh token. The
	// refresh token itself is not rotated.
	Refresh(ctx context.Context, refreshToken string) (string, error)

	// Revoke is the logout primitive: blacklist the token and drop the
	// identity's session records.
	Revoke(ctx context.Context, accessToken string) error
}

type service struct {
	signer      Signer
	sessions    Sessions
	revocations Revocations
	now         func() time.Time
}

func NewService(signer Signer, sessions Sessions, revocations Revocations) Service {
	return &service{
		signer:      signer,
		sessions:    sessions,
		revocations: revocations,
		now:         time.Now,
	}
}

func (s *service) IssuePair(ctx context.Context, id domain.Identity) (*domain.TokenPair, error) {
	accessTTL := s.signer.TTL(domain.TokenKindAccess)
	refreshTTL := s.signer.TTL(domain.TokenKindRefresh)

	access, err := s.signer.Sign(id, domain.TokenKindAccess)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.signer.Sign(id, domain.TokenKindRefresh)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	// Issuance fails loud: succeeding without persisted session state would
	// leave the pair unverifiable.
	if err := s.sessions.PutAccess(ctx, id, access, accessTTL); err != nil {
		return nil, fmt.Errorf("store access token: %w", domain.ErrStoreUnavailable)
	}
	if err := s.sessions.PutRefresh(ctx, id, refresh, refreshTTL); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", domain.ErrStoreUnavailable)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		IssuedAt:     s.now().UTC(),
		AccessTTL:    accessTTL,
		RefreshTTL:   refreshTTL,
	}, nil
}

func (s *service) Validate(ctx context.Context, accessToken string) bool {
	// Revocation first: a revoked-but-still-cryptographically-valid token
	// must never pass, and a store failure here reads as invalid.
	revoked, err := s.revocations.IsRevoked(ctx, accessToken)
	if err != nil || revoked {
		return false
	}

	id, kind, err := s.signer.Verify(accessToken)
	if err != nil || kind != domain.TokenKindAccess {
		return false
	}

	// The stored value must equal the presented token exactly. This rejects
	// "replaced by a newer login" and "never issued" uniformly.
	stored, err := s.sessions.GetAccess(ctx, id)
	if err != nil {
		return false
	}
	return stored == accessToken
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	id, kind, err := s.signer.Verify(refreshToken)
	if err != nil {
		return "", err
	}
	if kind != domain.TokenKindRefresh {
		return "", fmt.Errorf("not a refresh token: %w", domain.ErrTokenInvalid)
	}

	stored, err := s.sessions.GetRefresh(ctx, id)
	if errors.Is(err, kv.ErrNotFound) {
		return "", fmt.Errorf("no session for %s: %w", id.Username, domain.ErrSessionMismatch)
	}
	if err != nil {
		return "", fmt.Errorf("read refresh session: %w", domain.ErrStoreUnavailable)
	}
	if stored != refreshToken {
		// A superseded refresh token from an earlier session.
		return "", fmt.Errorf("superseded refresh token: %w", domain.ErrSessionMismatch)
	}

	access, err := s.signer.Sign(id, domain.TokenKindAccess)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	if err := s.sessions.PutAccess(ctx, id, access, s.signer.TTL(domain.TokenKindAccess)); err != nil {
		return "", fmt.Errorf("store access token: %w", domain.ErrStoreUnavailable)
	}
	return access, nil
}

func (s *service) Revoke(ctx context.Context, accessToken string) error {
	// Blacklist unconditionally, even for garbled input. The blacklist and
	// the session deletion below are each independently sufficient to reject
	// replay, which protects against partial failure of one mechanism.
	if err := s.revocations.Revoke(ctx, accessToken); err != nil {
		return fmt.Errorf("blacklist token: %w", domain.ErrStoreUnavailable)
	}

	id, _, err := s.signer.Verify(accessToken)
	if err != nil {
		// Unsigned or garbled input: nothing to resolve, blacklisting was all
		// we could do.
		return nil
	}

	if err := s.sessions.DeleteAccess(ctx, id); err != nil {
		slog.Warn("failed to delete access session on revoke", "username", id.Username, "err", err)
		return fmt.Errorf("delete access session: %w", domain.ErrStoreUnavailable)
	}
	if err := s.sessions.DeleteRefresh(ctx, id); err != nil {
		slog.Warn("failed to delete refresh session on revoke", "username", id.Username, "err", err)
		return fmt.Errorf("delete refresh session: %w", domain.ErrStoreUnavailable)
	}
	return nil
}
