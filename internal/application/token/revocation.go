package token

import (
	"context"
	"errors"
	"time"

	"github.com/portal-auth/internal/kv"
)

const revokedMarker = "revoked"

// RevocationRegistry records explicitly revoked tokens. Entries live for the
// full access-token lifetime regardless of the token's remaining life, so a
// revoked token cannot be replayed even after resurfacing.
type RevocationRegistry struct {
	store kv.Store
	ttl   time.Duration
}

func NewRevocationRegistry(store kv.Store, ttl time.Duration) *RevocationRegistry {
	return &RevocationRegistry{store: store, ttl: ttl}
}

// Revoke blacklists the token. Idempotent; revoking twice refreshes the entry.
func (r *RevocationRegistry) Revoke(ctx context.Context, token string) error {
	return r.store.Set(ctx, kv.BlacklistKey(token), revokedMarker, r.ttl)
}

// IsRevoked reports whether the token has an outstanding blacklist entry.
func (r *RevocationRegistry) IsRevoked(ctx context.Context, token string) (bool, error) {
	_, err := r.store.Get(ctx, kv.BlacklistKey(token))
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
