package token

import (
	"context"
	"time"

	"github.com/portal-auth/internal/domain"
	"github.com/portal-auth/internal/kv"
)

// SessionStore records the single currently-valid access and refresh token
// per identity. Writes overwrite; the newest issuance wins and any prior
// session is silently invalidated.
type SessionStore struct {
	store kv.Store
}

func NewSessionStore(store kv.Store) *SessionStore {
	return &SessionStore{store: store}
}

func (s *SessionStore) PutAccess(ctx context.Context, id domain.Identity, token string, ttl time.Duration) error {
	return s.store.Set(ctx, kv.AccessTokenKey(id), token, ttl)
}

func (s *SessionStore) GetAccess(ctx context.Context, id domain.Identity) (string, error) {
	return s.store.Get(ctx, kv.AccessTokenKey(id))
}

func (s *SessionStore) DeleteAccess(ctx context.Context, id domain.Identity) error {
	return s.store.Delete(ctx, kv.AccessTokenKey(id))
}

func (s *SessionStore) PutRefresh(ctx context.Context, id domain.Identity, token string, ttl time.Duration) error {
	return s.store.Set(ctx, kv.RefreshTokenKey(id), token, ttl)
}

func (s *SessionStore) GetRefresh(ctx context.Context, id domain.Identity) (string, error) {
	return s.store.Get(ctx, kv.RefreshTokenKey(id))
}

func (s *SessionStore) DeleteRefresh(ctx context.Context, id domain.Identity) error {
	return s.store.Delete(ctx, kv.RefreshTokenKey(id))
}
