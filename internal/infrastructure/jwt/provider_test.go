package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/portal-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestProvider(t *testing.T, clk *fakeClock) *Provider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	p := NewProviderWithKeys(key, &key.PublicKey, 24*time.Hour, 7*24*time.Hour)
	if clk != nil {
		p.WithClock(clk.Now)
	}
	return p
}

func TestSignVerify_RoundTrip(t *testing.T) {
	p := newTestProvider(t, nil)
	id := domain.Identity{Username: "alice", UserID: "u-1"}

	for _, kind := range []domain.TokenKind{domain.TokenKindAccess, domain.TokenKindRefresh} {
		tok, err := p.Sign(id, kind)
		require.NoError(t, err)

		gotID, gotKind, err := p.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, id, gotID)
		assert.Equal(t, kind, gotKind)
	}
}

func TestVerify_Garbage(t *testing.T) {
	p := newTestProvider(t, nil)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, _, err := p.Verify(tok)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid, "token: %q", tok)
	}
}

func TestVerify_WrongKey(t *testing.T) {
	p1 := newTestProvider(t, nil)
	p2 := newTestProvider(t, nil)

	tok, err := p1.Sign(domain.Identity{Username: "alice", UserID: "u-1"}, domain.TokenKindAccess)
	require.NoError(t, err)

	_, _, err = p2.Verify(tok)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestVerify_Expired(t *testing.T) {
	clk := newFakeClock()
	p := newTestProvider(t, clk)

	tok, err := p.Sign(domain.Identity{Username: "alice", UserID: "u-1"}, domain.TokenKindAccess)
	require.NoError(t, err)

	clk.Advance(24*time.Hour + time.Minute)
	_, _, err = p.Verify(tok)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestVerify_RefreshOutlivesAccess(t *testing.T) {
	clk := newFakeClock()
	p := newTestProvider(t, clk)
	id := domain.Identity{Username: "alice", UserID: "u-1"}

	access, err := p.Sign(id, domain.TokenKindAccess)
	require.NoError(t, err)
	refresh, err := p.Sign(id, domain.TokenKindRefresh)
	require.NoError(t, err)

	clk.Advance(25 * time.Hour)

	_, _, err = p.Verify(access)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	_, kind, err := p.Verify(refresh)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenKindRefresh, kind)
}

func TestTTL_PerKind(t *testing.T) {
	p := newTestProvider(t, nil)
	assert.Equal(t, 24*time.Hour, p.TTL(domain.TokenKindAccess))
	assert.Equal(t, 7*24*time.Hour, p.TTL(domain.TokenKindRefresh))
}
