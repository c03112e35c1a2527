package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/portal-auth/internal/config"
	"github.com/portal-auth/internal/domain"
	"github.com/portal-auth/internal/pkg/id"
)

// Claims holds the JWT payload fields.
type Claims struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
	Kind     string `json:"kind"` // "access" | "refresh"
	jwt.RegisteredClaims
}

// Provider signs and verifies RS256 JWTs embedding an identity and a token
// kind. Access and refresh tokens carry different expiries per policy.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return NewProviderWithKeys(privKey, pubKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL), nil
}

// NewProviderWithKeys builds a provider from in-memory keys. Used directly by
// tests; NewProvider delegates here after loading PEM files.
func NewProviderWithKeys(priv *rsa.PrivateKey, pub *rsa.PublicKey, accessTTL, refreshTTL time.Duration) *Provider {
	return &Provider{
		privateKey: priv,
		publicKey:  pub,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the provider's time source. For tests.
func (p *Provider) WithClock(now func() time.Time) *Provider {
	p.now = now
	return p
}

// TTL returns the policy lifetime for the given token kind.
func (p *Provider) TTL(kind domain.TokenKind) time.Duration {
	if kind == domain.TokenKindRefresh {
		return p.refreshTTL
	}
	return p.accessTTL
}

func (p *Provider) Sign(ident domain.Identity, kind domain.TokenKind) (string, error) {
	now := p.now()
	claims := Claims{
		Username: ident.Username,
		UserID:   ident.UserID,
		Kind:     string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			// A unique jti keeps two same-second issuances for one identity
			// from producing byte-identical tokens.
			ID:        id.New(),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.TTL(kind))),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

// Verify checks signature and expiry and returns the embedded identity and
// kind. Fails with domain.ErrTokenExpired past expiry, domain.ErrTokenInvalid
// on a bad signature or malformed payload. Side-effect free.
func (p *Provider) Verify(tokenStr string) (domain.Identity, domain.TokenKind, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, "", fmt.Errorf("verify: %w", domain.ErrTokenExpired)
		}
		return domain.Identity{}, "", fmt.Errorf("verify: %w", domain.ErrTokenInvalid)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Identity{}, "", fmt.Errorf("claims: %w", domain.ErrTokenInvalid)
	}
	kind := domain.TokenKind(claims.Kind)
	if kind != domain.TokenKindAccess && kind != domain.TokenKindRefresh {
		return domain.Identity{}, "", fmt.Errorf("unknown token kind %q: %w", claims.Kind, domain.ErrTokenInvalid)
	}
	return domain.Identity{Username: claims.Username, UserID: claims.UserID}, kind, nil
}
