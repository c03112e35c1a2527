package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/portal-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTokens struct{ mock.Mock }

func (m *mockTokens) IssuePair(ctx context.Context, id domain.Identity) (*domain.TokenPair, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*domain.TokenPair), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTokens) Validate(ctx context.Context, accessToken string) bool {
	return m.Called(ctx, accessToken).Bool(0)
}

func (m *mockTokens) Refresh(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *mockTokens) Revoke(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(id domain.Identity, kind domain.TokenKind) (string, error) {
	args := m.Called(id, kind)
	return args.String(0), args.Error(1)
}

func (m *mockSigner) Verify(token string) (domain.Identity, domain.TokenKind, error) {
	args := m.Called(token)
	return args.Get(0).(domain.Identity), args.Get(1).(domain.TokenKind), args.Error(2)
}

func (m *mockSigner) TTL(kind domain.TokenKind) time.Duration {
	return m.Called(kind).Get(0).(time.Duration)
}

func serveAuthed(tokens *mockTokens, signer *mockSigner, header string) (*httptest.ResponseRecorder, *AuthInfo) {
	var captured *AuthInfo
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if info, ok := AuthFromContext(r.Context()); ok {
			captured = &info
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	Auth(tokens, signer)(next).ServeHTTP(rec, req)
	return rec, captured
}

func TestAuth_ValidTokenInjectsIdentity(t *testing.T) {
	tokens := new(mockTokens)
	signer := new(mockSigner)
	ident := domain.Identity{Username: "alice", UserID: "u-1"}

	tokens.On("Validate", mock.Anything, "tok-ok").Return(true)
	signer.On("Verify", "tok-ok").Return(ident, domain.TokenKindAccess, nil)

	rec, captured := serveAuthed(tokens, signer, "Bearer tok-ok")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "tok-ok", captured.Token)
	assert.Equal(t, ident, captured.Identity)
}

func TestAuth_MissingHeader(t *testing.T) {
	tokens := new(mockTokens)
	signer := new(mockSigner)

	rec, captured := serveAuthed(tokens, signer, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
	tokens.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything)
}

func TestAuth_NonBearerScheme(t *testing.T) {
	tokens := new(mockTokens)
	signer := new(mockSigner)

	rec, _ := serveAuthed(tokens, signer, "Basic dXNlcjpwYXNz")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	tokens.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything)
}

func TestAuth_InvalidTokenRejected(t *testing.T) {
	tokens := new(mockTokens)
	signer := new(mockSigner)

	tokens.On("Validate", mock.Anything, "tok-bad").Return(false)

	rec, captured := serveAuthed(tokens, signer, "Bearer tok-bad")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
	signer.AssertNotCalled(t, "Verify", mock.Anything)
}

func TestAuth_VerifyFailureRejected(t *testing.T) {
	tokens := new(mockTokens)
	signer := new(mockSigner)

	tokens.On("Validate", mock.Anything, "tok-odd").Return(true)
	signer.On("Verify", "tok-odd").
		Return(domain.Identity{}, domain.TokenKind(""), errors.New("parse failed"))

	rec, captured := serveAuthed(tokens, signer, "Bearer tok-odd")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
}

func TestAuthFromContext_EmptyContext(t *testing.T) {
	_, ok := AuthFromContext(context.Background())
	assert.False(t, ok)
}
