package domain

import "time"

// Identity is the (username, userID) pair that all session, rate-limit and
// verification-code state is keyed by. It is immutable once a session exists.
type Identity struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
}

// Key renders the identity for key-namespace segments that take a whole
// identity, e.g. verification_code:{identity}:{purpose}.
func (i Identity) Key() string {
	return i.Username + ":" + i.UserID
}

// TokenKind discriminates access from refresh tokens inside signed claims.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenPair is the result of a successful issuance. A later issuance for the
// same identity supersedes it entirely; pairs are never merged.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	IssuedAt     time.Time     `json:"issued_at"`
	AccessTTL    time.Duration `json:"-"`
	RefreshTTL   time.Duration `json:"-"`
}

// Purpose is what an outstanding verification code is for. A code issued for
// one purpose never verifies under another.
type Purpose string

const (
	PurposeRegister      Purpose = "register"
	PurposeLogin         Purpose = "login"
	PurposeResetPassword Purpose = "reset_password"
)

// Valid reports whether p is one of the known purposes.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeRegister, PurposeLogin, PurposeResetPassword:
		return true
	}
	return false
}
