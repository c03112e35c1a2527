// Package account is the credential/identity collaborator: it resolves and
// verifies accounts so the token core can issue sessions for them.
package account

import (
	"context"
	"fmt"
	"time"

	"github.com/portal-auth/internal/domain"
	"github.com/portal-auth/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// Users is the minimal user-store interface the service requires.
type Users interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type RegisterRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=32"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone"`
	Nickname *string `json:"nickname"`
}

type Service interface {
	// VerifyPassword resolves login (username or email) and checks the
	// password, returning the identity on success.
	VerifyPassword(ctx context.Context, login, password string) (domain.Identity, error)

	// Lookup resolves login to an enabled account's identity without a
	// credential check. Used by code-based flows before a send.
	Lookup(ctx context.Context, login string) (domain.Identity, error)

	// Register creates the account and returns its identity.
	Register(ctx context.Context, req RegisterRequest) (domain.Identity, error)

	// ResetPassword replaces the account's password hash.
	ResetPassword(ctx context.Context, identity domain.Identity, newPassword string) error
}

type service struct {
	users Users
}

func NewService(users Users) Service {
	return &service{users: users}
}

func (s *service) VerifyPassword(ctx context.Context, login, password string) (domain.Identity, error) {
	u, err := s.resolve(ctx, login)
	if err != nil {
		return domain.Identity{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.Identity{}, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	return u.Identity(), nil
}

func (s *service) Lookup(ctx context.Context, login string) (domain.Identity, error) {
	u, err := s.resolve(ctx, login)
	if err != nil {
		return domain.Identity{}, err
	}
	return u.Identity(), nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (domain.Identity, error) {
	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return domain.Identity{}, fmt.Errorf("username taken: %w", domain.ErrConflict)
	}
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return domain.Identity{}, fmt.Errorf("email taken: %w", domain.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Identity{}, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		Nickname:     req.Nickname,
		PasswordHash: string(hash),
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return domain.Identity{}, err
	}
	return u.Identity(), nil
}

func (s *service) ResetPassword(ctx context.Context, identity domain.Identity, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, identity.UserID, map[string]interface{}{"password_hash": string(hash)})
}

func (s *service) resolve(ctx context.Context, login string) (*domain.User, error) {
	u, err := s.users.GetByUsername(ctx, login)
	if err != nil {
		u, err = s.users.GetByEmail(ctx, login)
		if err != nil {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	return u, nil
}
