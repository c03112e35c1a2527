// Package notify implements code-dispatch notifiers over the SMTP and SNS
// backends. Each notifier resolves the identity's contact address through a
// user directory before dispatching.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/portal-auth/internal/domain"
	"github.com/portal-auth/internal/infrastructure/smtp"
	snsinfra "github.com/portal-auth/internal/infrastructure/sns"
)

// Sender dispatches a verification code to an identity.
type Sender interface {
	Send(ctx context.Context, id domain.Identity, code string, purpose domain.Purpose, ttl time.Duration) error
}

// UserDirectory resolves an identity's contact details.
type UserDirectory interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// EmailNotifier delivers codes by email.
type EmailNotifier struct {
	mailer smtp.Mailer
	users  UserDirectory
}

func NewEmailNotifier(mailer smtp.Mailer, users UserDirectory) *EmailNotifier {
	return &EmailNotifier{mailer: mailer, users: users}
}

func (n *EmailNotifier) Send(ctx context.Context, id domain.Identity, code string, purpose domain.Purpose, ttl time.Duration) error {
	// Pre-registration identities have no account yet; their username field
	// carries the email address directly.
	addr := id.Username
	if id.UserID != "" {
		u, err := n.users.Get(ctx, id.UserID)
		if err != nil {
			return fmt.Errorf("resolve email for %s: %w", id.Username, err)
		}
		addr = u.Email
	}
	subject, body := render(code, purpose, ttl)
	return n.mailer.SendEmail(addr, subject, body)
}

// SMSNotifier delivers codes by SMS.
type SMSNotifier struct {
	sms   snsinfra.SMSSender
	users UserDirectory
}

func NewSMSNotifier(sms snsinfra.SMSSender, users UserDirectory) *SMSNotifier {
	return &SMSNotifier{sms: sms, users: users}
}

func (n *SMSNotifier) Send(ctx context.Context, id domain.Identity, code string, purpose domain.Purpose, ttl time.Duration) error {
	u, err := n.users.Get(ctx, id.UserID)
	if err != nil {
		return fmt.Errorf("resolve phone for %s: %w", id.Username, err)
	}
	if u.Phone == nil {
		return fmt.Errorf("no phone number on account: %w", domain.ErrBadRequest)
	}
	_, body := render(code, purpose, ttl)
	return n.sms.SendSMS(ctx, *u.Phone, body)
}

func render(code string, purpose domain.Purpose, ttl time.Duration) (subject, body string) {
	switch purpose {
	case domain.PurposeRegister:
		subject = "Confirm your registration"
	case domain.PurposeResetPassword:
		subject = "Reset your password"
	default:
		subject = "Your login code"
	}
	body = fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		code, int(ttl.Minutes()))
	return subject, body
}
