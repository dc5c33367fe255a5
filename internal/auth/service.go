package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskloop/taskloop/internal/mail"
)

// ServiceConfig carries the flow-level knobs of the auth service.
type ServiceConfig struct {
	// FrontendURL is the SPA origin emailed links point at.
	FrontendURL string
	// VerificationTTL bounds email-verification tokens (default 24h).
	VerificationTTL time.Duration
	// ResetTTL bounds password-reset tokens (default 10m).
	ResetTTL time.Duration
	// MailTimeout bounds each notification dispatch.
	MailTimeout time.Duration
}

// Service orchestrates the signup, login, verification and reset flows.
type Service struct {
	logger *slog.Logger
	store  Store
	tokens *TokenIssuer
	mailer mail.Mailer
	cfg    ServiceConfig
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, store Store, tokens *TokenIssuer, mailer mail.Mailer, cfg ServiceConfig) *Service {
	// Zero means "use the default"; negative TTLs are honored so callers can
	// mint already-expired tokens.
	if cfg.VerificationTTL == 0 {
		cfg.VerificationTTL = 24 * time.Hour
	}
	if cfg.ResetTTL == 0 {
		cfg.ResetTTL = 10 * time.Minute
	}
	if cfg.MailTimeout == 0 {
		cfg.MailTimeout = 10 * time.Second
	}
	return &Service{logger: logger, store: store, tokens: tokens, mailer: mailer, cfg: cfg}
}

// SignupResult reports the outcome of a signup, including whether the
// verification email went out.
type SignupResult struct {
	User      *User
	Token     string
	EmailSent bool
}

// Signup registers a new unverified user, issues a verification token and
// attempts to email it. Email delivery failure never blocks the signup; the
// token fields are rolled back so no orphaned hash remains without a
// deliverable link.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*SignupResult, error) {
	user, err := s.store.Create(ctx, name, email, password)
	if err != nil {
		return nil, err
	}

	raw, err := s.issueActionToken(ctx, user, PurposeEmailVerification, s.cfg.VerificationTTL)
	if err != nil {
		return nil, err
	}

	emailSent := true
	subject, body := mail.VerificationEmail(user.Name, s.cfg.FrontendURL+"/verify-email/"+raw)
	if err := s.dispatch(ctx, user.Email, subject, body); err != nil {
		s.logger.Warn("verification email dispatch failed", slog.Any("error", err))
		user.ClearActionToken(PurposeEmailVerification)
		if err := s.store.Save(ctx, user); err != nil {
			return nil, err
		}
		emailSent = false
	}

	sessionToken, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &SignupResult{User: user, Token: sessionToken, EmailSent: emailSent}, nil
}

// Login validates credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !user.MatchPassword(password) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// VerifyEmail consumes a verification token and marks the user verified.
func (s *Service) VerifyEmail(ctx context.Context, rawToken string) error {
	user, err := s.consumeActionToken(ctx, rawToken, PurposeEmailVerification)
	if err != nil {
		return err
	}
	user.IsEmailVerified = true
	return s.store.Save(ctx, user)
}

// ResendVerification issues a fresh verification token for an authenticated
// user and emails it. Unlike signup, a dispatch failure here is surfaced as
// an error.
func (s *Service) ResendVerification(ctx context.Context, user *User) error {
	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}
	raw, err := s.issueActionToken(ctx, user, PurposeEmailVerification, s.cfg.VerificationTTL)
	if err != nil {
		return err
	}
	subject, body := mail.VerificationEmail(user.Name, s.cfg.FrontendURL+"/verify-email/"+raw)
	if err := s.dispatch(ctx, user.Email, subject, body); err != nil {
		return fmt.Errorf("%w: %w", ErrEmailDispatch, err)
	}
	return nil
}

// ForgotPassword issues a reset token and emails it. A dispatch failure rolls
// the token fields back and fails the request.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	raw, err := s.issueActionToken(ctx, user, PurposePasswordReset, s.cfg.ResetTTL)
	if err != nil {
		return err
	}
	subject, body := mail.ResetEmail(user.Name, s.cfg.FrontendURL+"/reset-password/"+raw)
	if err := s.dispatch(ctx, user.Email, subject, body); err != nil {
		s.logger.Warn("reset email dispatch failed", slog.Any("error", err))
		user.ClearActionToken(PurposePasswordReset)
		if saveErr := s.store.Save(ctx, user); saveErr != nil {
			return saveErr
		}
		return fmt.Errorf("%w: %w", ErrEmailDispatch, err)
	}
	return nil
}

// ResetPassword consumes a reset token, overwrites the password hash and
// issues a fresh session token. Previously issued session tokens stay valid.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) (string, error) {
	user, err := s.consumeActionToken(ctx, rawToken, PurposePasswordReset)
	if err != nil {
		return "", err
	}
	hashed, err := HashPassword(newPassword)
	if err != nil {
		return "", err
	}
	user.PasswordHash = hashed
	if err := s.store.Save(ctx, user); err != nil {
		return "", err
	}
	return s.tokens.Issue(user.ID)
}

// issueActionToken generates a raw token, stores its hash and expiry on the
// user and persists the record. The raw value is returned for delivery only.
func (s *Service) issueActionToken(ctx context.Context, user *User, purpose TokenPurpose, ttl time.Duration) (string, error) {
	raw, tokenHash, err := NewActionToken()
	if err != nil {
		return "", err
	}
	user.SetActionToken(purpose, tokenHash, time.Now().UTC().Add(ttl))
	if err := s.store.Save(ctx, user); err != nil {
		return "", err
	}
	return raw, nil
}

// consumeActionToken resolves a raw token to its user and clears the pair.
// Lookup miss and expiry collapse to ErrTokenInvalidOrExpired.
func (s *Service) consumeActionToken(ctx context.Context, rawToken string, purpose TokenPurpose) (*User, error) {
	user, err := s.store.FindByActionToken(ctx, purpose, HashActionToken(rawToken), time.Now().UTC())
	if err != nil {
		return nil, ErrTokenInvalidOrExpired
	}
	user.ClearActionToken(purpose)
	return user, nil
}

func (s *Service) dispatch(ctx context.Context, to, subject, body string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.MailTimeout)
	defer cancel()
	return s.mailer.Send(ctx, to, subject, body)
}
