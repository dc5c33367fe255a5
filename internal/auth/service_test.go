package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop/internal/auth"
	_ "github.com/taskloop/taskloop/testing"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type stubMailer struct {
	fail bool
	sent []sentMail
}

func (m *stubMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

// lastToken extracts the raw side-channel token from the link in the most
// recent email.
func lastToken(t *testing.T, mailer *stubMailer, pathSegment string) string {
	t.Helper()
	require.NotEmpty(t, mailer.sent)
	body := mailer.sent[len(mailer.sent)-1].Body
	idx := strings.Index(body, pathSegment)
	require.GreaterOrEqual(t, idx, 0)
	rest := body[idx+len(pathSegment):]
	end := strings.Index(rest, `"`)
	require.GreaterOrEqual(t, end, 0)
	return rest[:end]
}

func newTestService(t *testing.T, mailer *stubMailer, cfg auth.ServiceConfig) (*auth.Service, *auth.MemoryStore, *auth.TokenIssuer) {
	t.Helper()
	store := auth.NewMemoryStore()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:3000"
	}
	svc := auth.NewService(slog.Default(), store, tokens, mailer, cfg)
	return svc, store, tokens
}

func TestSignupThenLogin(t *testing.T) {
	mailer := &stubMailer{}
	svc, store, tokens := newTestService(t, mailer, auth.ServiceConfig{})
	ctx := context.Background()

	result, err := svc.Signup(ctx, "Ana", "ana@x.com", "secret-pass-1")
	require.NoError(t, err)
	require.True(t, result.EmailSent)
	require.NotEmpty(t, result.Token)
	require.False(t, result.User.IsEmailVerified)

	user, loginToken, err := svc.Login(ctx, "ana@x.com", "secret-pass-1")
	require.NoError(t, err)
	require.Equal(t, result.User.ID, user.ID)

	// The session gate accepts the login token.
	userID, err := tokens.Verify(loginToken)
	require.NoError(t, err)
	resolved, err := store.FindByID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "ana@x.com", resolved.Email)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t, &stubMailer{}, auth.ServiceConfig{})
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Ana", "ana@x.com", "secret-pass-1")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "Other", "ana@x.com", "different-pass")
	require.ErrorIs(t, err, auth.ErrDuplicateEmail)

	// Email uniqueness is case-insensitive.
	_, err = svc.Signup(ctx, "Other", "ANA@X.COM", "different-pass")
	require.ErrorIs(t, err, auth.ErrDuplicateEmail)
}

func TestSignupDispatchFailureRollsBackToken(t *testing.T) {
	mailer := &stubMailer{fail: true}
	svc, store, _ := newTestService(t, mailer, auth.ServiceConfig{})
	ctx := context.Background()

	result, err := svc.Signup(ctx, "Ana", "ana@x.com", "secret-pass-1")
	require.NoError(t, err)
	require.False(t, result.EmailSent)
	require.NotEmpty(t, result.Token, "email failure must not block the signup")

	stored, err := store.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	hash, expiry := stored.ActionToken(auth.PurposeEmailVerification)
	require.Empty(t, hash, "no orphaned hash without a deliverable link")
	require.True(t, expiry.IsZero())
}

func TestVerifyEmailConsumedOnce(t *testing.T) {
	mailer := &stubMailer{}
	svc, store, _ := newTestService(t, mailer, auth.ServiceConfig{})
	ctx := context.Background()

	result, err := svc.Signup(ctx, "Ana", "ana@x.com", "secret-pass-1")
	require.NoError(t, err)

	raw := lastToken(t, mailer, "/verify-email/")
	require.NoError(t, svc.VerifyEmail(ctx, raw))

	stored, err := store.FindByID(ctx, result.User.ID)
	require.NoError(t, err)
	require.True(t, stored.IsEmailVerified)
	hash, _ := stored.ActionToken(auth.PurposeEmailVerification)
	require.Empty(t, hash)

	err = svc.VerifyEmail(ctx, raw)
	require.ErrorIs(t, err, auth.ErrTokenInvalidOrExpired)
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	mailer := &stubMailer{}
	svc, _, _ := newTestService(t, mailer, auth.ServiceConfig{VerificationTTL: -time.Second})
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Ana", "ana@x.com", "secret-pass-1")
	require.NoError(t, err)

	raw := lastToken(t, mailer, "/verify-email/")
	err = svc.VerifyEmail(ctx, raw)
	require.ErrorIs(t, err, auth.ErrTokenInvalidOrExpired)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newTestService(t, &stubMailer{}, auth.ServiceConfig{})
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Ana", "ana@x.com", "secret-pass-1")
	require.NoError(t, err)

	_, _, wrongPass := svc.Login(ctx, "ana@x.com", "wrong-pass")
	_, _, noUser := svc.Login(ctx, "nobody@x.com", "secret-pass-1")
	require.ErrorIs(t, wrongPass, auth.ErrInvalidCredentials)
	require.ErrorIs(t, noUser, auth.ErrInvalidCredentials)
	require.Equal(t, wrongPass, noUser)
}

func TestResendVerification(t *testing.T) {
	mailer := &stubMailer{}
	svc, store, _ := newTestService(t, mailer, auth.ServiceConfig{})
	ctx := context.Background()

	result, err := svc.Signup(ctx, "Ana", "ana@x.com", "secret-pass-1")
	require.NoError(t, err)

	firstRaw := lastToken(t, mailer, "/verify-email/")

	user, err := store.FindByID(ctx, result.User.ID)
	require.NoError(t, err)
	require.NoError(t, svc.ResendVerification(ctx, user))

	// The fresh token supersedes the first one.
	secondRaw := lastToken(t, mailer, "/verify-email/")
	require.NotEqual(t, firstRaw, secondRaw)
	require.ErrorIs(t, svc.VerifyEmail(ctx, firstRaw), auth.ErrTokenInvalidOrExpired)
	require.NoError(t, svc.VerifyEmail(ctx, secondRaw))

	verified, err := store.FindByID(ctx, result.User.ID)
	require.NoError(t, err)
	require.ErrorIs(t, svc.ResendVerification(ctx, verified), auth.ErrAlreadyVerified)
}

func TestResendVerificationDispatchFailure(t *testing.T) {
	mailer := &stubMailer{}
	svc, store, _ := newTestService(t, mailer, auth.ServiceConfig{})
	ctx := context.Background()

	result, err := svc.Signup(ctx, "Ana", "ana@x.com", "secret-pass-1")
	require.NoError(t, err)

	mailer.fail = true
	user, err := store.FindByID(ctx, result.User.ID)
	require.NoError(t, err)
	require.ErrorIs(t, svc.ResendVerification(ctx, user), auth.ErrEmailDispatch)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t, &stubMailer{}, auth.ServiceConfig{})
	err := svc.ForgotPassword(context.Background(), "nobody@x.com")
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestForgotPasswordDispatchFailureRollsBack(t *testing.T) {
	mailer := &stubMailer{}
	svc, store, _ := newTestService(t, mailer, auth.ServiceConfig{})
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Ana", "ana@x.com", "secret-pass-1")
	require.NoError(t, err)

	mailer.fail = true
	require.ErrorIs(t, svc.ForgotPassword(ctx, "ana@x.com"), auth.ErrEmailDispatch)

	stored, err := store.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	hash, _ := stored.ActionToken(auth.PurposePasswordReset)
	require.Empty(t, hash)
}

func TestResetPasswordFlow(t *testing.T) {
	mailer := &stubMailer{}
	svc, _, tokens := newTestService(t, mailer, auth.ServiceConfig{})
	ctx := context.Background()

	result, err := svc.Signup(ctx, "Ana", "ana@x.com", "secret-pass-1")
	require.NoError(t, err)
	oldSession := result.Token

	require.NoError(t, svc.ForgotPassword(ctx, "ana@x.com"))
	raw := lastToken(t, mailer, "/reset-password/")

	newSession, err := svc.ResetPassword(ctx, raw, "new-pass-123")
	require.NoError(t, err)
	require.NotEmpty(t, newSession)

	_, _, err = svc.Login(ctx, "ana@x.com", "secret-pass-1")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "ana@x.com", "new-pass-123")
	require.NoError(t, err)

	// No global session invalidation: old session tokens stay valid.
	_, err = tokens.Verify(oldSession)
	require.NoError(t, err)

	// A reset token is accepted at most once.
	_, err = svc.ResetPassword(ctx, raw, "another-pass")
	require.ErrorIs(t, err, auth.ErrTokenInvalidOrExpired)
}

func TestExpiredResetToken(t *testing.T) {
	mailer := &stubMailer{}
	svc, _, _ := newTestService(t, mailer, auth.ServiceConfig{ResetTTL: -time.Second})
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Ana", "ana@x.com", "secret-pass-1")
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(ctx, "ana@x.com"))

	raw := lastToken(t, mailer, "/reset-password/")
	_, err = svc.ResetPassword(ctx, raw, "new-pass-123")
	require.ErrorIs(t, err, auth.ErrTokenInvalidOrExpired)
}
