package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenPurpose distinguishes the two side-channel token kinds a user can hold.
type TokenPurpose string

const (
	// PurposeEmailVerification marks tokens proving control of a mailbox.
	PurposeEmailVerification TokenPurpose = "email_verification"
	// PurposePasswordReset marks tokens authorizing a password overwrite.
	PurposePasswordReset TokenPurpose = "password_reset"
)

var (
	// ErrNotFound indicates no user matched the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials indicates login failure. It deliberately covers
	// both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates a session token that failed signature or
	// expiry checks. The two cases are not distinguished.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrTokenInvalidOrExpired indicates a side-channel token that matched no
	// user or whose expiry has passed. The two cases are not distinguished.
	ErrTokenInvalidOrExpired = errors.New("invalid or expired token")
	// ErrUnauthenticated indicates a request without a usable bearer token.
	ErrUnauthenticated = errors.New("not authorized")
	// ErrEmailNotVerified indicates a verified-only guard rejected the user.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrAlreadyVerified indicates a redundant verification attempt.
	ErrAlreadyVerified = errors.New("email is already verified")
	// ErrEmailDispatch indicates the notification email could not be sent.
	ErrEmailDispatch = errors.New("email could not be sent")
)

// User represents a registered account. PasswordHash holds a bcrypt hash; the
// raw password is never stored. The token hash/expiry pairs are either both
// set or both zero.
type User struct {
	ID              uuid.UUID
	Name            string
	Email           string
	PasswordHash    string
	IsEmailVerified bool

	EmailVerificationTokenHash string
	EmailVerificationExpiry    time.Time

	ResetPasswordTokenHash string
	ResetPasswordExpiry    time.Time

	CreatedAt time.Time
}

// SetActionToken records the hash/expiry pair for the given purpose,
// superseding any previous token of that purpose.
func (u *User) SetActionToken(purpose TokenPurpose, tokenHash string, expiry time.Time) {
	switch purpose {
	case PurposeEmailVerification:
		u.EmailVerificationTokenHash = tokenHash
		u.EmailVerificationExpiry = expiry
	case PurposePasswordReset:
		u.ResetPasswordTokenHash = tokenHash
		u.ResetPasswordExpiry = expiry
	}
}

// ClearActionToken removes both fields of the pair for the given purpose.
func (u *User) ClearActionToken(purpose TokenPurpose) {
	switch purpose {
	case PurposeEmailVerification:
		u.EmailVerificationTokenHash = ""
		u.EmailVerificationExpiry = time.Time{}
	case PurposePasswordReset:
		u.ResetPasswordTokenHash = ""
		u.ResetPasswordExpiry = time.Time{}
	}
}

// ActionToken returns the stored hash/expiry pair for the given purpose.
func (u *User) ActionToken(purpose TokenPurpose) (string, time.Time) {
	switch purpose {
	case PurposeEmailVerification:
		return u.EmailVerificationTokenHash, u.EmailVerificationExpiry
	case PurposePasswordReset:
		return u.ResetPasswordTokenHash, u.ResetPasswordExpiry
	}
	return "", time.Time{}
}

// MatchPassword reports whether the candidate matches the stored hash.
func (u *User) MatchPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(candidate)) == nil
}

// HashPassword derives a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
