package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines persistence operations for user accounts. Implementations
// must provide atomic single-record read-modify-write semantics; no flow
// spans multiple user records.
type Store interface {
	// FindByEmail fetches a user by normalized email. Returns ErrNotFound on miss.
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByID fetches a user by id. Returns ErrNotFound on miss.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByActionToken fetches the user whose stored hash for the purpose
	// equals tokenHash and whose expiry is strictly after now. Misses and
	// expired tokens both return ErrNotFound.
	FindByActionToken(ctx context.Context, purpose TokenPurpose, tokenHash string, now time.Time) (*User, error)
	// Create registers a new user with a hashed password and
	// IsEmailVerified=false. Returns ErrDuplicateEmail if the email is taken.
	Create(ctx context.Context, name, email, password string) (*User, error)
	// Save persists mutations to an existing user.
	Save(ctx context.Context, user *User) error
	// PurgeExpiredActionTokens clears token pairs whose expiry has passed and
	// reports how many pairs were cleared.
	PurgeExpiredActionTokens(ctx context.Context, now time.Time) (int, error)
}
