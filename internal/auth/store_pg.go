package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store using PostgreSQL. Schema lives in
// scripts/schema.sql.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const userColumns = `id, name, email, password_hash, is_email_verified,
	email_verification_token_hash, email_verification_expiry,
	reset_password_token_hash, reset_password_expiry, created_at`

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, NormalizeEmail(email))
	return scanUser(row)
}

func (s *PGStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *PGStore) FindByActionToken(ctx context.Context, purpose TokenPurpose, tokenHash string, now time.Time) (*User, error) {
	if tokenHash == "" {
		return nil, ErrNotFound
	}
	column := "email_verification"
	if purpose == PurposePasswordReset {
		column = "reset_password"
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE `+column+`_token_hash = $1 AND `+column+`_expiry > $2`,
		tokenHash, now)
	return scanUser(row)
}

func (s *PGStore) Create(ctx context.Context, name, email, password string) (*User, error) {
	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        NormalizeEmail(email),
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, is_email_verified, created_at)
		 VALUES ($1, $2, $3, $4, false, $5)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("auth/pg: insert user: %w", err)
	}
	return user, nil
}

func (s *PGStore) Save(ctx context.Context, user *User) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET
			name = $2,
			password_hash = $3,
			is_email_verified = $4,
			email_verification_token_hash = $5,
			email_verification_expiry = $6,
			reset_password_token_hash = $7,
			reset_password_expiry = $8
		 WHERE id = $1`,
		user.ID, user.Name, user.PasswordHash, user.IsEmailVerified,
		nullString(user.EmailVerificationTokenHash), nullTime(user.EmailVerificationExpiry),
		nullString(user.ResetPasswordTokenHash), nullTime(user.ResetPasswordExpiry))
	if err != nil {
		return fmt.Errorf("auth/pg: update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) PurgeExpiredActionTokens(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET
			email_verification_token_hash = CASE WHEN email_verification_expiry <= $1 THEN NULL ELSE email_verification_token_hash END,
			email_verification_expiry     = CASE WHEN email_verification_expiry <= $1 THEN NULL ELSE email_verification_expiry END,
			reset_password_token_hash     = CASE WHEN reset_password_expiry <= $1 THEN NULL ELSE reset_password_token_hash END,
			reset_password_expiry         = CASE WHEN reset_password_expiry <= $1 THEN NULL ELSE reset_password_expiry END
		 WHERE email_verification_expiry <= $1 OR reset_password_expiry <= $1`,
		now)
	if err != nil {
		return 0, fmt.Errorf("auth/pg: purge tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		user        User
		verifyHash  *string
		verifyExp   *time.Time
		resetHash   *string
		resetExpiry *time.Time
	)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.IsEmailVerified, &verifyHash, &verifyExp, &resetHash, &resetExpiry,
		&user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("auth/pg: scan user: %w", err)
	}
	if verifyHash != nil {
		user.EmailVerificationTokenHash = *verifyHash
	}
	if verifyExp != nil {
		user.EmailVerificationExpiry = *verifyExp
	}
	if resetHash != nil {
		user.ResetPasswordTokenHash = *resetHash
	}
	if resetExpiry != nil {
		user.ResetPasswordExpiry = *resetExpiry
	}
	return &user, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

var _ Store = (*PGStore)(nil)
