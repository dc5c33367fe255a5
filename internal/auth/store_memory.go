package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps users in process memory. It is the default driver and the
// substitute store used throughout the tests.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*User
	byEmail map[string]uuid.UUID
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[uuid.UUID]*User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(s.users[id]), nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(user), nil
}

func (s *MemoryStore) FindByActionToken(ctx context.Context, purpose TokenPurpose, tokenHash string, now time.Time) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tokenHash == "" {
		return nil, ErrNotFound
	}
	for _, user := range s.users {
		hash, expiry := user.ActionToken(purpose)
		if hash == tokenHash && expiry.After(now) {
			return copyUser(user), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Create(ctx context.Context, name, email, password string) (*User, error) {
	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := NormalizeEmail(email)
	if _, exists := s.byEmail[normalized]; exists {
		return nil, ErrDuplicateEmail
	}

	user := &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        normalized,
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[user.ID] = user
	s.byEmail[normalized] = user.ID
	return copyUser(user), nil
}

func (s *MemoryStore) Save(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return ErrNotFound
	}
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemoryStore) PurgeExpiredActionTokens(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cleared := 0
	for _, user := range s.users {
		for _, purpose := range []TokenPurpose{PurposeEmailVerification, PurposePasswordReset} {
			hash, expiry := user.ActionToken(purpose)
			if hash != "" && !expiry.After(now) {
				user.ClearActionToken(purpose)
				cleared++
			}
		}
	}
	return cleared, nil
}

func copyUser(user *User) *User {
	clone := *user
	return &clone
}

var _ Store = (*MemoryStore)(nil)
