package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisUserKeyPrefix  = "user:"
	redisEmailKeyPrefix = "user:email:"
	redisTokenKeyPrefix = "user:token:"
	redisUserSetKey     = "users"
)

// RedisStore persists users as JSON documents in Redis. Email and token-hash
// lookups go through secondary index keys.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func userKey(id uuid.UUID) string { return redisUserKeyPrefix + id.String() }

func emailKey(email string) string { return redisEmailKeyPrefix + NormalizeEmail(email) }

func tokenKey(purpose TokenPurpose, tokenHash string) string {
	return redisTokenKeyPrefix + string(purpose) + ":" + tokenHash
}

func (s *RedisStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	id, err := s.client.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("auth/redis: email lookup: %w", err)
	}
	return s.load(ctx, id)
}

func (s *RedisStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.load(ctx, id.String())
}

func (s *RedisStore) FindByActionToken(ctx context.Context, purpose TokenPurpose, tokenHash string, now time.Time) (*User, error) {
	if tokenHash == "" {
		return nil, ErrNotFound
	}
	id, err := s.client.Get(ctx, tokenKey(purpose, tokenHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("auth/redis: token lookup: %w", err)
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	storedHash, expiry := user.ActionToken(purpose)
	if storedHash != tokenHash || !expiry.After(now) {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *RedisStore) Create(ctx context.Context, name, email, password string) (*User, error) {
	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	normalized := NormalizeEmail(email)
	user := &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        normalized,
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
	}

	// SETNX on the email index is the uniqueness guard.
	claimed, err := s.client.SetNX(ctx, emailKey(normalized), user.ID.String(), 0).Result()
	if err != nil {
		return nil, fmt.Errorf("auth/redis: claim email: %w", err)
	}
	if !claimed {
		return nil, ErrDuplicateEmail
	}

	if err := s.write(ctx, user); err != nil {
		return nil, err
	}
	if err := s.client.SAdd(ctx, redisUserSetKey, user.ID.String()).Err(); err != nil {
		return nil, fmt.Errorf("auth/redis: track user: %w", err)
	}
	return user, nil
}

func (s *RedisStore) Save(ctx context.Context, user *User) error {
	prev, err := s.load(ctx, user.ID.String())
	if err != nil {
		return err
	}

	// Keep the token indexes in step with the document.
	pipe := s.client.TxPipeline()
	for _, purpose := range []TokenPurpose{PurposeEmailVerification, PurposePasswordReset} {
		oldHash, _ := prev.ActionToken(purpose)
		newHash, _ := user.ActionToken(purpose)
		if oldHash == newHash {
			continue
		}
		if oldHash != "" {
			pipe.Del(ctx, tokenKey(purpose, oldHash))
		}
		if newHash != "" {
			pipe.Set(ctx, tokenKey(purpose, newHash), user.ID.String(), 0)
		}
	}
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("auth/redis: marshal user: %w", err)
	}
	pipe.Set(ctx, userKey(user.ID), doc, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("auth/redis: save: %w", err)
	}
	return nil
}

func (s *RedisStore) PurgeExpiredActionTokens(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.client.SMembers(ctx, redisUserSetKey).Result()
	if err != nil {
		return 0, fmt.Errorf("auth/redis: list users: %w", err)
	}
	cleared := 0
	for _, id := range ids {
		user, err := s.load(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return cleared, err
		}
		dirty := false
		for _, purpose := range []TokenPurpose{PurposeEmailVerification, PurposePasswordReset} {
			hash, expiry := user.ActionToken(purpose)
			if hash != "" && !expiry.After(now) {
				user.ClearActionToken(purpose)
				dirty = true
				cleared++
			}
		}
		if dirty {
			if err := s.Save(ctx, user); err != nil {
				return cleared, err
			}
		}
	}
	return cleared, nil
}

func (s *RedisStore) load(ctx context.Context, id string) (*User, error) {
	doc, err := s.client.Get(ctx, redisUserKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("auth/redis: load user: %w", err)
	}
	var user User
	if err := json.Unmarshal(doc, &user); err != nil {
		return nil, fmt.Errorf("auth/redis: unmarshal user: %w", err)
	}
	return &user, nil
}

func (s *RedisStore) write(ctx context.Context, user *User) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("auth/redis: marshal user: %w", err)
	}
	if err := s.client.Set(ctx, userKey(user.ID), doc, 0).Err(); err != nil {
		return fmt.Errorf("auth/redis: write user: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
