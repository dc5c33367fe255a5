package todo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisTodoHashKey   = "todos"
	redisTodoNextIDKey = "todos:next_id"
)

// RedisStore persists todos as JSON fields of a single Redis hash.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) List(ctx context.Context) ([]Todo, error) {
	fields, err := s.client.HGetAll(ctx, redisTodoHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("todo/redis: list: %w", err)
	}
	result := make([]Todo, 0, len(fields))
	for _, doc := range fields {
		var t Todo
		if err := json.Unmarshal([]byte(doc), &t); err != nil {
			return nil, fmt.Errorf("todo/redis: unmarshal: %w", err)
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *RedisStore) Create(ctx context.Context, title string) (*Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	id, err := s.client.Incr(ctx, redisTodoNextIDKey).Result()
	if err != nil {
		return nil, fmt.Errorf("todo/redis: next id: %w", err)
	}
	t := Todo{ID: id, Title: title, CreatedAt: time.Now().UTC()}
	if err := s.write(ctx, t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *RedisStore) Update(ctx context.Context, id int64, update Update) (*Todo, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Title != nil {
		t.Title = strings.TrimSpace(*update.Title)
	}
	if update.Completed != nil {
		t.Completed = *update.Completed
	}
	if err := s.write(ctx, *t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *RedisStore) Delete(ctx context.Context, id int64) error {
	removed, err := s.client.HDel(ctx, redisTodoHashKey, field(id)).Result()
	if err != nil {
		return fmt.Errorf("todo/redis: delete: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, id int64) (*Todo, error) {
	doc, err := s.client.HGet(ctx, redisTodoHashKey, field(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("todo/redis: get: %w", err)
	}
	var t Todo
	if err := json.Unmarshal([]byte(doc), &t); err != nil {
		return nil, fmt.Errorf("todo/redis: unmarshal: %w", err)
	}
	return &t, nil
}

func (s *RedisStore) write(ctx context.Context, t Todo) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("todo/redis: marshal: %w", err)
	}
	if err := s.client.HSet(ctx, redisTodoHashKey, field(t.ID), doc).Err(); err != nil {
		return fmt.Errorf("todo/redis: write: %w", err)
	}
	return nil
}

func field(id int64) string {
	return strconv.FormatInt(id, 10)
}

var _ Store = (*RedisStore)(nil)
