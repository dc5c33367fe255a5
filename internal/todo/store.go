package todo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store defines persistence operations for todos.
type Store interface {
	List(ctx context.Context) ([]Todo, error)
	Create(ctx context.Context, title string) (*Todo, error)
	Update(ctx context.Context, id int64, update Update) (*Todo, error)
	Delete(ctx context.Context, id int64) error
}

// MemoryStore keeps todos in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	todos  map[int64]Todo
	nextID int64
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{todos: make(map[int64]Todo)}
}

func (s *MemoryStore) List(ctx context.Context) ([]Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Todo, 0, len(s.todos))
	for _, t := range s.todos {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) Create(ctx context.Context, title string) (*Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := Todo{ID: s.nextID, Title: title, CreatedAt: time.Now().UTC()}
	s.todos[t.ID] = t
	return &t, nil
}

func (s *MemoryStore) Update(ctx context.Context, id int64, update Update) (*Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Title != nil {
		t.Title = strings.TrimSpace(*update.Title)
	}
	if update.Completed != nil {
		t.Completed = *update.Completed
	}
	s.todos[id] = t
	return &t, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.todos[id]; !ok {
		return ErrNotFound
	}
	delete(s.todos, id)
	return nil
}

var _ Store = (*MemoryStore)(nil)
