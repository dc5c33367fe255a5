package todo_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop/internal/todo"
	_ "github.com/taskloop/taskloop/testing"
)

func newRedisStore(t *testing.T) *todo.RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return todo.NewRedisStore(client)
}

func TestRedisStoreCRUD(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, "buy milk")
	require.NoError(t, err)
	require.Equal(t, int64(1), first.ID)

	second, err := store.Create(ctx, "walk dog")
	require.NoError(t, err)
	require.Equal(t, int64(2), second.ID)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, second.ID, list[1].ID)

	done := true
	title := "  walk the dog  "
	updated, err := store.Update(ctx, second.ID, todo.Update{Title: &title, Completed: &done})
	require.NoError(t, err)
	require.Equal(t, "walk the dog", updated.Title)
	require.True(t, updated.Completed)

	require.NoError(t, store.Delete(ctx, first.ID))
	require.ErrorIs(t, store.Delete(ctx, first.ID), todo.ErrNotFound)

	_, err = store.Update(ctx, first.ID, todo.Update{Completed: &done})
	require.ErrorIs(t, err, todo.ErrNotFound)
}
