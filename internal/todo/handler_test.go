package todo_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop/internal/todo"
	_ "github.com/taskloop/taskloop/testing"
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	handler := todo.NewHandler(slog.Default(), todo.NewMemoryStore())
	r := chi.NewRouter()
	r.Route("/api/todos", handler.MountRoutes)
	return r
}

func do(t *testing.T, server http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	server.ServeHTTP(res, req)
	return res
}

func TestTodoLifecycle(t *testing.T) {
	server := newServer(t)

	res := do(t, server, http.MethodPost, "/api/todos/", `{"title":"  buy milk "}`)
	require.Equal(t, http.StatusCreated, res.Code)
	var created todo.Todo
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))
	require.Equal(t, "buy milk", created.Title)
	require.False(t, created.Completed)

	res = do(t, server, http.MethodGet, "/api/todos/", "")
	require.Equal(t, http.StatusOK, res.Code)
	var list []todo.Todo
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &list))
	require.Len(t, list, 1)

	res = do(t, server, http.MethodPut, "/api/todos/1", `{"completed":true}`)
	require.Equal(t, http.StatusOK, res.Code)
	var updated todo.Todo
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &updated))
	require.True(t, updated.Completed)
	require.Equal(t, "buy milk", updated.Title)

	res = do(t, server, http.MethodDelete, "/api/todos/1", "")
	require.Equal(t, http.StatusNoContent, res.Code)

	res = do(t, server, http.MethodDelete, "/api/todos/1", "")
	require.Equal(t, http.StatusNotFound, res.Code)
	require.Contains(t, res.Body.String(), "Todo not found")
}

func TestTodoCreateRequiresTitle(t *testing.T) {
	server := newServer(t)

	res := do(t, server, http.MethodPost, "/api/todos/", `{"title":"   "}`)
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Contains(t, res.Body.String(), "Title is required")
}

func TestTodoUpdateMissing(t *testing.T) {
	server := newServer(t)

	res := do(t, server, http.MethodPut, "/api/todos/99", `{"completed":true}`)
	require.Equal(t, http.StatusNotFound, res.Code)

	res = do(t, server, http.MethodPut, "/api/todos/abc", `{"completed":true}`)
	require.Equal(t, http.StatusNotFound, res.Code)
}
