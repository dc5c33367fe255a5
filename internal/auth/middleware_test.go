package auth_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop/internal/auth"
	_ "github.com/taskloop/taskloop/testing"
)

func newGate(t *testing.T) (*auth.Middleware, *auth.MemoryStore, *auth.TokenIssuer) {
	t.Helper()
	store := auth.NewMemoryStore()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	return auth.NewMiddleware(slog.Default(), store, tokens), store, tokens
}

func TestRequireUserMissingHeader(t *testing.T) {
	gate, _, _ := newGate(t)
	handler := gate.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequireUserMalformedHeader(t *testing.T) {
	gate, _, _ := newGate(t)
	handler := gate.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequireUserUnknownUser(t *testing.T) {
	gate, _, tokens := newGate(t)

	// Valid signature, but the id resolves to no account.
	token, err := tokens.Issue(uuid.New())
	require.NoError(t, err)

	handler := gate.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequireUserAttachesUser(t *testing.T) {
	gate, store, tokens := newGate(t)
	user, err := store.Create(context.Background(), "Ana", "ana@x.com", "secret-pass-1")
	require.NoError(t, err)
	token, err := tokens.Issue(user.ID)
	require.NoError(t, err)

	var seen *auth.User
	handler := gate.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.UserFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, seen)
	require.Equal(t, user.ID, seen.ID)
}

func TestRequireVerified(t *testing.T) {
	gate, store, tokens := newGate(t)
	ctx := context.Background()
	user, err := store.Create(ctx, "Ana", "ana@x.com", "secret-pass-1")
	require.NoError(t, err)
	token, err := tokens.Issue(user.ID)
	require.NoError(t, err)

	handler := gate.RequireVerified(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusForbidden, res.Code)

	user.IsEmailVerified = true
	require.NoError(t, store.Save(ctx, user))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
}
