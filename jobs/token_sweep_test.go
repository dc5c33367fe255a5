package jobs_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop/internal/auth"
	"github.com/taskloop/taskloop/jobs"
	_ "github.com/taskloop/taskloop/testing"
)

func TestTokenSweepClearsExpiredPairs(t *testing.T) {
	store := auth.NewMemoryStore()
	ctx := context.Background()

	user, err := store.Create(ctx, "Ana", "ana@x.com", "secret-pass-1")
	require.NoError(t, err)

	_, expiredHash, err := auth.NewActionToken()
	require.NoError(t, err)
	_, liveHash, err := auth.NewActionToken()
	require.NoError(t, err)
	user.SetActionToken(auth.PurposeEmailVerification, expiredHash, time.Now().UTC().Add(-time.Minute))
	user.SetActionToken(auth.PurposePasswordReset, liveHash, time.Now().UTC().Add(time.Hour))
	require.NoError(t, store.Save(ctx, user))

	job := jobs.NewTokenSweepJob(store, slog.Default())
	require.NoError(t, job.Handle(ctx, jobs.NewTokenSweepTask()))

	stored, err := store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	gone, _ := stored.ActionToken(auth.PurposeEmailVerification)
	require.Empty(t, gone)
	kept, _ := stored.ActionToken(auth.PurposePasswordReset)
	require.Equal(t, liveHash, kept)
}
