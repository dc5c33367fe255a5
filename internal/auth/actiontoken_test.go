package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewActionToken(t *testing.T) {
	raw, hash, err := NewActionToken()
	require.NoError(t, err)
	require.Len(t, raw, actionTokenBytes*2)
	require.Equal(t, HashActionToken(raw), hash)
	require.NotEqual(t, raw, hash)
}

func TestActionTokensAreUnique(t *testing.T) {
	first, _, err := NewActionToken()
	require.NoError(t, err)
	second, _, err := NewActionToken()
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
