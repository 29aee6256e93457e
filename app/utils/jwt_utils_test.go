package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateUserToken("alice", "device-1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateUserToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
	assert.Equal(t, "device-1", claims.DeviceID)
	assert.Equal(t, "alice", claims.Subject)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateUserToken("alice", "", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateUserToken(token)
	assert.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	token, err := GenerateUserToken("alice", "", time.Hour)
	require.NoError(t, err)

	_, err = ValidateUserToken(token + "x")
	assert.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	_, err := ValidateUserToken("not-a-token")
	assert.Error(t, err)
}
