package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_RoundTripAndTamper(t *testing.T) {
	tok, err := GenerateSession(42, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseSession(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.AccountID)

	_, err = ParseSession(tok, "other-secret")
	assert.Error(t, err)
}

func TestSession_Expired(t *testing.T) {
	tok, err := GenerateSession(1, "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseSession(tok, "secret")
	assert.Error(t, err)
}
