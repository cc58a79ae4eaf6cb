package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(testSecret, TokenTypeAccess, time.Minute, 42, "device-aaa", 7)
	require.NoError(t, err)

	claims, err := ValidateToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "device-aaa", claims.DeviceID)
	assert.Equal(t, int64(7), claims.TokenVersion)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
}

func TestTokenPairTypes(t *testing.T) {
	access, refresh, err := GenerateTokenPair(testSecret, time.Minute, time.Hour, 1, "device-aaa", 1)
	require.NoError(t, err)

	accessClaims, err := ValidateToken(testSecret, access)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, accessClaims.TokenType)

	refreshClaims, err := ValidateToken(testSecret, refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, TokenTypeAccess, time.Minute, 1, "device-aaa", 1)
	require.NoError(t, err)

	_, err = ValidateToken("another-secret", token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := GenerateToken(testSecret, TokenTypeAccess, -time.Minute, 1, "device-aaa", 1)
	require.NoError(t, err)

	_, err = ValidateToken(testSecret, token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := ValidateToken(testSecret, "not-a-token")
	assert.Error(t, err)
}
