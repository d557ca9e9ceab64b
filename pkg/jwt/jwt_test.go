package jwt

import (
	"testing"

	"sociogram/backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	config.AppConfig = &config.Config{JWTSecret: "test-signing-secret"}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, purpose, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
	assert.Empty(t, purpose, "session tokens carry no purpose claim")
}

func TestRecoveryTokenCarriesPurpose(t *testing.T) {
	token, err := GenerateRecoveryToken(7)
	require.NoError(t, err)

	userID, purpose, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userID)
	assert.Equal(t, PurposeRecover, purpose)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, _, err := ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = ParseToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	token, err := GenerateToken(42)
	require.NoError(t, err)

	original := config.AppConfig.JWTSecret
	config.AppConfig.JWTSecret = "rotated-secret"
	defer func() { config.AppConfig.JWTSecret = original }()

	_, _, err = ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
