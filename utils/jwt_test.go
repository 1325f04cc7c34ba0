package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnahub/qna/config"
)

func TestGenerateAndParseToken(t *testing.T) {
	config.SetForTesting(config.AppConfig{JWTSecret: "utils-test-secret"})

	token, err := GenerateToken(42, "gopher", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "gopher", claims.Username)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	config.SetForTesting(config.AppConfig{JWTSecret: "utils-test-secret"})

	token, err := GenerateToken(42, "gopher", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	config.SetForTesting(config.AppConfig{JWTSecret: "secret-a"})
	token, err := GenerateToken(1, "gopher", time.Hour)
	require.NoError(t, err)

	config.SetForTesting(config.AppConfig{JWTSecret: "secret-b"})
	_, err = ParseToken(token)
	assert.Error(t, err)
}
