package auth

import (
	"testing"

	"shift-backend/internal/config"
	"shift-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.ExpirationHours = 24
	cfg.JWT.Issuer = "shift-backend"
	return cfg
}

func TestTokenRoundTrip(t *testing.T) {
	manager := NewJWTManager(testConfig("test-secret"))

	user := &models.User{
		ID:       7,
		Email:    "worker@example.com",
		Role:     "worker",
		IsActive: true,
	}

	token, err := manager.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "worker@example.com", claims.Email)
	assert.Equal(t, "worker", claims.Role)
	assert.True(t, claims.IsActive)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTManager(testConfig("secret-a")).GenerateToken(&models.User{ID: 1})
	require.NoError(t, err)

	_, err = NewJWTManager(testConfig("secret-b")).ValidateToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}
