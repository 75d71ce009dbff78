package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService() *Service {
	s := NewService("test-secret", time.Hour)
	s.RegisterCredentials("ops-key", "ops-secret")
	return s
}

func TestGenerateToken_ValidCredentials(t *testing.T) {
	service := testService()

	token, err := service.GenerateToken(Credentials{APIKey: "ops-key", APISecret: "ops-secret"})
	require.NoError(t, err)
	require.NotNil(t, token)

	assert.NotEmpty(t, token.Token)
	assert.True(t, token.Expiration.After(time.Now()))
}

func TestGenerateToken_InvalidCredentials(t *testing.T) {
	service := testService()

	tests := []struct {
		name  string
		creds Credentials
	}{
		{name: "wrong secret", creds: Credentials{APIKey: "ops-key", APISecret: "nope"}},
		{name: "unknown key", creds: Credentials{APIKey: "ghost", APISecret: "ops-secret"}},
		{name: "empty", creds: Credentials{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := service.GenerateToken(tt.creds)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Nil(t, token)
		})
	}
}

func TestValidateToken_Roundtrip(t *testing.T) {
	service := testService()

	token, err := service.GenerateToken(Credentials{APIKey: "ops-key", APISecret: "ops-secret"})
	require.NoError(t, err)

	claims, err := service.ValidateToken(token.Token)
	require.NoError(t, err)

	assert.Equal(t, "ops-key", claims.OperatorID)
	assert.Contains(t, claims.Permissions, "deposits:write")
	assert.Contains(t, claims.Permissions, "customers:write")
}

func TestValidateToken_WrongSecret(t *testing.T) {
	service := testService()
	token, err := service.GenerateToken(Credentials{APIKey: "ops-key", APISecret: "ops-secret"})
	require.NoError(t, err)

	other := NewService("another-secret", time.Hour)
	_, err = other.ValidateToken(token.Token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	service := NewService("test-secret", -time.Minute)
	service.RegisterCredentials("ops-key", "ops-secret")

	token, err := service.GenerateToken(Credentials{APIKey: "ops-key", APISecret: "ops-secret"})
	require.NoError(t, err)

	_, err = service.ValidateToken(token.Token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	service := testService()
	_, err := service.ValidateToken("not.a.token")
	assert.Error(t, err)
}
