// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestTokenService creates a token service for testing with symmetric key
func createTestTokenService() (TokenService, error) {
	return NewTokenService(
		15*time.Minute,
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false, // useRSAKeys
		"",    // privateKeyPEM
		"",    // publicKeyPEM
		"test-secret-key-for-jwt-signing-32-chars", // secretKey
	)
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name        string
		useRSAKeys  bool
		secretKey   string
		expectError bool
	}{
		{
			name:        "valid symmetric key configuration",
			useRSAKeys:  false,
			secretKey:   "test-secret-key-for-jwt-signing-32-chars",
			expectError: false,
		},
		{
			name:        "missing secret key",
			useRSAKeys:  false,
			secretKey:   "",
			expectError: true,
		},
		{
			name:        "RSA mode without keys",
			useRSAKeys:  true,
			secretKey:   "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewTokenService(
				15*time.Minute, 7*24*time.Hour,
				"test-issuer", "test-audience",
				tt.useRSAKeys, "", "", tt.secretKey,
			)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestGenerateTokens(t *testing.T) {
	svc, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, refreshToken, err := svc.GenerateTokens(42, "admin@example.com", "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)
	assert.NotEqual(t, accessToken, refreshToken)
}

func TestValidateToken(t *testing.T) {
	svc, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, refreshToken, err := svc.GenerateTokens(42, "admin@example.com", "superadmin")
	require.NoError(t, err)

	t.Run("ValidAccessToken", func(t *testing.T) {
		claims, err := svc.ValidateToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, uint(42), claims.AdminID)
		assert.Equal(t, "admin@example.com", claims.Email)
		assert.Equal(t, "superadmin", claims.Role)
		assert.Equal(t, "access", claims.TokenType)
		assert.NotEmpty(t, claims.TokenID)
		assert.True(t, claims.ExpiresAt.After(time.Now()))
	})

	t.Run("ValidRefreshToken", func(t *testing.T) {
		claims, err := svc.ValidateToken(refreshToken)
		require.NoError(t, err)
		assert.Equal(t, "refresh", claims.TokenType)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("TamperedToken", func(t *testing.T) {
		_, err := svc.ValidateToken(accessToken + "x")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("WrongKeyRejected", func(t *testing.T) {
		other, err := NewTokenService(
			15*time.Minute, 7*24*time.Hour,
			"test-issuer", "test-audience",
			false, "", "", "a-completely-different-secret-key",
		)
		require.NoError(t, err)

		_, err = other.ValidateToken(accessToken)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestTokenExpiration(t *testing.T) {
	svc, err := NewTokenService(
		-1*time.Minute, // already expired
		7*24*time.Hour,
		"test-issuer", "test-audience",
		false, "", "", "test-secret-key-for-jwt-signing-32-chars",
	)
	require.NoError(t, err)

	accessToken, _, err := svc.GenerateTokens(1, "a@example.com", "admin")
	require.NoError(t, err)

	_, err = svc.ValidateToken(accessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshToken(t *testing.T) {
	svc, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, refreshToken, err := svc.GenerateTokens(7, "r@example.com", "admin")
	require.NoError(t, err)

	t.Run("RefreshIssuesNewPair", func(t *testing.T) {
		newAccess, newRefresh, err := svc.RefreshToken(refreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, newAccess)
		assert.NotEmpty(t, newRefresh)

		claims, err := svc.ValidateToken(newAccess)
		require.NoError(t, err)
		assert.Equal(t, uint(7), claims.AdminID)
		assert.Equal(t, "access", claims.TokenType)
	})

	t.Run("AccessTokenCannotRefresh", func(t *testing.T) {
		_, _, err := svc.RefreshToken(accessToken)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestConcurrentTokenGeneration(t *testing.T) {
	svc, err := createTestTokenService()
	require.NoError(t, err)

	const workers = 10
	tokens := make(chan string, workers)
	for i := 0; i < workers; i++ {
		go func(id uint) {
			access, _, err := svc.GenerateTokens(id, "c@example.com", "admin")
			assert.NoError(t, err)
			tokens <- access
		}(uint(i + 1))
	}

	seen := make(map[string]bool)
	for i := 0; i < workers; i++ {
		tok := <-tokens
		assert.False(t, seen[tok], "token IDs must be unique")
		seen[tok] = true
	}
}
