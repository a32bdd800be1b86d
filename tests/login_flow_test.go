// Package tests contains integration tests for admin authentication
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/hologize/kagiban/app/dto"
	"github.com/hologize/kagiban/app/services"
	businessflow "github.com/hologize/kagiban/business_flow"
	"github.com/hologize/kagiban/models"
	testingutil "github.com/hologize/kagiban/testing"
	"github.com/hologize/kagiban/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFlowEnv(t *testing.T) (*testingutil.MemStore, businessflow.AuthFlow, services.TokenService) {
	t.Helper()
	store := testingutil.NewMemStore()

	tokenService, err := services.NewTokenService(
		1*time.Hour, 24*time.Hour, "test-issuer", "test-audience",
		false, "", "", "test-secret-key-for-auth-tests",
	)
	require.NoError(t, err)

	return store, businessflow.NewAuthFlow(store.Admins(), tokenService), tokenService
}

func createLoginAdmin(t *testing.T, store *testingutil.MemStore, password string, active bool) *models.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	admin := &models.Admin{
		UUID:         uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		Name:         "Login Admin",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     utils.ToPtr(active),
	}
	require.NoError(t, store.Admins().Save(context.Background(), admin))
	return admin
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("SuccessfulLogin", func(t *testing.T) {
		store, authFlow, tokenService := newAuthFlowEnv(t)
		admin := createLoginAdmin(t, store, "TestPass123!", true)

		result, err := authFlow.Login(ctx, &dto.LoginRequest{Email: admin.Email, Password: "TestPass123!"})
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, admin.Email, result.Admin.Email)
		assert.NotEmpty(t, result.Session.AccessToken)
		assert.NotEmpty(t, result.Session.RefreshToken)
		assert.Equal(t, "Bearer", result.Session.TokenType)

		claims, err := tokenService.ValidateToken(result.Session.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, admin.ID, claims.AdminID)
		assert.Equal(t, admin.Email, claims.Email)
		assert.Equal(t, models.RoleAdmin, claims.Role)

		// Login records the timestamp
		stored, err := store.Admins().ByID(ctx, admin.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.LastLoginAt)
	})

	t.Run("WrongPasswordRejected", func(t *testing.T) {
		store, authFlow, _ := newAuthFlowEnv(t)
		admin := createLoginAdmin(t, store, "TestPass123!", true)

		_, err := authFlow.Login(ctx, &dto.LoginRequest{Email: admin.Email, Password: "wrong"})
		require.Error(t, err)
		assert.True(t, businessflow.IsIncorrectPassword(err))
	})

	t.Run("UnknownEmailIndistinguishableFromWrongPassword", func(t *testing.T) {
		_, authFlow, _ := newAuthFlowEnv(t)

		_, err := authFlow.Login(ctx, &dto.LoginRequest{Email: "ghost@example.com", Password: "whatever"})
		require.Error(t, err)
		assert.True(t, businessflow.IsIncorrectPassword(err))
	})

	t.Run("InactiveAdminRejected", func(t *testing.T) {
		store, authFlow, _ := newAuthFlowEnv(t)
		admin := createLoginAdmin(t, store, "TestPass123!", false)

		_, err := authFlow.Login(ctx, &dto.LoginRequest{Email: admin.Email, Password: "TestPass123!"})
		require.Error(t, err)
		assert.True(t, businessflow.IsAdminInactive(err))
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	store, authFlow, _ := newAuthFlowEnv(t)
	admin := createLoginAdmin(t, store, "TestPass123!", true)

	login, err := authFlow.Login(ctx, &dto.LoginRequest{Email: admin.Email, Password: "TestPass123!"})
	require.NoError(t, err)

	t.Run("ValidRefreshTokenIssuesNewPair", func(t *testing.T) {
		result, err := authFlow.Refresh(ctx, &dto.RefreshRequest{RefreshToken: login.Session.RefreshToken})
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
	})

	t.Run("AccessTokenCannotRefresh", func(t *testing.T) {
		_, err := authFlow.Refresh(ctx, &dto.RefreshRequest{RefreshToken: login.Session.AccessToken})
		require.Error(t, err)
	})

	t.Run("GarbageTokenRejected", func(t *testing.T) {
		_, err := authFlow.Refresh(ctx, &dto.RefreshRequest{RefreshToken: "not-a-token"})
		require.Error(t, err)
	})
}
