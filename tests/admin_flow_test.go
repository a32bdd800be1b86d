// Package tests contains integration tests for the admin management flows
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/hologize/kagiban/app/dto"
	businessflow "github.com/hologize/kagiban/business_flow"
	"github.com/hologize/kagiban/keygen"
	"github.com/hologize/kagiban/models"
	"github.com/hologize/kagiban/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAdminWithLicense(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesAdminAndBoundLicenseAtomically", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, super := env.createAdmin(t, models.RoleSuperadmin)

		result, err := env.adminFlow.CreateAdminWithLicense(ctx, super, &dto.CreateAdminRequest{
			Email:    "new.admin@example.com",
			Password: "StrongPass1!",
			Name:     "New Admin",
		})
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, "new.admin@example.com", result.Admin.Email)
		assert.Equal(t, models.RoleAdmin, result.Admin.Role)
		assert.True(t, result.Admin.IsActive)

		assert.NoError(t, keygen.Validate(result.License.LicenseKey))
		assert.Equal(t, models.LicenseStatusActive, result.License.Status)
		require.NotNil(t, result.License.AdminID)
		assert.Equal(t, result.Admin.ID, *result.License.AdminID)
		require.NotNil(t, result.License.AssignedEmail)
		assert.Equal(t, result.Admin.Email, *result.License.AssignedEmail)
		assert.Nil(t, result.License.ExpiryDate)

		// The new admin immediately validates
		newCaller := &businessflow.Caller{AdminID: result.Admin.ID, Email: result.Admin.Email, Role: models.RoleAdmin}
		validation, err := env.licenseFlow.Validate(ctx, newCaller)
		require.NoError(t, err)
		assert.True(t, validation.Valid)
	})

	t.Run("ExplicitExpiryDateWins", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, super := env.createAdmin(t, models.RoleSuperadmin)

		result, err := env.adminFlow.CreateAdminWithLicense(ctx, super, &dto.CreateAdminRequest{
			Email:             "dated.admin@example.com",
			Password:          "StrongPass1!",
			ExpiryDate:        "2032-03-01",
			LicensePeriodDays: utils.ToPtr(30),
		})
		require.NoError(t, err)
		require.NotNil(t, result.License.ExpiryDate)
		assert.Equal(t, 2032, result.License.ExpiryDate.Year())
		assert.Equal(t, time.March, result.License.ExpiryDate.Month())
	})

	t.Run("PeriodDaysDeriveExpiry", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, super := env.createAdmin(t, models.RoleSuperadmin)

		result, err := env.adminFlow.CreateAdminWithLicense(ctx, super, &dto.CreateAdminRequest{
			Email:             "period.admin@example.com",
			Password:          "StrongPass1!",
			StartDate:         "2030-01-01",
			LicensePeriodDays: utils.ToPtr(30),
		})
		require.NoError(t, err)
		require.NotNil(t, result.License.ExpiryDate)
		assert.Equal(t, 2030, result.License.ExpiryDate.Year())
		assert.Equal(t, time.January, result.License.ExpiryDate.Month())
		assert.Equal(t, 31, result.License.ExpiryDate.Day())
		assert.Equal(t, 23, result.License.ExpiryDate.Hour())
	})

	t.Run("DuplicateEmailRollsBackEverything", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, super := env.createAdmin(t, models.RoleSuperadmin)

		_, err := env.adminFlow.CreateAdminWithLicense(ctx, super, &dto.CreateAdminRequest{
			Email:    "taken@example.com",
			Password: "StrongPass1!",
		})
		require.NoError(t, err)

		before, err := env.store.Licenses().Count(ctx, models.LicenseFilter{})
		require.NoError(t, err)

		_, err = env.adminFlow.CreateAdminWithLicense(ctx, super, &dto.CreateAdminRequest{
			Email:    "taken@example.com",
			Password: "StrongPass1!",
		})
		require.Error(t, err)
		assert.True(t, businessflow.IsEmailAlreadyExists(err))

		// No orphan license left behind
		after, err := env.store.Licenses().Count(ctx, models.LicenseFilter{})
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("AdminForbidden", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, admin := env.createAdmin(t, models.RoleAdmin)

		_, err := env.adminFlow.CreateAdminWithLicense(ctx, admin, &dto.CreateAdminRequest{
			Email:    "nope@example.com",
			Password: "StrongPass1!",
		})
		require.Error(t, err)
		assert.True(t, businessflow.IsSuperadminRequired(err))
	})
}

func TestListAdmins(t *testing.T) {
	ctx := context.Background()
	env := newLicenseFlowEnv()
	_, super := env.createAdmin(t, models.RoleSuperadmin)

	first, err := env.adminFlow.CreateAdminWithLicense(ctx, super, &dto.CreateAdminRequest{
		Email:    "first@example.com",
		Password: "StrongPass1!",
		Name:     "First",
	})
	require.NoError(t, err)
	second, err := env.adminFlow.CreateAdminWithLicense(ctx, super, &dto.CreateAdminRequest{
		Email:    "second@example.com",
		Password: "StrongPass1!",
		Name:     "Second",
	})
	require.NoError(t, err)

	rows, err := env.adminFlow.ListAdmins(ctx, super)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Newest first, superadmin excluded
	assert.Equal(t, second.Admin.ID, rows[0].ID)
	assert.Equal(t, first.Admin.ID, rows[1].ID)
	require.NotNil(t, rows[0].LicenseKey)
	assert.Equal(t, second.License.LicenseKey, *rows[0].LicenseKey)
	require.NotNil(t, rows[0].Status)
	assert.Equal(t, models.LicenseStatusActive, *rows[0].Status)
}

func TestToggleAdminActive(t *testing.T) {
	ctx := context.Background()
	env := newLicenseFlowEnv()
	superModel, super := env.createAdmin(t, models.RoleSuperadmin)

	created, err := env.adminFlow.CreateAdminWithLicense(ctx, super, &dto.CreateAdminRequest{
		Email:    "toggle.me@example.com",
		Password: "StrongPass1!",
	})
	require.NoError(t, err)

	t.Run("FlipTwice", func(t *testing.T) {
		result, err := env.adminFlow.ToggleAdminActive(ctx, super, created.Admin.ID)
		require.NoError(t, err)
		assert.False(t, result.IsActive)

		result, err = env.adminFlow.ToggleAdminActive(ctx, super, created.Admin.ID)
		require.NoError(t, err)
		assert.True(t, result.IsActive)
	})

	t.Run("SuperadminTargetNotFound", func(t *testing.T) {
		_, err := env.adminFlow.ToggleAdminActive(ctx, super, superModel.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsAdminNotFound(err))
	})

	t.Run("UnknownAdminNotFound", func(t *testing.T) {
		_, err := env.adminFlow.ToggleAdminActive(ctx, super, 99999)
		require.Error(t, err)
		assert.True(t, businessflow.IsAdminNotFound(err))
	})
}

func TestListExpiringSoon(t *testing.T) {
	ctx := context.Background()
	env := newLicenseFlowEnv()
	_, super := env.createAdmin(t, models.RoleSuperadmin)

	soon := time.Now().AddDate(0, 0, 3).Format(utils.ExpiryDateLayout)
	far := time.Now().AddDate(0, 0, 30).Format(utils.ExpiryDateLayout)

	expiring, err := env.adminFlow.CreateAdminWithLicense(ctx, super, &dto.CreateAdminRequest{
		Email:      "expiring@example.com",
		Password:   "StrongPass1!",
		Name:       "Expiring Admin",
		ExpiryDate: soon,
	})
	require.NoError(t, err)

	_, err = env.adminFlow.CreateAdminWithLicense(ctx, super, &dto.CreateAdminRequest{
		Email:      "healthy@example.com",
		Password:   "StrongPass1!",
		ExpiryDate: far,
	})
	require.NoError(t, err)

	_, err = env.adminFlow.CreateAdminWithLicense(ctx, super, &dto.CreateAdminRequest{
		Email:    "perpetual@example.com",
		Password: "StrongPass1!",
	})
	require.NoError(t, err)

	rows, err := env.adminFlow.ListExpiringSoon(ctx, super)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "expiring@example.com", rows[0].Email)
	assert.Equal(t, expiring.License.LicenseKey, rows[0].LicenseKey)
}
