// Package tests contains integration tests for the license lifecycle flows
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/hologize/kagiban/app/dto"
	businessflow "github.com/hologize/kagiban/business_flow"
	"github.com/hologize/kagiban/keygen"
	"github.com/hologize/kagiban/models"
	"github.com/hologize/kagiban/repository"
	testingutil "github.com/hologize/kagiban/testing"
	"github.com/hologize/kagiban/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncNotifier writes notification rows synchronously so tests can assert on
// them without racing the fire-and-forget goroutine.
type syncNotifier struct {
	repo repository.NotificationRepository
}

func (n *syncNotifier) Notify(typ, message, targetRole string, targetAdminID, relatedLicenseID *uint) {
	_ = n.repo.Save(context.Background(), &models.Notification{
		Type:             typ,
		Message:          message,
		TargetRole:       targetRole,
		TargetAdminID:    targetAdminID,
		RelatedLicenseID: relatedLicenseID,
	})
}

type licenseFlowEnv struct {
	store       *testingutil.MemStore
	licenseFlow businessflow.LicenseFlow
	adminFlow   businessflow.AdminManagementFlow
}

func newLicenseFlowEnv() *licenseFlowEnv {
	store := testingutil.NewMemStore()
	notifier := &syncNotifier{repo: store.Notifications()}
	gen := keygen.New()

	return &licenseFlowEnv{
		store:       store,
		licenseFlow: businessflow.NewLicenseFlow(store.Licenses(), gen, notifier, store.TxManager()),
		adminFlow:   businessflow.NewAdminManagementFlow(store.Admins(), store.Licenses(), gen, notifier, store.TxManager()),
	}
}

func (e *licenseFlowEnv) createAdmin(t *testing.T, role string) (*models.Admin, *businessflow.Caller) {
	t.Helper()
	admin := &models.Admin{
		UUID:         uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		Name:         "Test Admin",
		PasswordHash: "x",
		Role:         role,
		IsActive:     utils.ToPtr(true),
	}
	require.NoError(t, e.store.Admins().Save(context.Background(), admin))
	return admin, &businessflow.Caller{AdminID: admin.ID, Email: admin.Email, Role: admin.Role}
}

func TestGenerateLicense(t *testing.T) {
	env := newLicenseFlowEnv()
	_, super := env.createAdmin(t, models.RoleSuperadmin)
	_, admin := env.createAdmin(t, models.RoleAdmin)
	ctx := context.Background()

	t.Run("SuperadminGeneratesPoolKey", func(t *testing.T) {
		result, err := env.licenseFlow.Generate(ctx, super, "")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.NoError(t, keygen.Validate(result.LicenseKey))
		assert.Nil(t, result.ExpiryDate)

		stored, err := env.store.Licenses().ByKey(ctx, result.LicenseKey)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, models.LicenseStatusUnused, stored.Status)
		assert.Nil(t, stored.AdminID)
		assert.True(t, utils.IsTrue(stored.IsActive))
	})

	t.Run("GenerateWithExpiryDate", func(t *testing.T) {
		result, err := env.licenseFlow.Generate(ctx, super, "2030-06-15")
		require.NoError(t, err)
		require.NotNil(t, result.ExpiryDate)
		assert.Equal(t, 2030, result.ExpiryDate.Year())
		assert.Equal(t, time.June, result.ExpiryDate.Month())
		assert.Equal(t, 15, result.ExpiryDate.Day())
		assert.Equal(t, 23, result.ExpiryDate.Hour())
		assert.Equal(t, 59, result.ExpiryDate.Minute())
	})

	t.Run("InvalidExpiryDateRejected", func(t *testing.T) {
		_, err := env.licenseFlow.Generate(ctx, super, "15/06/2030")
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidExpiryDate(err))
	})

	t.Run("AdminForbidden", func(t *testing.T) {
		_, err := env.licenseFlow.Generate(ctx, admin, "")
		require.Error(t, err)
		assert.True(t, businessflow.IsSuperadminRequired(err))
	})

	t.Run("UnauthenticatedRejected", func(t *testing.T) {
		_, err := env.licenseFlow.Generate(ctx, nil, "")
		require.Error(t, err)
		assert.True(t, businessflow.IsAuthenticationRequired(err))
	})
}

func TestActivateLicense(t *testing.T) {
	ctx := context.Background()

	t.Run("SuccessfulActivation", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, super := env.createAdmin(t, models.RoleSuperadmin)
		_, admin := env.createAdmin(t, models.RoleAdmin)

		generated, err := env.licenseFlow.Generate(ctx, super, "")
		require.NoError(t, err)

		result, err := env.licenseFlow.Activate(ctx, admin, &dto.ActivateLicenseRequest{LicenseKey: generated.LicenseKey})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, models.LicenseStatusActive, result.Status)
		require.NotNil(t, result.AdminID)
		assert.Equal(t, admin.AdminID, *result.AdminID)
		require.NotNil(t, result.AssignedEmail)
		assert.Equal(t, admin.Email, *result.AssignedEmail)

		// Activation writes a notification row
		assert.Equal(t, 1, env.store.NotificationCount())
	})

	t.Run("NormalizedKeyAccepted", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, super := env.createAdmin(t, models.RoleSuperadmin)
		_, admin := env.createAdmin(t, models.RoleAdmin)

		generated, err := env.licenseFlow.Generate(ctx, super, "")
		require.NoError(t, err)

		lowered := "  " + generated.LicenseKey + "  "
		_, err = env.licenseFlow.Activate(ctx, admin, &dto.ActivateLicenseRequest{LicenseKey: lowered})
		require.NoError(t, err)
	})

	t.Run("MalformedKeyRejected", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, admin := env.createAdmin(t, models.RoleAdmin)

		_, err := env.licenseFlow.Activate(ctx, admin, &dto.ActivateLicenseRequest{LicenseKey: "XYZ-1234"})
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidLicenseKey(err))
	})

	t.Run("UnknownKeyNotFound", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, admin := env.createAdmin(t, models.RoleAdmin)

		_, err := env.licenseFlow.Activate(ctx, admin, &dto.ActivateLicenseRequest{LicenseKey: "APP-AAAA-BBBB-CCCC"})
		require.Error(t, err)
		assert.True(t, businessflow.IsLicenseNotFound(err))
	})

	t.Run("KeyAssignedToAnotherAdminConflicts", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, super := env.createAdmin(t, models.RoleSuperadmin)
		_, first := env.createAdmin(t, models.RoleAdmin)
		_, second := env.createAdmin(t, models.RoleAdmin)

		generated, err := env.licenseFlow.Generate(ctx, super, "")
		require.NoError(t, err)
		_, err = env.licenseFlow.Activate(ctx, first, &dto.ActivateLicenseRequest{LicenseKey: generated.LicenseKey})
		require.NoError(t, err)

		_, err = env.licenseFlow.Activate(ctx, second, &dto.ActivateLicenseRequest{LicenseKey: generated.LicenseKey})
		require.Error(t, err)
		assert.True(t, businessflow.IsLicenseAssignedElsewhere(err))
	})

	t.Run("SuspendedPoolKeyResumesOnActivation", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, super := env.createAdmin(t, models.RoleSuperadmin)
		_, admin := env.createAdmin(t, models.RoleAdmin)

		generated, err := env.licenseFlow.Generate(ctx, super, "")
		require.NoError(t, err)
		pool, err := env.store.Licenses().ByKey(ctx, generated.LicenseKey)
		require.NoError(t, err)

		// Suspend the key while it still sits in the pool
		_, err = env.licenseFlow.ToggleActive(ctx, super, pool.ID)
		require.NoError(t, err)

		result, err := env.licenseFlow.Activate(ctx, admin, &dto.ActivateLicenseRequest{LicenseKey: generated.LicenseKey})
		require.NoError(t, err)
		assert.True(t, result.IsActive)

		stored, err := env.store.Licenses().ByID(ctx, pool.ID)
		require.NoError(t, err)
		assert.True(t, utils.IsTrue(stored.IsActive))
		assert.Equal(t, models.LicenseStatusActive, stored.Status)

		validation, err := env.licenseFlow.Validate(ctx, admin)
		require.NoError(t, err)
		assert.True(t, validation.Valid)
	})

	t.Run("SecondActiveLicenseConflicts", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, super := env.createAdmin(t, models.RoleSuperadmin)
		_, admin := env.createAdmin(t, models.RoleAdmin)

		first, err := env.licenseFlow.Generate(ctx, super, "")
		require.NoError(t, err)
		second, err := env.licenseFlow.Generate(ctx, super, "")
		require.NoError(t, err)

		_, err = env.licenseFlow.Activate(ctx, admin, &dto.ActivateLicenseRequest{LicenseKey: first.LicenseKey})
		require.NoError(t, err)

		_, err = env.licenseFlow.Activate(ctx, admin, &dto.ActivateLicenseRequest{LicenseKey: second.LicenseKey})
		require.Error(t, err)
		assert.True(t, businessflow.IsActiveLicenseExists(err))

		// The second key stays in the pool
		stored, err := env.store.Licenses().ByKey(ctx, second.LicenseKey)
		require.NoError(t, err)
		assert.Equal(t, models.LicenseStatusUnused, stored.Status)
		assert.Nil(t, stored.AdminID)
	})
}

func TestValidateLicense(t *testing.T) {
	ctx := context.Background()

	t.Run("ActiveLicenseIsValid", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, super := env.createAdmin(t, models.RoleSuperadmin)
		_, admin := env.createAdmin(t, models.RoleAdmin)

		generated, err := env.licenseFlow.Generate(ctx, super, "")
		require.NoError(t, err)
		_, err = env.licenseFlow.Activate(ctx, admin, &dto.ActivateLicenseRequest{LicenseKey: generated.LicenseKey})
		require.NoError(t, err)

		result, err := env.licenseFlow.Validate(ctx, admin)
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})

	t.Run("NoLicenseIsInvalid", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, admin := env.createAdmin(t, models.RoleAdmin)

		result, err := env.licenseFlow.Validate(ctx, admin)
		require.NoError(t, err)
		assert.False(t, result.Valid)
	})

	t.Run("SuspendedLicenseIsInvalid", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, super := env.createAdmin(t, models.RoleSuperadmin)
		_, admin := env.createAdmin(t, models.RoleAdmin)

		generated, err := env.licenseFlow.Generate(ctx, super, "")
		require.NoError(t, err)
		activated, err := env.licenseFlow.Activate(ctx, admin, &dto.ActivateLicenseRequest{LicenseKey: generated.LicenseKey})
		require.NoError(t, err)

		_, err = env.licenseFlow.ToggleActive(ctx, super, activated.ID)
		require.NoError(t, err)

		result, err := env.licenseFlow.Validate(ctx, admin)
		require.NoError(t, err)
		assert.False(t, result.Valid)
	})

	t.Run("ExpiredLicenseIsInvalid", func(t *testing.T) {
		env := newLicenseFlowEnv()
		_, super := env.createAdmin(t, models.RoleSuperadmin)
		_, admin := env.createAdmin(t, models.RoleAdmin)

		generated, err := env.licenseFlow.Generate(ctx, super, "")
		require.NoError(t, err)
		activated, err := env.licenseFlow.Activate(ctx, admin, &dto.ActivateLicenseRequest{LicenseKey: generated.LicenseKey})
		require.NoError(t, err)

		// Push the expiry into the past directly through the store
		license, err := env.store.Licenses().ByID(ctx, activated.ID)
		require.NoError(t, err)
		past := time.Now().AddDate(0, 0, -1)
		license.ExpiryDate = &past
		require.NoError(t, env.store.Licenses().Update(ctx, license))

		result, err := env.licenseFlow.Validate(ctx, admin)
		require.NoError(t, err)
		assert.False(t, result.Valid)
	})

	t.Run("SuperadminValidatedByAssignedEmail", func(t *testing.T) {
		env := newLicenseFlowEnv()
		superAdmin, super := env.createAdmin(t, models.RoleSuperadmin)

		license := &models.License{
			LicenseKey:    "APP-TEST-MAIL-PATH",
			AssignedEmail: utils.ToPtr(superAdmin.Email),
			Status:        models.LicenseStatusActive,
			IsActive:      utils.ToPtr(true),
		}
		require.NoError(t, env.store.Licenses().Save(ctx, license))

		result, err := env.licenseFlow.Validate(ctx, super)
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})
}

func TestToggleLicense(t *testing.T) {
	ctx := context.Background()
	env := newLicenseFlowEnv()
	_, super := env.createAdmin(t, models.RoleSuperadmin)
	_, admin := env.createAdmin(t, models.RoleAdmin)

	generated, err := env.licenseFlow.Generate(ctx, super, "")
	require.NoError(t, err)
	activated, err := env.licenseFlow.Activate(ctx, admin, &dto.ActivateLicenseRequest{LicenseKey: generated.LicenseKey})
	require.NoError(t, err)

	t.Run("ToggleFlipsWithoutTouchingStatus", func(t *testing.T) {
		result, err := env.licenseFlow.ToggleActive(ctx, super, activated.ID)
		require.NoError(t, err)
		assert.False(t, result.IsActive)

		stored, err := env.store.Licenses().ByID(ctx, activated.ID)
		require.NoError(t, err)
		assert.Equal(t, models.LicenseStatusActive, stored.Status)

		result, err = env.licenseFlow.ToggleActive(ctx, super, activated.ID)
		require.NoError(t, err)
		assert.True(t, result.IsActive)
	})

	t.Run("AdminForbidden", func(t *testing.T) {
		_, err := env.licenseFlow.ToggleActive(ctx, admin, activated.ID)
		require.Error(t, err)
		assert.True(t, businessflow.IsSuperadminRequired(err))
	})

	t.Run("UnknownLicenseNotFound", func(t *testing.T) {
		_, err := env.licenseFlow.ToggleActive(ctx, super, 99999)
		require.Error(t, err)
		assert.True(t, businessflow.IsLicenseNotFound(err))
	})
}

func TestUpdateExpiry(t *testing.T) {
	ctx := context.Background()
	env := newLicenseFlowEnv()
	_, super := env.createAdmin(t, models.RoleSuperadmin)

	generated, err := env.licenseFlow.Generate(ctx, super, "")
	require.NoError(t, err)
	license, err := env.store.Licenses().ByKey(ctx, generated.LicenseKey)
	require.NoError(t, err)

	t.Run("SetExpiry", func(t *testing.T) {
		result, err := env.licenseFlow.UpdateExpiry(ctx, super, license.ID, &dto.UpdateExpiryRequest{ExpiryDate: "2031-01-31"})
		require.NoError(t, err)
		require.NotNil(t, result.ExpiryDate)
		assert.Equal(t, 2031, result.ExpiryDate.Year())
		assert.Equal(t, 23, result.ExpiryDate.Hour())
	})

	t.Run("ClearExpiry", func(t *testing.T) {
		result, err := env.licenseFlow.UpdateExpiry(ctx, super, license.ID, &dto.UpdateExpiryRequest{})
		require.NoError(t, err)
		assert.Nil(t, result.ExpiryDate)
	})

	t.Run("UnknownLicenseNotFound", func(t *testing.T) {
		_, err := env.licenseFlow.UpdateExpiry(ctx, super, 99999, &dto.UpdateExpiryRequest{ExpiryDate: "2031-01-31"})
		require.Error(t, err)
		assert.True(t, businessflow.IsLicenseNotFound(err))
	})
}

func TestRenewLicense(t *testing.T) {
	ctx := context.Background()
	env := newLicenseFlowEnv()
	_, super := env.createAdmin(t, models.RoleSuperadmin)
	_, admin := env.createAdmin(t, models.RoleAdmin)

	generated, err := env.licenseFlow.Generate(ctx, super, "")
	require.NoError(t, err)
	activated, err := env.licenseFlow.Activate(ctx, admin, &dto.ActivateLicenseRequest{LicenseKey: generated.LicenseKey})
	require.NoError(t, err)

	t.Run("RenewExpiredLicenseMakesItUsableAgain", func(t *testing.T) {
		license, err := env.store.Licenses().ByID(ctx, activated.ID)
		require.NoError(t, err)
		past := time.Now().AddDate(0, 0, -10)
		license.ExpiryDate = &past
		require.NoError(t, env.store.Licenses().Update(ctx, license))

		validation, err := env.licenseFlow.Validate(ctx, admin)
		require.NoError(t, err)
		require.False(t, validation.Valid)

		future := time.Now().AddDate(1, 0, 0).Format(utils.ExpiryDateLayout)
		result, err := env.licenseFlow.Renew(ctx, super, &dto.RenewLicenseRequest{LicenseID: activated.ID, NewExpiryDate: future})
		require.NoError(t, err)
		require.NotNil(t, result.ExpiryDate)

		validation, err = env.licenseFlow.Validate(ctx, admin)
		require.NoError(t, err)
		assert.True(t, validation.Valid)

		// Renewal leaves assignment untouched
		stored, err := env.store.Licenses().ByID(ctx, activated.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.AdminID)
		assert.Equal(t, admin.AdminID, *stored.AdminID)
	})

	t.Run("MissingExpiryDateRejected", func(t *testing.T) {
		_, err := env.licenseFlow.Renew(ctx, super, &dto.RenewLicenseRequest{LicenseID: activated.ID})
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidExpiryDate(err))
	})

	t.Run("UnknownLicenseNotFound", func(t *testing.T) {
		_, err := env.licenseFlow.Renew(ctx, super, &dto.RenewLicenseRequest{LicenseID: 99999, NewExpiryDate: "2031-01-01"})
		require.Error(t, err)
		assert.True(t, businessflow.IsLicenseNotFound(err))
	})
}

func TestListAllLicenses(t *testing.T) {
	ctx := context.Background()
	env := newLicenseFlowEnv()
	_, super := env.createAdmin(t, models.RoleSuperadmin)
	_, holder := env.createAdmin(t, models.RoleAdmin)
	_, other := env.createAdmin(t, models.RoleAdmin)

	for i := 0; i < 3; i++ {
		_, err := env.licenseFlow.Generate(ctx, super, "")
		require.NoError(t, err)
	}

	generated, err := env.licenseFlow.Generate(ctx, super, "")
	require.NoError(t, err)
	activated, err := env.licenseFlow.Activate(ctx, holder, &dto.ActivateLicenseRequest{LicenseKey: generated.LicenseKey})
	require.NoError(t, err)

	t.Run("SuperadminSeesWholePool", func(t *testing.T) {
		result, err := env.licenseFlow.ListAll(ctx, super)
		require.NoError(t, err)
		require.Len(t, result, 4)

		// Newest first
		for i := 1; i < len(result); i++ {
			assert.Greater(t, result[i-1].ID, result[i].ID)
		}
	})

	t.Run("AdminSeesOnlyOwnLicenses", func(t *testing.T) {
		result, err := env.licenseFlow.ListAll(ctx, holder)
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, activated.ID, result[0].ID)
	})

	t.Run("AdminWithoutLicensesSeesNothing", func(t *testing.T) {
		result, err := env.licenseFlow.ListAll(ctx, other)
		require.NoError(t, err)
		assert.Empty(t, result)
	})
}
