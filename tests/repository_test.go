// Package tests contains integration tests for the persistence layer
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/hologize/kagiban/models"
	"github.com/hologize/kagiban/repository"
	testingutil "github.com/hologize/kagiban/testing"
	"github.com/hologize/kagiban/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withTestDB runs the test against a throwaway Postgres database, skipping
// when no test server is reachable.
func withTestDB(t *testing.T, fn func(t *testing.T, tdb *testingutil.TestDB)) {
	t.Helper()
	tdb, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	defer func() {
		if err := tdb.TeardownTestDB(); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()
	fn(t, tdb)
}

func TestLicenseRepository(t *testing.T) {
	withTestDB(t, func(t *testing.T, tdb *testingutil.TestDB) {
		ctx := context.Background()
		fixtures := testingutil.NewTestFixtures(tdb)
		licenseRepo := repository.NewLicenseRepository(tdb.DB)

		t.Run("SaveAndByKey", func(t *testing.T) {
			license := &models.License{
				LicenseKey: "APP-SAVE-TEST-0001",
				Status:     models.LicenseStatusUnused,
				IsActive:   utils.ToPtr(true),
			}
			require.NoError(t, licenseRepo.Save(ctx, license))
			assert.NotZero(t, license.ID)

			found, err := licenseRepo.ByKey(ctx, "APP-SAVE-TEST-0001")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, license.ID, found.ID)

			missing, err := licenseRepo.ByKey(ctx, "APP-NOPE-NOPE-NOPE")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("DuplicateKeyReported", func(t *testing.T) {
			license := &models.License{
				LicenseKey: "APP-SAVE-TEST-0001",
				Status:     models.LicenseStatusUnused,
				IsActive:   utils.ToPtr(true),
			}
			err := licenseRepo.Save(ctx, license)
			require.Error(t, err)
			assert.ErrorIs(t, err, repository.ErrDuplicateKey)
		})

		t.Run("ActiveByAdminID", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAdmin)
			require.NoError(t, err)
			assigned, err := fixtures.CreateAssignedLicense(admin, nil)
			require.NoError(t, err)

			found, err := licenseRepo.ActiveByAdminID(ctx, admin.ID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, assigned.ID, found.ID)

			// Suspending hides it
			found.IsActive = utils.ToPtr(false)
			require.NoError(t, licenseRepo.Update(ctx, found))

			hidden, err := licenseRepo.ActiveByAdminID(ctx, admin.ID)
			require.NoError(t, err)
			assert.Nil(t, hidden)
		})

		t.Run("ListExpiringWithin", func(t *testing.T) {
			require.NoError(t, tdb.ClearAllTables())

			admin, err := fixtures.CreateTestAdmin(models.RoleAdmin)
			require.NoError(t, err)

			soon := utils.EndOfDay(time.Now().AddDate(0, 0, 2))
			_, err = fixtures.CreateAssignedLicense(admin, &soon)
			require.NoError(t, err)

			other, err := fixtures.CreateTestAdmin(models.RoleAdmin)
			require.NoError(t, err)
			far := utils.EndOfDay(time.Now().AddDate(0, 1, 0))
			_, err = fixtures.CreateAssignedLicense(other, &far)
			require.NoError(t, err)

			rows, err := licenseRepo.ListExpiringWithin(ctx, utils.ExpiryWarningWindowDays)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, admin.Email, rows[0].Email)
		})
	})
}

func TestAdminRepository(t *testing.T) {
	withTestDB(t, func(t *testing.T, tdb *testingutil.TestDB) {
		ctx := context.Background()
		fixtures := testingutil.NewTestFixtures(tdb)
		adminRepo := repository.NewAdminRepository(tdb.DB)

		t.Run("ByEmail", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAdmin)
			require.NoError(t, err)

			found, err := adminRepo.ByEmail(ctx, admin.Email)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, admin.ID, found.ID)

			missing, err := adminRepo.ByEmail(ctx, "nobody@example.com")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("DuplicateEmailReported", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAdmin)
			require.NoError(t, err)

			dup := *admin
			dup.ID = 0
			err = adminRepo.Save(ctx, &dup)
			require.Error(t, err)
		})

		t.Run("ListWithLicense", func(t *testing.T) {
			require.NoError(t, tdb.ClearAllTables())

			first, err := fixtures.CreateTestAdmin(models.RoleAdmin)
			require.NoError(t, err)
			license, err := fixtures.CreateAssignedLicense(first, nil)
			require.NoError(t, err)

			second, err := fixtures.CreateTestAdmin(models.RoleAdmin)
			require.NoError(t, err)

			// Superadmins stay out of the listing
			_, err = fixtures.CreateTestAdmin(models.RoleSuperadmin)
			require.NoError(t, err)

			rows, err := adminRepo.ListWithLicense(ctx)
			require.NoError(t, err)
			require.Len(t, rows, 2)

			// Newest first
			assert.Equal(t, second.ID, rows[0].ID)
			assert.Nil(t, rows[0].LicenseKey)
			assert.Equal(t, first.ID, rows[1].ID)
			require.NotNil(t, rows[1].LicenseKey)
			assert.Equal(t, license.LicenseKey, *rows[1].LicenseKey)
		})
	})
}

func TestTransactionRollback(t *testing.T) {
	withTestDB(t, func(t *testing.T, tdb *testingutil.TestDB) {
		ctx := context.Background()
		licenseRepo := repository.NewLicenseRepository(tdb.DB)
		txManager := repository.NewGormTxManager(tdb.DB)

		err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			license := &models.License{
				LicenseKey: "APP-ROLL-BACK-0001",
				Status:     models.LicenseStatusUnused,
				IsActive:   utils.ToPtr(true),
			}
			if err := licenseRepo.Save(txCtx, license); err != nil {
				return err
			}
			return assert.AnError
		})
		require.Error(t, err)

		// The write never became visible
		found, err := licenseRepo.ByKey(ctx, "APP-ROLL-BACK-0001")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}
