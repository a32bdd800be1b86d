// Package testing provides test utilities and database setup for testing the license administration system
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/hologize/kagiban/models"
	"github.com/hologize/kagiban/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAdmin creates an admin account with the given role
func (tf *TestFixtures) CreateTestAdmin(role string) (*models.Admin, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	admin := &models.Admin{
		UUID:         uuid.New(),
		Email:        fmt.Sprintf("admin.%s.%s@example.com", role, randomDigits),
		Name:         "Test Admin",
		PasswordHash: string(hashedPassword),
		Role:         role,
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create test admin: %w", err)
	}

	return admin, nil
}

// CreateTestLicense creates an unused pool license with a random key
func (tf *TestFixtures) CreateTestLicense(expiryDate *time.Time) (*models.License, error) {
	license := &models.License{
		LicenseKey: fmt.Sprintf("APP-%04d-%04d-%04d", rand.Intn(10000), rand.Intn(10000), rand.Intn(10000)),
		Status:     models.LicenseStatusUnused,
		IsActive:   utils.ToPtr(true),
		ExpiryDate: expiryDate,
	}

	if err := tf.DB.DB.Create(license).Error; err != nil {
		return nil, fmt.Errorf("failed to create test license: %w", err)
	}

	return license, nil
}

// CreateAssignedLicense creates an active license bound to the given admin
func (tf *TestFixtures) CreateAssignedLicense(admin *models.Admin, expiryDate *time.Time) (*models.License, error) {
	license := &models.License{
		LicenseKey:    fmt.Sprintf("APP-%04d-%04d-%04d", rand.Intn(10000), rand.Intn(10000), rand.Intn(10000)),
		AdminID:       &admin.ID,
		AssignedEmail: utils.ToPtr(admin.Email),
		Status:        models.LicenseStatusActive,
		IsActive:      utils.ToPtr(true),
		ExpiryDate:    expiryDate,
	}

	if err := tf.DB.DB.Create(license).Error; err != nil {
		return nil, fmt.Errorf("failed to create assigned license: %w", err)
	}

	return license, nil
}
