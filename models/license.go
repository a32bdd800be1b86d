// Package models contains domain entities and business models for the license administration system
package models

import (
	"time"
)

// License lifecycle statuses. Status tracks the lifecycle stage; IsActive is
// an independent suspension switch flipped by superadmins (a license can be
// status=active yet is_active=false, meaning suspended).
const (
	LicenseStatusUnused = "unused"
	LicenseStatusActive = "active"
)

type License struct {
	ID            uint    `gorm:"primaryKey" db:"id" json:"id"`
	LicenseKey    string  `gorm:"size:64;not null;uniqueIndex:uk_licenses_license_key" db:"license_key" json:"license_key"`
	AdminID       *uint   `gorm:"index:idx_licenses_admin_id" db:"admin_id" json:"admin_id"`
	AssignedEmail *string `gorm:"size:255" db:"assigned_email" json:"assigned_email"`
	Status        string  `gorm:"size:32;not null;default:'unused';index:idx_licenses_status" db:"status" json:"status"`

	IsActive   *bool      `gorm:"default:true;index:idx_licenses_is_active" db:"is_active" json:"is_active"`
	ExpiryDate *time.Time `gorm:"index:idx_licenses_expiry_date" db:"expiry_date" json:"expiry_date"`
	CreatedAt  time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_licenses_created_at" db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" db:"updated_at" json:"updated_at"`
}

func (License) TableName() string {
	return "licenses"
}

// LicenseFilter represents filter criteria for license queries
type LicenseFilter struct {
	ID            *uint
	LicenseKey    *string
	AdminID       *uint
	AssignedEmail *string
	Status        *string
	IsActive      *bool
	ExpiresAfter  *time.Time
	ExpiresBefore *time.Time
}

// LicenseWithAdmin is the read model for the expiring-licenses report,
// joining each license with its owning admin.
type LicenseWithAdmin struct {
	Name       string     `db:"name" json:"name"`
	Email      string     `db:"email" json:"email"`
	LicenseKey string     `db:"license_key" json:"license_key"`
	ExpiryDate *time.Time `db:"expiry_date" json:"expiry_date"`
}
