// Package models contains domain entities and business models for the license administration system
package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin roles
const (
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

type Admin struct {
	ID           uint      `gorm:"primaryKey" db:"id" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_admins_uuid" db:"uuid" json:"uuid"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:uk_admins_email;index:idx_admins_email" db:"email" json:"email"`
	Name         string    `gorm:"size:255;not null;default:''" db:"name" json:"name"`
	PasswordHash string    `gorm:"size:255;not null" db:"password_hash" json:"-"`
	Role         string    `gorm:"size:32;not null;default:'admin';index:idx_admins_role" db:"role" json:"role"`

	IsActive    *bool      `gorm:"default:true;index:idx_admins_is_active" db:"is_active" json:"is_active"`
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_admins_created_at" db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" db:"updated_at" json:"updated_at"`
	LastLoginAt *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

func (Admin) TableName() string {
	return "admins"
}

// IsSuperadmin reports whether the admin holds the superadmin role.
func (a *Admin) IsSuperadmin() bool {
	return a.Role == RoleSuperadmin
}

// AdminFilter represents filter criteria for admin queries
type AdminFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Email         *string
	Role          *string
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// AdminWithLicense is the read model for the superadmin admin listing,
// joining each admin with its most recent license.
type AdminWithLicense struct {
	ID         uint       `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Email      string     `db:"email" json:"email"`
	IsActive   bool       `db:"is_active" json:"is_active"`
	LicenseKey *string    `db:"license_key" json:"license_key"`
	Status     *string    `db:"status" json:"status"`
	ExpiryDate *time.Time `db:"expiry_date" json:"expiry_date"`
}
