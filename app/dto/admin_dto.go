package dto

import "time"

// AdminDTO is the wire representation of an admin account
type AdminDTO struct {
	ID          uint   `json:"id"`
	UUID        string `json:"uuid"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	LastLoginAt string `json:"last_login_at,omitempty"`
}

// CreateAdminRequest binds the compound create-admin payload. Expiry is
// either explicit, or derived from startDate + licensePeriodDays, or absent
// (license never expires).
type CreateAdminRequest struct {
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=8"`
	Name              string `json:"name" validate:"omitempty,max=255"`
	StartDate         string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	ExpiryDate        string `json:"expiryDate" validate:"omitempty,datetime=2006-01-02"`
	LicensePeriodDays *int   `json:"licensePeriodDays" validate:"omitempty,gte=1"`
}

// CreateAdminResponse returns the new admin together with its bound license
type CreateAdminResponse struct {
	Admin   AdminDTO   `json:"admin"`
	License LicenseDTO `json:"license"`
}

// AdminLicenseRow is one row of the superadmin admin listing
type AdminLicenseRow struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	IsActive   bool       `json:"is_active"`
	LicenseKey *string    `json:"license_key"`
	Status     *string    `json:"status"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

// ToggleAdminResponse reports the active flag after a flip
type ToggleAdminResponse struct {
	ID       uint `json:"id"`
	IsActive bool `json:"is_active"`
}

// ExpiringLicenseRow is one row of the expiring-licenses report
type ExpiringLicenseRow struct {
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	LicenseKey string     `json:"license_key"`
	ExpiryDate *time.Time `json:"expiry_date"`
}
