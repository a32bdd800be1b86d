package dto

import "time"

// LicenseDTO is the wire representation of a license record
type LicenseDTO struct {
	ID            uint       `json:"id"`
	LicenseKey    string     `json:"license_key"`
	AdminID       *uint      `json:"admin_id"`
	AssignedEmail *string    `json:"assigned_email"`
	Status        string     `json:"status"`
	IsActive      bool       `json:"is_active"`
	ExpiryDate    *time.Time `json:"expiry_date"`
	CreatedAt     string     `json:"created_at"`
}

// ActivateLicenseRequest binds the license activation payload
type ActivateLicenseRequest struct {
	LicenseKey string `json:"licenseKey" validate:"required"`
}

// ValidateLicenseResponse reports whether the caller holds a valid license
type ValidateLicenseResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// GenerateLicenseResponse returns the freshly issued pool key
type GenerateLicenseResponse struct {
	LicenseKey string     `json:"license_key"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

// ToggleLicenseResponse reports the suspension switch after a flip
type ToggleLicenseResponse struct {
	ID       uint `json:"id"`
	IsActive bool `json:"is_active"`
}

// UpdateExpiryRequest binds the expiry update payload; an absent date clears
// the expiry so the license never expires.
type UpdateExpiryRequest struct {
	ExpiryDate string `json:"expiryDate" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateExpiryResponse returns the stored expiry after an update
type UpdateExpiryResponse struct {
	ID         uint       `json:"id"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

// RenewLicenseRequest binds the license renewal payload
type RenewLicenseRequest struct {
	LicenseID     uint   `json:"license_id" validate:"required"`
	NewExpiryDate string `json:"new_expiry_date" validate:"required,datetime=2006-01-02"`
}
