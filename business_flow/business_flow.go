// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/hologize/kagiban/app/dto"
	"github.com/hologize/kagiban/models"
	"github.com/hologize/kagiban/utils"
)

const RequestIDKey = "X-Request-ID"

// Caller identifies the authenticated admin performing an operation.
// It is resolved once at the middleware boundary from the access token
// and passed into every flow call.
type Caller struct {
	AdminID uint   `json:"admin_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

// IsSuperadmin reports whether the caller holds the superadmin role.
func (c *Caller) IsSuperadmin() bool {
	return c != nil && c.Role == models.RoleSuperadmin
}

// RequireSuperadmin returns an error unless the caller is an authenticated superadmin.
func RequireSuperadmin(caller *Caller) error {
	if caller == nil {
		return ErrAuthenticationRequired
	}
	if !caller.IsSuperadmin() {
		return ErrSuperadminRequired
	}
	return nil
}

// ToAdminDTO converts an admin model to its API representation.
func ToAdminDTO(admin *models.Admin) *dto.AdminDTO {
	if admin == nil {
		return nil
	}
	out := &dto.AdminDTO{
		ID:        admin.ID,
		UUID:      admin.UUID.String(),
		Email:     admin.Email,
		Name:      admin.Name,
		Role:      admin.Role,
		IsActive:  utils.IsTrue(admin.IsActive),
		CreatedAt: admin.CreatedAt.Format(time.RFC3339),
	}
	if admin.LastLoginAt != nil {
		out.LastLoginAt = admin.LastLoginAt.Format(time.RFC3339)
	}
	return out
}

// ToLicenseDTO converts a license model to its API representation.
func ToLicenseDTO(license *models.License) *dto.LicenseDTO {
	if license == nil {
		return nil
	}
	return &dto.LicenseDTO{
		ID:            license.ID,
		LicenseKey:    license.LicenseKey,
		AdminID:       license.AdminID,
		AssignedEmail: license.AssignedEmail,
		Status:        license.Status,
		IsActive:      utils.IsTrue(license.IsActive),
		ExpiryDate:    license.ExpiryDate,
		CreatedAt:     license.CreatedAt.Format(time.RFC3339),
	}
}
