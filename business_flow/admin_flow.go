// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"
	"github.com/hologize/kagiban/app/dto"
	"github.com/hologize/kagiban/app/services"
	"github.com/hologize/kagiban/keygen"
	"github.com/hologize/kagiban/models"
	"github.com/hologize/kagiban/repository"
	"github.com/hologize/kagiban/utils"
)

// AdminManagementFlow handles superadmin operations on admin accounts
type AdminManagementFlow interface {
	CreateAdminWithLicense(ctx context.Context, caller *Caller, req *dto.CreateAdminRequest) (*dto.CreateAdminResponse, error)
	ListAdmins(ctx context.Context, caller *Caller) ([]dto.AdminLicenseRow, error)
	ToggleAdminActive(ctx context.Context, caller *Caller, adminID uint) (*dto.ToggleAdminResponse, error)
	ListExpiringSoon(ctx context.Context, caller *Caller) ([]dto.ExpiringLicenseRow, error)
}

// AdminManagementFlowImpl implements the admin management business flow
type AdminManagementFlowImpl struct {
	adminRepo       repository.AdminRepository
	licenseRepo     repository.LicenseRepository
	keyGenerator    *keygen.Generator
	notificationSvc services.NotificationService
	txManager       repository.TxManager
}

// NewAdminManagementFlow creates a new admin management flow instance
func NewAdminManagementFlow(
	adminRepo repository.AdminRepository,
	licenseRepo repository.LicenseRepository,
	keyGenerator *keygen.Generator,
	notificationSvc services.NotificationService,
	txManager repository.TxManager,
) AdminManagementFlow {
	return &AdminManagementFlowImpl{
		adminRepo:       adminRepo,
		licenseRepo:     licenseRepo,
		keyGenerator:    keyGenerator,
		notificationSvc: notificationSvc,
		txManager:       txManager,
	}
}

// CreateAdminWithLicense creates an admin account together with an active
// license bound to it, as one atomic unit. A failure at any step leaves no
// orphan admin behind.
func (f *AdminManagementFlowImpl) CreateAdminWithLicense(ctx context.Context, caller *Caller, req *dto.CreateAdminRequest) (*dto.CreateAdminResponse, error) {
	if err := RequireSuperadmin(caller); err != nil {
		return nil, err
	}

	expiry, err := resolveLicenseExpiry(req)
	if err != nil {
		return nil, NewBusinessError("INVALID_EXPIRY_DATE", "Expiry date must be YYYY-MM-DD", ErrInvalidExpiryDate)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), utils.BcryptCost)
	if err != nil {
		return nil, NewBusinessError("PASSWORD_HASH_FAILED", "Failed to hash password", err)
	}

	var admin *models.Admin
	var license *models.License

	err = f.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := f.adminRepo.ByEmail(txCtx, req.Email)
		if err != nil {
			return NewBusinessError("ADMIN_LOOKUP_FAILED", "Failed to look up admin", err)
		}
		if existing != nil {
			return ErrEmailAlreadyExists
		}

		admin = &models.Admin{
			UUID:         uuid.New(),
			Email:        req.Email,
			Name:         req.Name,
			PasswordHash: string(passwordHash),
			Role:         models.RoleAdmin,
			IsActive:     utils.ToPtr(true),
		}
		if err := f.adminRepo.Save(txCtx, admin); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return ErrEmailAlreadyExists
			}
			return NewBusinessError("ADMIN_SAVE_FAILED", "Failed to create admin", err)
		}

		license, err = issueLicense(txCtx, f.licenseRepo, f.keyGenerator, expiry)
		if err != nil {
			return err
		}

		license.AdminID = &admin.ID
		license.AssignedEmail = utils.ToPtr(admin.Email)
		license.Status = models.LicenseStatusActive
		license.UpdatedAt = utils.UTCNow()
		if err := f.licenseRepo.Update(txCtx, license); err != nil {
			return NewBusinessError("LICENSE_UPDATE_FAILED", "Failed to bind license", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	f.notificationSvc.Notify(
		models.NotificationAdminCreated,
		fmt.Sprintf("Admin %s created with license %s", admin.Email, license.LicenseKey),
		models.RoleSuperadmin,
		nil,
		&license.ID,
	)

	return &dto.CreateAdminResponse{
		Admin:   *ToAdminDTO(admin),
		License: *ToLicenseDTO(license),
	}, nil
}

// resolveLicenseExpiry picks the license expiry for a new admin: an explicit
// date wins, then startDate + licensePeriodDays, otherwise no expiry at all.
func resolveLicenseExpiry(req *dto.CreateAdminRequest) (*time.Time, error) {
	if req.ExpiryDate != "" {
		return utils.ParseExpiryDate(req.ExpiryDate)
	}
	if req.LicensePeriodDays == nil {
		return nil, nil
	}

	start := time.Now()
	if req.StartDate != "" {
		parsed, err := time.ParseInLocation(utils.ExpiryDateLayout, req.StartDate, time.Local)
		if err != nil {
			return nil, err
		}
		start = parsed
	}

	expiry := utils.EndOfDay(start.AddDate(0, 0, *req.LicensePeriodDays))
	return &expiry, nil
}

// ListAdmins returns every admin account joined with its license, newest first.
func (f *AdminManagementFlowImpl) ListAdmins(ctx context.Context, caller *Caller) ([]dto.AdminLicenseRow, error) {
	if err := RequireSuperadmin(caller); err != nil {
		return nil, err
	}

	rows, err := f.adminRepo.ListWithLicense(ctx)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LIST_FAILED", "Failed to list admins", err)
	}

	out := make([]dto.AdminLicenseRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.AdminLicenseRow{
			ID:         row.ID,
			Name:       row.Name,
			Email:      row.Email,
			IsActive:   row.IsActive,
			LicenseKey: row.LicenseKey,
			Status:     row.Status,
			ExpiryDate: row.ExpiryDate,
		})
	}
	return out, nil
}

// ToggleAdminActive flips the active flag on an admin account. Superadmin
// accounts are not reachable through this operation.
func (f *AdminManagementFlowImpl) ToggleAdminActive(ctx context.Context, caller *Caller, adminID uint) (*dto.ToggleAdminResponse, error) {
	if err := RequireSuperadmin(caller); err != nil {
		return nil, err
	}

	admin, err := f.adminRepo.ByID(ctx, adminID)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LOOKUP_FAILED", "Failed to look up admin", err)
	}
	if admin == nil || admin.Role != models.RoleAdmin {
		return nil, ErrAdminNotFound
	}

	admin.IsActive = utils.ToPtr(!utils.IsTrue(admin.IsActive))
	admin.UpdatedAt = utils.UTCNow()
	if err := f.adminRepo.Update(ctx, admin); err != nil {
		return nil, NewBusinessError("ADMIN_UPDATE_FAILED", "Failed to toggle admin", err)
	}

	f.notificationSvc.Notify(
		models.NotificationAdminToggled,
		fmt.Sprintf("Admin %s is now active=%t", admin.Email, utils.IsTrue(admin.IsActive)),
		models.RoleAdmin,
		&admin.ID,
		nil,
	)

	return &dto.ToggleAdminResponse{ID: admin.ID, IsActive: utils.IsTrue(admin.IsActive)}, nil
}

// ListExpiringSoon reports active licenses whose expiry falls within the
// warning window, soonest first.
func (f *AdminManagementFlowImpl) ListExpiringSoon(ctx context.Context, caller *Caller) ([]dto.ExpiringLicenseRow, error) {
	if err := RequireSuperadmin(caller); err != nil {
		return nil, err
	}

	rows, err := f.licenseRepo.ListExpiringWithin(ctx, utils.ExpiryWarningWindowDays)
	if err != nil {
		return nil, NewBusinessError("LICENSE_LIST_FAILED", "Failed to list expiring licenses", err)
	}

	out := make([]dto.ExpiringLicenseRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.ExpiringLicenseRow{
			Name:       row.Name,
			Email:      row.Email,
			LicenseKey: row.LicenseKey,
			ExpiryDate: row.ExpiryDate,
		})
	}
	return out, nil
}
