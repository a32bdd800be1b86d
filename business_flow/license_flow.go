// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hologize/kagiban/app/dto"
	"github.com/hologize/kagiban/app/services"
	"github.com/hologize/kagiban/keygen"
	"github.com/hologize/kagiban/models"
	"github.com/hologize/kagiban/repository"
	"github.com/hologize/kagiban/utils"
)

// LicenseFlow handles the license lifecycle business logic
type LicenseFlow interface {
	Generate(ctx context.Context, caller *Caller, expiryDate string) (*dto.GenerateLicenseResponse, error)
	Activate(ctx context.Context, caller *Caller, req *dto.ActivateLicenseRequest) (*dto.LicenseDTO, error)
	Validate(ctx context.Context, caller *Caller) (*dto.ValidateLicenseResponse, error)
	ListAll(ctx context.Context, caller *Caller) ([]dto.LicenseDTO, error)
	ToggleActive(ctx context.Context, caller *Caller, licenseID uint) (*dto.ToggleLicenseResponse, error)
	UpdateExpiry(ctx context.Context, caller *Caller, licenseID uint, req *dto.UpdateExpiryRequest) (*dto.UpdateExpiryResponse, error)
	Renew(ctx context.Context, caller *Caller, req *dto.RenewLicenseRequest) (*dto.UpdateExpiryResponse, error)
}

// LicenseFlowImpl implements the license lifecycle business flow
type LicenseFlowImpl struct {
	licenseRepo     repository.LicenseRepository
	keyGenerator    *keygen.Generator
	notificationSvc services.NotificationService
	txManager       repository.TxManager
}

// NewLicenseFlow creates a new license flow instance
func NewLicenseFlow(
	licenseRepo repository.LicenseRepository,
	keyGenerator *keygen.Generator,
	notificationSvc services.NotificationService,
	txManager repository.TxManager,
) LicenseFlow {
	return &LicenseFlowImpl{
		licenseRepo:     licenseRepo,
		keyGenerator:    keyGenerator,
		notificationSvc: notificationSvc,
		txManager:       txManager,
	}
}

// Generate issues a new unassigned pool license. The key is regenerated on
// unique-constraint collisions, up to a bounded number of attempts.
func (f *LicenseFlowImpl) Generate(ctx context.Context, caller *Caller, expiryDate string) (*dto.GenerateLicenseResponse, error) {
	if err := RequireSuperadmin(caller); err != nil {
		return nil, err
	}

	expiry, err := utils.ParseExpiryDate(expiryDate)
	if err != nil {
		return nil, NewBusinessError("INVALID_EXPIRY_DATE", "Expiry date must be YYYY-MM-DD", ErrInvalidExpiryDate)
	}

	license, err := issueLicense(ctx, f.licenseRepo, f.keyGenerator, expiry)
	if err != nil {
		return nil, err
	}

	return &dto.GenerateLicenseResponse{
		LicenseKey: license.LicenseKey,
		ExpiryDate: license.ExpiryDate,
	}, nil
}

// issueLicense creates an unused license row, retrying the key on duplicate
// collisions. It is shared by Generate and by the compound admin creation.
func issueLicense(ctx context.Context, licenseRepo repository.LicenseRepository, gen *keygen.Generator, expiry *time.Time) (*models.License, error) {
	for attempt := 0; attempt < utils.KeyGenerationAttempts; attempt++ {
		key, err := gen.Generate()
		if err != nil {
			return nil, NewBusinessError("KEY_GENERATION_FAILED", "Failed to generate license key", err)
		}

		license := &models.License{
			LicenseKey: key,
			Status:     models.LicenseStatusUnused,
			IsActive:   utils.ToPtr(true),
			ExpiryDate: expiry,
		}

		err = licenseRepo.Save(ctx, license)
		if err == nil {
			return license, nil
		}
		if errors.Is(err, repository.ErrDuplicateKey) {
			continue
		}
		return nil, NewBusinessError("LICENSE_SAVE_FAILED", "Failed to save license", err)
	}

	return nil, NewBusinessError("KEY_GENERATION_EXHAUSTED", "Could not generate a unique license key", ErrKeyGenerationExhausted)
}

// Activate binds a pool license to the calling admin. The lookup and the
// one-active-license check run inside a serializable transaction so two
// concurrent activations of the same key cannot both succeed.
func (f *LicenseFlowImpl) Activate(ctx context.Context, caller *Caller, req *dto.ActivateLicenseRequest) (*dto.LicenseDTO, error) {
	if caller == nil {
		return nil, ErrAuthenticationRequired
	}

	key := keygen.Normalize(req.LicenseKey)
	if err := keygen.Validate(key); err != nil {
		return nil, NewBusinessError("INVALID_LICENSE_KEY", "License key format is invalid", ErrInvalidLicenseKey)
	}

	var activated *models.License
	err := f.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		license, err := f.licenseRepo.ByKey(txCtx, key)
		if err != nil {
			return NewBusinessError("LICENSE_LOOKUP_FAILED", "Failed to look up license", err)
		}
		if license == nil {
			return ErrLicenseNotFound
		}

		if license.AdminID != nil && *license.AdminID != caller.AdminID {
			return ErrLicenseAssignedElsewhere
		}

		existing, err := f.licenseRepo.ActiveByAdminID(txCtx, caller.AdminID)
		if err != nil {
			return NewBusinessError("LICENSE_LOOKUP_FAILED", "Failed to look up active license", err)
		}
		if existing != nil {
			return ErrActiveLicenseExists
		}

		license.AdminID = &caller.AdminID
		license.AssignedEmail = utils.ToPtr(caller.Email)
		license.Status = models.LicenseStatusActive
		license.IsActive = utils.ToPtr(true)
		license.UpdatedAt = utils.UTCNow()

		if err := f.licenseRepo.Update(txCtx, license); err != nil {
			return NewBusinessError("LICENSE_UPDATE_FAILED", "Failed to activate license", err)
		}

		activated = license
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.notificationSvc.Notify(
		models.NotificationLicenseActivated,
		fmt.Sprintf("License %s activated by %s", activated.LicenseKey, caller.Email),
		models.RoleSuperadmin,
		nil,
		&activated.ID,
	)

	return ToLicenseDTO(activated), nil
}

// Validate checks whether the caller currently holds a usable license.
// Admins are matched by ownership; other callers fall back to assigned email.
// It never mutates state, and an expired license reports as invalid.
func (f *LicenseFlowImpl) Validate(ctx context.Context, caller *Caller) (*dto.ValidateLicenseResponse, error) {
	if caller == nil {
		return nil, ErrAuthenticationRequired
	}

	var license *models.License
	var err error
	if caller.Role == models.RoleAdmin {
		license, err = f.licenseRepo.ActiveByAdminID(ctx, caller.AdminID)
	} else {
		license, err = f.licenseRepo.ActiveByAssignedEmail(ctx, caller.Email)
	}
	if err != nil {
		return nil, NewBusinessError("LICENSE_LOOKUP_FAILED", "Failed to look up license", err)
	}

	if license == nil {
		return &dto.ValidateLicenseResponse{Valid: false, Message: "No active license found"}, nil
	}
	if utils.IsExpiredPtr(license.ExpiryDate) {
		return &dto.ValidateLicenseResponse{Valid: false, Message: "License has expired"}, nil
	}

	return &dto.ValidateLicenseResponse{Valid: true, Message: "License is valid"}, nil
}

// ListAll returns licenses newest first. Superadmins see the whole pool;
// admins only see licenses bound to their own account.
func (f *LicenseFlowImpl) ListAll(ctx context.Context, caller *Caller) ([]dto.LicenseDTO, error) {
	if caller == nil {
		return nil, ErrAuthenticationRequired
	}

	filter := models.LicenseFilter{}
	if !caller.IsSuperadmin() {
		filter.AdminID = &caller.AdminID
	}

	licenses, err := f.licenseRepo.ByFilter(ctx, filter, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LICENSE_LIST_FAILED", "Failed to list licenses", err)
	}

	out := make([]dto.LicenseDTO, 0, len(licenses))
	for _, license := range licenses {
		out = append(out, *ToLicenseDTO(license))
	}
	return out, nil
}

// ToggleActive flips the suspension switch on a license. Status is untouched:
// a suspended license keeps its lifecycle stage and resumes it when re-enabled.
func (f *LicenseFlowImpl) ToggleActive(ctx context.Context, caller *Caller, licenseID uint) (*dto.ToggleLicenseResponse, error) {
	if err := RequireSuperadmin(caller); err != nil {
		return nil, err
	}

	license, err := f.licenseRepo.ByID(ctx, licenseID)
	if err != nil {
		return nil, NewBusinessError("LICENSE_LOOKUP_FAILED", "Failed to look up license", err)
	}
	if license == nil {
		return nil, ErrLicenseNotFound
	}

	license.IsActive = utils.ToPtr(!utils.IsTrue(license.IsActive))
	license.UpdatedAt = utils.UTCNow()
	if err := f.licenseRepo.Update(ctx, license); err != nil {
		return nil, NewBusinessError("LICENSE_UPDATE_FAILED", "Failed to toggle license", err)
	}

	f.notificationSvc.Notify(
		models.NotificationLicenseToggled,
		fmt.Sprintf("License %s is now active=%t", license.LicenseKey, utils.IsTrue(license.IsActive)),
		models.RoleAdmin,
		license.AdminID,
		&license.ID,
	)

	return &dto.ToggleLicenseResponse{ID: license.ID, IsActive: utils.IsTrue(license.IsActive)}, nil
}

// UpdateExpiry sets or clears a license's expiry date. An absent date means
// the license never expires.
func (f *LicenseFlowImpl) UpdateExpiry(ctx context.Context, caller *Caller, licenseID uint, req *dto.UpdateExpiryRequest) (*dto.UpdateExpiryResponse, error) {
	if err := RequireSuperadmin(caller); err != nil {
		return nil, err
	}

	expiry, err := utils.ParseExpiryDate(req.ExpiryDate)
	if err != nil {
		return nil, NewBusinessError("INVALID_EXPIRY_DATE", "Expiry date must be YYYY-MM-DD", ErrInvalidExpiryDate)
	}

	license, err := f.licenseRepo.ByID(ctx, licenseID)
	if err != nil {
		return nil, NewBusinessError("LICENSE_LOOKUP_FAILED", "Failed to look up license", err)
	}
	if license == nil {
		return nil, ErrLicenseNotFound
	}

	license.ExpiryDate = expiry
	license.UpdatedAt = utils.UTCNow()
	if err := f.licenseRepo.Update(ctx, license); err != nil {
		return nil, NewBusinessError("LICENSE_UPDATE_FAILED", "Failed to update expiry", err)
	}

	return &dto.UpdateExpiryResponse{ID: license.ID, ExpiryDate: license.ExpiryDate}, nil
}

// Renew extends a license to a new expiry date. Renewal is a plain expiry
// move: assignment and suspension state are untouched, and renewing an
// already-expired license makes it usable again.
func (f *LicenseFlowImpl) Renew(ctx context.Context, caller *Caller, req *dto.RenewLicenseRequest) (*dto.UpdateExpiryResponse, error) {
	if err := RequireSuperadmin(caller); err != nil {
		return nil, err
	}

	expiry, err := utils.ParseExpiryDate(req.NewExpiryDate)
	if err != nil || expiry == nil {
		return nil, NewBusinessError("INVALID_EXPIRY_DATE", "New expiry date must be YYYY-MM-DD", ErrInvalidExpiryDate)
	}

	license, err := f.licenseRepo.ByID(ctx, req.LicenseID)
	if err != nil {
		return nil, NewBusinessError("LICENSE_LOOKUP_FAILED", "Failed to look up license", err)
	}
	if license == nil {
		return nil, ErrLicenseNotFound
	}

	license.ExpiryDate = expiry
	license.UpdatedAt = utils.UTCNow()
	if err := f.licenseRepo.Update(ctx, license); err != nil {
		return nil, NewBusinessError("LICENSE_UPDATE_FAILED", "Failed to renew license", err)
	}

	f.notificationSvc.Notify(
		models.NotificationLicenseRenewed,
		fmt.Sprintf("License %s renewed until %s", license.LicenseKey, expiry.Format(utils.ExpiryDateLayout)),
		models.RoleAdmin,
		license.AdminID,
		&license.ID,
	)

	return &dto.UpdateExpiryResponse{ID: license.ID, ExpiryDate: license.ExpiryDate}, nil
}
