// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/hologize/kagiban/app/dto"
	"github.com/hologize/kagiban/app/services"
	"github.com/hologize/kagiban/repository"
	"github.com/hologize/kagiban/utils"
)

// AuthFlow handles admin authentication
type AuthFlow interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.SessionDTO, error)
}

// AuthFlowImpl implements the authentication business flow
type AuthFlowImpl struct {
	adminRepo    repository.AdminRepository
	tokenService services.TokenService
}

// NewAuthFlow creates a new auth flow instance
func NewAuthFlow(adminRepo repository.AdminRepository, tokenService services.TokenService) AuthFlow {
	return &AuthFlowImpl{
		adminRepo:    adminRepo,
		tokenService: tokenService,
	}
}

// Login authenticates an admin by email and password and issues a token pair.
// Failed lookups and failed password checks report the same error so the
// response does not leak which emails exist.
func (f *AuthFlowImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	admin, err := f.adminRepo.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LOOKUP_FAILED", "Failed to look up admin", err)
	}
	if admin == nil {
		return nil, ErrIncorrectPassword
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}

	if !utils.IsTrue(admin.IsActive) {
		return nil, ErrAdminInactive
	}

	accessToken, refreshToken, err := f.tokenService.GenerateTokens(admin.ID, admin.Email, admin.Role)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to issue session tokens", err)
	}

	admin.LastLoginAt = utils.UTCNowPtr()
	admin.UpdatedAt = utils.UTCNow()
	if err := f.adminRepo.Update(ctx, admin); err != nil {
		return nil, NewBusinessError("ADMIN_UPDATE_FAILED", "Failed to record login", err)
	}

	return &dto.LoginResponse{
		Admin: *ToAdminDTO(admin),
		Session: dto.SessionDTO{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int(utils.AccessTokenTTL.Seconds()),
		},
	}, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (f *AuthFlowImpl) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.SessionDTO, error) {
	accessToken, refreshToken, err := f.tokenService.RefreshToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Failed to refresh session", err)
	}

	return &dto.SessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(utils.AccessTokenTTL.Seconds()),
	}, nil
}
