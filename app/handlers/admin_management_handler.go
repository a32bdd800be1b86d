// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/hologize/kagiban/app/dto"
	businessflow "github.com/hologize/kagiban/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AdminManagementHandlerInterface defines the contract for admin management handlers
type AdminManagementHandlerInterface interface {
	CreateAdmin(c fiber.Ctx) error
	ListAdmins(c fiber.Ctx) error
	ToggleAdmin(c fiber.Ctx) error
	ListExpiring(c fiber.Ctx) error
}

// AdminManagementHandler handles superadmin operations on admin accounts
type AdminManagementHandler struct {
	adminFlow businessflow.AdminManagementFlow
	validator *validator.Validate
}

// NewAdminManagementHandler creates a new admin management handler
func NewAdminManagementHandler(adminFlow businessflow.AdminManagementFlow) *AdminManagementHandler {
	return &AdminManagementHandler{
		adminFlow: adminFlow,
		validator: validator.New(),
	}
}

func (h *AdminManagementHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AdminManagementHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func (h *AdminManagementHandler) adminErrorResponse(c fiber.Ctx, err error, fallback string) error {
	if businessflow.IsAuthenticationRequired(err) {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}
	if businessflow.IsSuperadminRequired(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Superadmin access required", "SUPERADMIN_REQUIRED", nil)
	}
	if businessflow.IsAdminNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Admin not found", "ADMIN_NOT_FOUND", nil)
	}
	if businessflow.IsEmailAlreadyExists(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "Email already exists", "EMAIL_EXISTS", nil)
	}
	if businessflow.IsInvalidExpiryDate(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Expiry date must be YYYY-MM-DD", "INVALID_EXPIRY_DATE", nil)
	}
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallback, "INTERNAL_ERROR", nil)
}

// CreateAdmin creates an admin account with a bound license
// @Summary Create Admin
// @Description Create an admin account together with an active license (superadmin only)
// @Tags Admins
// @Accept json
// @Produce json
// @Param request body dto.CreateAdminRequest true "Admin account data"
// @Success 201 {object} dto.APIResponse{data=dto.CreateAdminResponse} "Admin created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Email already exists"
// @Router /api/v1/admins [post]
// @Security BearerAuth
func (h *AdminManagementHandler) CreateAdmin(c fiber.Ctx) error {
	var req dto.CreateAdminRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.adminFlow.CreateAdminWithLicense(h.createRequestContext(c, "/api/v1/admins"), callerFromCtx(c), &req)
	if err != nil {
		return h.adminErrorResponse(c, err, "Failed to create admin")
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Admin created", result)
}

// ListAdmins lists all admin accounts with their licenses
// @Summary List Admins
// @Description List admin accounts joined with their licenses (superadmin only)
// @Tags Admins
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.AdminLicenseRow} "Admins"
// @Router /api/v1/admins [get]
// @Security BearerAuth
func (h *AdminManagementHandler) ListAdmins(c fiber.Ctx) error {
	result, err := h.adminFlow.ListAdmins(h.createRequestContext(c, "/api/v1/admins"), callerFromCtx(c))
	if err != nil {
		return h.adminErrorResponse(c, err, "Failed to list admins")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Admins retrieved", result)
}

// ToggleAdmin flips the active flag on an admin account
// @Summary Toggle Admin
// @Description Flip the active flag on an admin account (superadmin only)
// @Tags Admins
// @Produce json
// @Param id path int true "Admin ID"
// @Success 200 {object} dto.APIResponse{data=dto.ToggleAdminResponse} "Admin toggled"
// @Failure 404 {object} dto.APIResponse "Admin not found"
// @Router /api/v1/admins/{id}/toggle [patch]
// @Security BearerAuth
func (h *AdminManagementHandler) ToggleAdmin(c fiber.Ctx) error {
	adminID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid admin ID", "INVALID_ADMIN_ID", nil)
	}

	result, err := h.adminFlow.ToggleAdminActive(h.createRequestContext(c, "/api/v1/admins/:id/toggle"), callerFromCtx(c), uint(adminID))
	if err != nil {
		return h.adminErrorResponse(c, err, "Failed to toggle admin")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Admin toggled", result)
}

// ListExpiring reports active licenses expiring within the warning window
// @Summary List Expiring Licenses
// @Description List active licenses expiring within the next seven days (superadmin only)
// @Tags Licenses
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.ExpiringLicenseRow} "Expiring licenses"
// @Router /api/v1/licenses/expiring [get]
// @Security BearerAuth
func (h *AdminManagementHandler) ListExpiring(c fiber.Ctx) error {
	result, err := h.adminFlow.ListExpiringSoon(h.createRequestContext(c, "/api/v1/licenses/expiring"), callerFromCtx(c))
	if err != nil {
		return h.adminErrorResponse(c, err, "Failed to list expiring licenses")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Expiring licenses retrieved", result)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *AdminManagementHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	ctx = context.WithValue(ctx, "request_id", c.Get(businessflow.RequestIDKey))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup

	return ctx
}
