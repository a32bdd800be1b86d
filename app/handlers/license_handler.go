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

// LicenseHandlerInterface defines the contract for license lifecycle handlers
type LicenseHandlerInterface interface {
	Generate(c fiber.Ctx) error
	Activate(c fiber.Ctx) error
	Validate(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Toggle(c fiber.Ctx) error
	UpdateExpiry(c fiber.Ctx) error
	Renew(c fiber.Ctx) error
}

// LicenseHandler handles license lifecycle HTTP requests
type LicenseHandler struct {
	licenseFlow businessflow.LicenseFlow
	validator   *validator.Validate
}

// NewLicenseHandler creates a new license handler
func NewLicenseHandler(licenseFlow businessflow.LicenseFlow) *LicenseHandler {
	return &LicenseHandler{
		licenseFlow: licenseFlow,
		validator:   validator.New(),
	}
}

func (h *LicenseHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *LicenseHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// licenseErrorResponse maps shared license business errors to HTTP responses.
func (h *LicenseHandler) licenseErrorResponse(c fiber.Ctx, err error, fallback string) error {
	if businessflow.IsAuthenticationRequired(err) {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}
	if businessflow.IsSuperadminRequired(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Superadmin access required", "SUPERADMIN_REQUIRED", nil)
	}
	if businessflow.IsLicenseNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "License not found", "LICENSE_NOT_FOUND", nil)
	}
	if businessflow.IsInvalidLicenseKey(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "License key format is invalid", "INVALID_LICENSE_KEY", nil)
	}
	if businessflow.IsInvalidExpiryDate(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Expiry date must be YYYY-MM-DD", "INVALID_EXPIRY_DATE", nil)
	}
	if businessflow.IsLicenseAssignedElsewhere(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "License is assigned to another admin", "LICENSE_ASSIGNED_ELSEWHERE", nil)
	}
	if businessflow.IsActiveLicenseExists(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "An active license already exists", "ACTIVE_LICENSE_EXISTS", nil)
	}
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallback, "INTERNAL_ERROR", nil)
}

// Generate handles pool license issuance
// @Summary Generate License
// @Description Issue a new unassigned license key (superadmin only)
// @Tags Licenses
// @Produce json
// @Param expiryDate query string false "Expiry date YYYY-MM-DD"
// @Success 201 {object} dto.APIResponse{data=dto.GenerateLicenseResponse} "License generated"
// @Failure 400 {object} dto.APIResponse "Invalid expiry date"
// @Failure 403 {object} dto.APIResponse "Superadmin access required"
// @Router /api/v1/licenses/generate [post]
// @Security BearerAuth
func (h *LicenseHandler) Generate(c fiber.Ctx) error {
	expiryDate := c.Query("expiryDate")

	result, err := h.licenseFlow.Generate(h.createRequestContext(c, "/api/v1/licenses/generate"), callerFromCtx(c), expiryDate)
	if err != nil {
		return h.licenseErrorResponse(c, err, "Failed to generate license")
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "License generated", result)
}

// Activate handles license activation by the calling admin
// @Summary Activate License
// @Description Bind a license key to the calling admin
// @Tags Licenses
// @Accept json
// @Produce json
// @Param request body dto.ActivateLicenseRequest true "License key"
// @Success 200 {object} dto.APIResponse{data=dto.LicenseDTO} "License activated"
// @Failure 400 {object} dto.APIResponse "Invalid key format"
// @Failure 404 {object} dto.APIResponse "License not found"
// @Failure 409 {object} dto.APIResponse "License unavailable"
// @Router /api/v1/licenses/activate [post]
// @Security BearerAuth
func (h *LicenseHandler) Activate(c fiber.Ctx) error {
	var req dto.ActivateLicenseRequest
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

	result, err := h.licenseFlow.Activate(h.createRequestContext(c, "/api/v1/licenses/activate"), callerFromCtx(c), &req)
	if err != nil {
		return h.licenseErrorResponse(c, err, "Failed to activate license")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "License activated", result)
}

// Validate reports whether the caller holds a valid license
// @Summary Validate License
// @Description Check whether the calling admin currently holds a usable license
// @Tags Licenses
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ValidateLicenseResponse} "Validation result"
// @Router /api/v1/licenses/validate [get]
// @Security BearerAuth
func (h *LicenseHandler) Validate(c fiber.Ctx) error {
	result, err := h.licenseFlow.Validate(h.createRequestContext(c, "/api/v1/licenses/validate"), callerFromCtx(c))
	if err != nil {
		return h.licenseErrorResponse(c, err, "Failed to validate license")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Validation result", result)
}

// List returns all licenses
// @Summary List Licenses
// @Description List every license, newest first
// @Tags Licenses
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.LicenseDTO} "Licenses"
// @Router /api/v1/licenses [get]
// @Security BearerAuth
func (h *LicenseHandler) List(c fiber.Ctx) error {
	result, err := h.licenseFlow.ListAll(h.createRequestContext(c, "/api/v1/licenses"), callerFromCtx(c))
	if err != nil {
		return h.licenseErrorResponse(c, err, "Failed to list licenses")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Licenses retrieved", result)
}

// Toggle flips the suspension switch on a license
// @Summary Toggle License
// @Description Flip the active flag on a license (superadmin only)
// @Tags Licenses
// @Produce json
// @Param id path int true "License ID"
// @Success 200 {object} dto.APIResponse{data=dto.ToggleLicenseResponse} "License toggled"
// @Failure 404 {object} dto.APIResponse "License not found"
// @Router /api/v1/licenses/{id}/toggle [put]
// @Security BearerAuth
func (h *LicenseHandler) Toggle(c fiber.Ctx) error {
	licenseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid license ID", "INVALID_LICENSE_ID", nil)
	}

	result, err := h.licenseFlow.ToggleActive(h.createRequestContext(c, "/api/v1/licenses/:id/toggle"), callerFromCtx(c), uint(licenseID))
	if err != nil {
		return h.licenseErrorResponse(c, err, "Failed to toggle license")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "License toggled", result)
}

// UpdateExpiry sets or clears a license expiry date
// @Summary Update License Expiry
// @Description Set or clear the expiry date on a license (superadmin only)
// @Tags Licenses
// @Accept json
// @Produce json
// @Param id path int true "License ID"
// @Param request body dto.UpdateExpiryRequest true "New expiry date"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateExpiryResponse} "Expiry updated"
// @Failure 400 {object} dto.APIResponse "Invalid expiry date"
// @Failure 404 {object} dto.APIResponse "License not found"
// @Router /api/v1/licenses/{id}/expiry [put]
// @Security BearerAuth
func (h *LicenseHandler) UpdateExpiry(c fiber.Ctx) error {
	licenseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid license ID", "INVALID_LICENSE_ID", nil)
	}

	var req dto.UpdateExpiryRequest
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

	result, err := h.licenseFlow.UpdateExpiry(h.createRequestContext(c, "/api/v1/licenses/:id/expiry"), callerFromCtx(c), uint(licenseID), &req)
	if err != nil {
		return h.licenseErrorResponse(c, err, "Failed to update expiry")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Expiry updated", result)
}

// Renew extends a license to a new expiry date
// @Summary Renew License
// @Description Move a license expiry forward (superadmin only)
// @Tags Licenses
// @Accept json
// @Produce json
// @Param request body dto.RenewLicenseRequest true "License ID and new expiry"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateExpiryResponse} "License renewed"
// @Failure 400 {object} dto.APIResponse "Invalid expiry date"
// @Failure 404 {object} dto.APIResponse "License not found"
// @Router /api/v1/licenses/renew [post]
// @Security BearerAuth
func (h *LicenseHandler) Renew(c fiber.Ctx) error {
	var req dto.RenewLicenseRequest
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

	result, err := h.licenseFlow.Renew(h.createRequestContext(c, "/api/v1/licenses/renew"), callerFromCtx(c), &req)
	if err != nil {
		return h.licenseErrorResponse(c, err, "Failed to renew license")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "License renewed", result)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *LicenseHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	ctx = context.WithValue(ctx, "request_id", c.Get(businessflow.RequestIDKey))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup

	return ctx
}
