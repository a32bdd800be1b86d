// Package businessflow contains the core business logic for the license lifecycle
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Authorization errors
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrSuperadminRequired     = errors.New("superadmin access required")

	// Admin-related errors
	ErrAdminNotFound      = errors.New("admin not found")
	ErrAdminInactive      = errors.New("admin account is inactive")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrEmailAlreadyExists = errors.New("email already exists")

	// License-related errors
	ErrLicenseNotFound          = errors.New("license not found")
	ErrInvalidLicenseKey        = errors.New("invalid license key format")
	ErrLicenseAssignedElsewhere = errors.New("license is assigned to another admin")
	ErrActiveLicenseExists      = errors.New("an active license already exists")
	ErrInvalidExpiryDate        = errors.New("invalid expiry date format")
	ErrMissingRequiredField     = errors.New("required field is missing")
	ErrKeyGenerationExhausted   = errors.New("failed to generate a unique license key")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsAuthenticationRequired(err error) bool {
	return errors.Is(err, ErrAuthenticationRequired)
}

func IsSuperadminRequired(err error) bool {
	return errors.Is(err, ErrSuperadminRequired)
}

func IsAdminNotFound(err error) bool {
	return errors.Is(err, ErrAdminNotFound)
}

func IsAdminInactive(err error) bool {
	return errors.Is(err, ErrAdminInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsLicenseNotFound(err error) bool {
	return errors.Is(err, ErrLicenseNotFound)
}

func IsInvalidLicenseKey(err error) bool {
	return errors.Is(err, ErrInvalidLicenseKey)
}

func IsLicenseAssignedElsewhere(err error) bool {
	return errors.Is(err, ErrLicenseAssignedElsewhere)
}

func IsActiveLicenseExists(err error) bool {
	return errors.Is(err, ErrActiveLicenseExists)
}

func IsInvalidExpiryDate(err error) bool {
	return errors.Is(err, ErrInvalidExpiryDate)
}

func IsMissingRequiredField(err error) bool {
	return errors.Is(err, ErrMissingRequiredField)
}

func IsKeyGenerationExhausted(err error) bool {
	return errors.Is(err, ErrKeyGenerationExhausted)
}
