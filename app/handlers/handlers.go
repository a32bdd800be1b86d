// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"fmt"

	businessflow "github.com/hologize/kagiban/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// CallerLocalKey is where the auth middleware stores the resolved caller.
const CallerLocalKey = "caller"

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "datetime":
		return err.Field() + " must be a date in format " + err.Param()
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

// callerFromCtx extracts the authenticated caller placed in locals by the
// auth middleware. Returns nil on unauthenticated routes.
func callerFromCtx(c fiber.Ctx) *businessflow.Caller {
	caller, _ := c.Locals(CallerLocalKey).(*businessflow.Caller)
	return caller
}
