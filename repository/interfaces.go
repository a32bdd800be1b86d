// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"

	"github.com/hologize/kagiban/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

// ErrDuplicateKey is returned by Save when a store unique constraint is
// violated. Callers generating license keys treat it as a normal retryable
// condition, not a fatal one.
var ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// AdminRepository defines operations for admin accounts
type AdminRepository interface {
	Repository[models.Admin, models.AdminFilter]
	ByEmail(ctx context.Context, email string) (*models.Admin, error)
	ListWithLicense(ctx context.Context) ([]*models.AdminWithLicense, error)
}

// LicenseRepository defines operations for licenses
type LicenseRepository interface {
	Repository[models.License, models.LicenseFilter]
	ByKey(ctx context.Context, key string) (*models.License, error)
	ActiveByAdminID(ctx context.Context, adminID uint) (*models.License, error)
	ActiveByAssignedEmail(ctx context.Context, email string) (*models.License, error)
	ListExpiringWithin(ctx context.Context, days int) ([]*models.LicenseWithAdmin, error)
}

// NotificationRepository defines operations for the notification side table.
// The core only ever writes to it.
type NotificationRepository interface {
	Save(ctx context.Context, notification *models.Notification) error
}

// TxManager runs a function inside a serializable database transaction.
// Business flows depend on this interface so the check-then-write sequences
// in Activate and CreateAdminWithLicense stay atomic regardless of which
// store backend is wired in.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
