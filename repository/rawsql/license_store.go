package rawsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hologize/kagiban/models"
	"github.com/hologize/kagiban/repository"
	"github.com/jmoiron/sqlx"
)

const licenseColumns = "id, license_key, admin_id, assigned_email, status, is_active, expiry_date, created_at, updated_at"

// LicenseStore implements repository.LicenseRepository with raw parameterized SQL
type LicenseStore struct {
	db *sqlx.DB
}

// NewLicenseStore creates a new raw SQL license store
func NewLicenseStore(db *sqlx.DB) repository.LicenseRepository {
	return &LicenseStore{db: db}
}

// ByID retrieves a license by its ID
func (s *LicenseStore) ByID(ctx context.Context, id uint) (*models.License, error) {
	q := getQuerier(ctx, s.db)

	var license models.License
	err := sqlx.GetContext(ctx, q, &license,
		"SELECT "+licenseColumns+" FROM licenses WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find license by ID %d: %w", id, err)
	}

	return &license, nil
}

// ByKey retrieves a license by its key
func (s *LicenseStore) ByKey(ctx context.Context, key string) (*models.License, error) {
	q := getQuerier(ctx, s.db)

	var license models.License
	err := sqlx.GetContext(ctx, q, &license,
		"SELECT "+licenseColumns+" FROM licenses WHERE license_key = $1", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find license by key: %w", err)
	}

	return &license, nil
}

// ActiveByAdminID retrieves the admin's unsuspended, lifecycle-active license
func (s *LicenseStore) ActiveByAdminID(ctx context.Context, adminID uint) (*models.License, error) {
	q := getQuerier(ctx, s.db)

	var license models.License
	err := sqlx.GetContext(ctx, q, &license,
		"SELECT "+licenseColumns+" FROM licenses WHERE admin_id = $1 AND is_active = TRUE AND status = $2",
		adminID, models.LicenseStatusActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active license for admin %d: %w", adminID, err)
	}

	return &license, nil
}

// ActiveByAssignedEmail retrieves an active license by its assigned email
func (s *LicenseStore) ActiveByAssignedEmail(ctx context.Context, email string) (*models.License, error) {
	q := getQuerier(ctx, s.db)

	var license models.License
	err := sqlx.GetContext(ctx, q, &license,
		"SELECT "+licenseColumns+" FROM licenses WHERE assigned_email = $1 AND is_active = TRUE AND status = $2",
		email, models.LicenseStatusActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active license by email: %w", err)
	}

	return &license, nil
}

// ListExpiringWithin returns unsuspended licenses expiring in the inclusive
// window [today, today+days], joined with the owning admin.
func (s *LicenseStore) ListExpiringWithin(ctx context.Context, days int) ([]*models.LicenseWithAdmin, error) {
	q := getQuerier(ctx, s.db)

	rows := []*models.LicenseWithAdmin{}
	err := sqlx.SelectContext(ctx, q, &rows, `
		SELECT a.name, a.email, l.license_key, l.expiry_date
		FROM licenses l
		JOIN admins a ON a.id = l.admin_id
		WHERE l.is_active = TRUE
		  AND l.expiry_date BETWEEN date_trunc('day', now())
		      AND date_trunc('day', now()) + ($1 || ' days')::interval + interval '23 hours 59 minutes 59 seconds'
		ORDER BY l.expiry_date ASC`,
		days)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring licenses: %w", err)
	}

	return rows, nil
}

// Save inserts a new license row
func (s *LicenseStore) Save(ctx context.Context, license *models.License) error {
	q := getQuerier(ctx, s.db)

	err := sqlx.GetContext(ctx, q, license, `
		INSERT INTO licenses (license_key, admin_id, assigned_email, status, is_active, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+licenseColumns,
		license.LicenseKey, license.AdminID, license.AssignedEmail, license.Status, license.IsActive, license.ExpiryDate)
	if err != nil {
		return wrapSaveError(err)
	}

	return nil
}

// Update persists all mutable fields of an existing license row
func (s *LicenseStore) Update(ctx context.Context, license *models.License) error {
	q := getQuerier(ctx, s.db)

	err := sqlx.GetContext(ctx, q, license, `
		UPDATE licenses
		SET license_key = $2, admin_id = $3, assigned_email = $4, status = $5,
		    is_active = $6, expiry_date = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+licenseColumns,
		license.ID, license.LicenseKey, license.AdminID, license.AssignedEmail, license.Status, license.IsActive, license.ExpiryDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to update license %d: no such row", license.ID)
		}
		return wrapSaveError(err)
	}

	return nil
}

// buildWhere translates the filter struct into a WHERE clause with
// positional parameters.
func (s *LicenseStore) buildWhere(filter models.LicenseFilter) (string, []any) {
	conds := []string{}
	args := []any{}
	add := func(column string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s $%d", column, len(args)))
	}

	if filter.ID != nil {
		add("id =", *filter.ID)
	}
	if filter.LicenseKey != nil {
		add("license_key =", *filter.LicenseKey)
	}
	if filter.AdminID != nil {
		add("admin_id =", *filter.AdminID)
	}
	if filter.AssignedEmail != nil {
		add("assigned_email =", *filter.AssignedEmail)
	}
	if filter.Status != nil {
		add("status =", *filter.Status)
	}
	if filter.IsActive != nil {
		add("is_active =", *filter.IsActive)
	}
	if filter.ExpiresAfter != nil {
		add("expiry_date >", *filter.ExpiresAfter)
	}
	if filter.ExpiresBefore != nil {
		add("expiry_date <", *filter.ExpiresBefore)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ByFilter retrieves licenses based on filter criteria, most recent first by default
func (s *LicenseStore) ByFilter(ctx context.Context, filter models.LicenseFilter, orderBy string, limit, offset int) ([]*models.License, error) {
	q := getQuerier(ctx, s.db)

	where, args := s.buildWhere(filter)
	if orderBy == "" {
		orderBy = "created_at DESC"
	}

	query := "SELECT " + licenseColumns + " FROM licenses" + where + " ORDER BY " + orderBy
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	licenses := []*models.License{}
	if err := sqlx.SelectContext(ctx, q, &licenses, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find licenses by filter: %w", err)
	}

	return licenses, nil
}

// Count returns the number of licenses matching the filter
func (s *LicenseStore) Count(ctx context.Context, filter models.LicenseFilter) (int64, error) {
	q := getQuerier(ctx, s.db)

	where, args := s.buildWhere(filter)

	var count int64
	err := sqlx.GetContext(ctx, q, &count, "SELECT COUNT(*) FROM licenses"+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count licenses: %w", err)
	}

	return count, nil
}

// Exists checks if any license matching the filter exists
func (s *LicenseStore) Exists(ctx context.Context, filter models.LicenseFilter) (bool, error) {
	count, err := s.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
