// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/hologize/kagiban/models"
	"github.com/hologize/kagiban/utils"
	"gorm.io/gorm"
)

// LicenseRepositoryImpl implements LicenseRepository interface
type LicenseRepositoryImpl struct {
	*BaseRepository[models.License, models.LicenseFilter]
}

// NewLicenseRepository creates a new license repository
func NewLicenseRepository(db *gorm.DB) LicenseRepository {
	return &LicenseRepositoryImpl{
		BaseRepository: NewBaseRepository[models.License, models.LicenseFilter](db),
	}
}

// ByKey retrieves a license by its key
func (r *LicenseRepositoryImpl) ByKey(ctx context.Context, key string) (*models.License, error) {
	filter := models.LicenseFilter{LicenseKey: &key}
	licenses, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(licenses) == 0 {
		return nil, nil
	}

	return licenses[0], nil
}

// ActiveByAdminID retrieves the admin's license that is both unsuspended and
// in the active lifecycle stage. The activation flow keeps at most one such
// row per admin.
func (r *LicenseRepositoryImpl) ActiveByAdminID(ctx context.Context, adminID uint) (*models.License, error) {
	filter := models.LicenseFilter{
		AdminID:  &adminID,
		IsActive: utils.ToPtr(true),
		Status:   utils.ToPtr(models.LicenseStatusActive),
	}
	licenses, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(licenses) == 0 {
		return nil, nil
	}

	return licenses[0], nil
}

// ActiveByAssignedEmail retrieves an active license by its assigned email,
// used for callers without the admin role.
func (r *LicenseRepositoryImpl) ActiveByAssignedEmail(ctx context.Context, email string) (*models.License, error) {
	filter := models.LicenseFilter{
		AssignedEmail: &email,
		IsActive:      utils.ToPtr(true),
		Status:        utils.ToPtr(models.LicenseStatusActive),
	}
	licenses, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(licenses) == 0 {
		return nil, nil
	}

	return licenses[0], nil
}

// ListExpiringWithin returns unsuspended licenses whose expiry falls in the
// inclusive window [start of today, end of today+days], joined with the
// owning admin for display.
func (r *LicenseRepositoryImpl) ListExpiringWithin(ctx context.Context, days int) ([]*models.LicenseWithAdmin, error) {
	db := r.getDB(ctx)

	now := time.Now().Local()
	windowStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	windowEnd := utils.EndOfDay(windowStart.AddDate(0, 0, days))

	var rows []*models.LicenseWithAdmin
	err := db.Table("licenses AS l").
		Select("a.name, a.email, l.license_key, l.expiry_date").
		Joins("JOIN admins a ON a.id = l.admin_id").
		Where("l.is_active = ?", true).
		Where("l.expiry_date BETWEEN ? AND ?", windowStart, windowEnd).
		Order("l.expiry_date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *LicenseRepositoryImpl) applyFilter(query *gorm.DB, filter models.LicenseFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.LicenseKey != nil {
		query = query.Where("license_key = ?", *filter.LicenseKey)
	}
	if filter.AdminID != nil {
		query = query.Where("admin_id = ?", *filter.AdminID)
	}
	if filter.AssignedEmail != nil {
		query = query.Where("assigned_email = ?", *filter.AssignedEmail)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.ExpiresAfter != nil {
		query = query.Where("expiry_date > ?", *filter.ExpiresAfter)
	}
	if filter.ExpiresBefore != nil {
		query = query.Where("expiry_date < ?", *filter.ExpiresBefore)
	}
	return query
}

// ByFilter retrieves licenses based on filter criteria, most recent first by default
func (r *LicenseRepositoryImpl) ByFilter(ctx context.Context, filter models.LicenseFilter, orderBy string, limit, offset int) ([]*models.License, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.License{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var licenses []*models.License
	err := query.Find(&licenses).Error
	if err != nil {
		return nil, err
	}

	return licenses, nil
}

// Count returns the number of licenses matching the filter
func (r *LicenseRepositoryImpl) Count(ctx context.Context, filter models.LicenseFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.License{})

	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any license matching the filter exists
func (r *LicenseRepositoryImpl) Exists(ctx context.Context, filter models.LicenseFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
