// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/hologize/kagiban/models"
	"gorm.io/gorm"
)

// NotificationRepositoryImpl implements NotificationRepository interface
type NotificationRepositoryImpl struct {
	*BaseRepository[models.Notification, models.NotificationFilter]
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &NotificationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Notification, models.NotificationFilter](db),
	}
}

// Save inserts a notification row
func (r *NotificationRepositoryImpl) Save(ctx context.Context, notification *models.Notification) error {
	return r.BaseRepository.Save(ctx, notification)
}
