package rawsql

import (
	"context"

	"github.com/hologize/kagiban/models"
	"github.com/hologize/kagiban/repository"
	"github.com/jmoiron/sqlx"
)

// NotificationStore implements repository.NotificationRepository with raw SQL
type NotificationStore struct {
	db *sqlx.DB
}

// NewNotificationStore creates a new raw SQL notification store
func NewNotificationStore(db *sqlx.DB) repository.NotificationRepository {
	return &NotificationStore{db: db}
}

// Save inserts a notification row
func (s *NotificationStore) Save(ctx context.Context, notification *models.Notification) error {
	q := getQuerier(ctx, s.db)

	err := sqlx.GetContext(ctx, q, notification, `
		INSERT INTO notifications (type, message, target_role, target_admin_id, related_license_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, type, message, target_role, target_admin_id, related_license_id, created_at`,
		notification.Type, notification.Message, notification.TargetRole,
		notification.TargetAdminID, notification.RelatedLicenseID)
	if err != nil {
		return wrapSaveError(err)
	}

	return nil
}
