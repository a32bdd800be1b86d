// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"log"
	"time"

	"github.com/hologize/kagiban/models"
	"github.com/hologize/kagiban/repository"
)

// NotificationService records lifecycle events on the notification side
// table. Delivery is fire-and-forget and at-most-once: failures are logged,
// never retried, and never propagate to or block the calling operation.
type NotificationService interface {
	Notify(typ, message, targetRole string, targetAdminID, relatedLicenseID *uint)
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	notificationRepo repository.NotificationRepository
	writeTimeout     time.Duration
}

// NewNotificationService creates a new notification service
func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &NotificationServiceImpl{
		notificationRepo: notificationRepo,
		writeTimeout:     5 * time.Second,
	}
}

// Notify writes the notification row in a background goroutine. The caller's
// transaction is deliberately not joined: a notification must not roll back
// or fail the operation that produced it.
func (s *NotificationServiceImpl) Notify(typ, message, targetRole string, targetAdminID, relatedLicenseID *uint) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Notification write panicked: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		defer cancel()

		notification := &models.Notification{
			Type:             typ,
			Message:          message,
			TargetRole:       targetRole,
			TargetAdminID:    targetAdminID,
			RelatedLicenseID: relatedLicenseID,
		}

		if err := s.notificationRepo.Save(ctx, notification); err != nil {
			log.Printf("Notification creation error: %v", err)
		}
	}()
}
