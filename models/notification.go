// Package models contains domain entities and business models for the license administration system
package models

import (
	"time"
)

// Notification types emitted on lifecycle transitions
const (
	NotificationLicenseActivated = "license_activated"
	NotificationLicenseToggled   = "license_toggled"
	NotificationLicenseRenewed   = "license_renewed"
	NotificationAdminCreated     = "admin_created"
	NotificationAdminToggled     = "admin_toggled"
)

// Notification is a write-only side table from the core's perspective.
// Rows are produced fire-and-forget on lifecycle transitions.
type Notification struct {
	ID               uint      `gorm:"primaryKey" db:"id" json:"id"`
	Type             string    `gorm:"size:64;not null;index:idx_notifications_type" db:"type" json:"type"`
	Message          string    `gorm:"type:text;not null" db:"message" json:"message"`
	TargetRole       string    `gorm:"size:32;not null" db:"target_role" json:"target_role"`
	TargetAdminID    *uint     `db:"target_admin_id" json:"target_admin_id"`
	RelatedLicenseID *uint     `db:"related_license_id" json:"related_license_id"`
	CreatedAt        time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" db:"created_at" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// NotificationFilter represents filter criteria for notification queries
type NotificationFilter struct {
	Type          *string
	TargetRole    *string
	TargetAdminID *uint
}
