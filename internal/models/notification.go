package models

import "time"

// NotificationTargetAdmins is the shared broadcast group joined by every
// elevated-role session in addition to its own operator group.
const NotificationTargetAdmins = "admins"

// Notification is the fan-out unit. Target is an operator id,
// NotificationTargetAdmins, or empty (persisted but pushed to no group).
type Notification struct {
	ID             int64                  `json:"-" db:"id"`
	NotificationID string                 `json:"id" db:"notification_id"`
	Title          string                 `json:"title" db:"title"`
	Body           string                 `json:"body" db:"body"`
	Target         string                 `json:"target,omitempty" db:"target"`
	Meta           map[string]interface{} `json:"meta,omitempty"`
	IsRead         bool                   `json:"is_read" db:"is_read"`
	CreatedAt      time.Time              `json:"created_at" db:"created_at"`
}
