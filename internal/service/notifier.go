package service

import (
	"context"

	"voterdesk/internal/models"
)

// Notifier is the fan-out surface: persist the notification and push it
// to every connected session in the target group.
type Notifier interface {
	Publish(ctx context.Context, n *models.Notification) error
}

// noopNotifier discards notifications; used where fan-out is not wired.
type noopNotifier struct{}

func (noopNotifier) Publish(ctx context.Context, n *models.Notification) error { return nil }

func NewNoopNotifier() Notifier { return noopNotifier{} }

// notificationTarget picks the operator group that owns the
// conversation, falling back to the admins broadcast group when
// ownership is unknown.
func notificationTarget(ownerOperatorID string) string {
	if ownerOperatorID != "" {
		return ownerOperatorID
	}
	return models.NotificationTargetAdmins
}
