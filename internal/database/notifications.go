package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"voterdesk/internal/models"
)

// SaveNotification persists a fan-out entry so operators who were
// offline at publish time can sync it on their next connect.
func (d *Database) SaveNotification(ctx context.Context, n *models.Notification) error {
	var meta interface{}
	if len(n.Meta) > 0 {
		raw, err := json.Marshal(n.Meta)
		if err != nil {
			return fmt.Errorf("failed to marshal notification meta: %w", err)
		}
		meta = string(raw)
	}

	query := `
		INSERT INTO notifications (notification_id, title, body, target, meta, is_read)
		VALUES (?, ?, ?, ?, ?, 0)
	`

	_, err := d.db.ExecContext(ctx, query, n.NotificationID, n.Title, n.Body, n.Target, meta)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	return nil
}

// UnreadNotifications returns the pending entries for one target group,
// oldest first, for the initial sync frame on connect.
func (d *Database) UnreadNotifications(ctx context.Context, target string) ([]*models.Notification, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT notification_id, title, body, target, meta, is_read, created_at
		FROM notifications
		WHERE target = ? AND is_read = 0
		ORDER BY created_at ASC
	`, target)
	if err != nil {
		return nil, fmt.Errorf("failed to query unread notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var (
			n    models.Notification
			meta sql.NullString
		)
		if err := rows.Scan(&n.NotificationID, &n.Title, &n.Body, &n.Target, &meta, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &n.Meta); err != nil {
				return nil, fmt.Errorf("failed to unmarshal notification meta: %w", err)
			}
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return notifications, nil
}

// MarkNotificationRead flips a single entry. Unknown ids are a no-op so
// duplicate acks from reconnecting clients stay harmless.
func (d *Database) MarkNotificationRead(ctx context.Context, notificationID string) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE notification_id = ?`, notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// CleanupOldNotifications removes entries older than the retention period
// regardless of read state.
func (d *Database) CleanupOldNotifications(retentionDays int) error {
	query := `
		DELETE FROM notifications
		WHERE created_at < datetime('now', '-' || ? || ' days')
	`

	_, err := d.db.Exec(query, retentionDays)
	if err != nil {
		return fmt.Errorf("failed to cleanup old notifications: %w", err)
	}

	return nil
}
