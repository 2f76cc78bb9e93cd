package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"voterdesk/internal/models"
)

const messageColumns = `id, message_id, conversation_id, sender_kind, operator_id,
	status, content_kind, body, media_id, media_url, media_filename,
	reply_to, sent_at, read_at, created_at, updated_at`

// SaveMessage inserts a ledger row. Outbound rows (including policy or
// provider failures) always go through here; the caller guarantees
// MessageID is set, provider-assigned or local fallback.
func (d *Database) SaveMessage(ctx context.Context, msg *models.Message) error {
	encryptedBody, err := d.encryptor.encrypt(msg.Body)
	if err != nil {
		return fmt.Errorf("failed to encrypt message body: %w", err)
	}

	query := `
		INSERT INTO messages (
			message_id, conversation_id, sender_kind, operator_id,
			status, content_kind, body, media_id, media_url, media_filename,
			reply_to, sent_at, read_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = d.db.ExecContext(ctx, query,
		msg.MessageID,
		nullable(msg.ConversationID),
		string(msg.SenderKind),
		nullable(msg.OperatorID),
		string(msg.Status),
		string(msg.ContentKind),
		encryptedBody,
		nullable(msg.Media.MediaID),
		nullable(msg.Media.URL),
		nullable(msg.Media.Filename),
		nullable(msg.ReplyTo),
		msg.SentAt.UTC(),
		msg.ReadAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// InsertMessageIfAbsent is the idempotent inbound write: if a row with the
// same message_id already exists (duplicate webhook delivery) nothing is
// written and created is false.
func (d *Database) InsertMessageIfAbsent(ctx context.Context, msg *models.Message) (created bool, err error) {
	encryptedBody, err := d.encryptor.encrypt(msg.Body)
	if err != nil {
		return false, fmt.Errorf("failed to encrypt message body: %w", err)
	}

	query := `
		INSERT OR IGNORE INTO messages (
			message_id, conversation_id, sender_kind, operator_id,
			status, content_kind, body, media_id, media_url, media_filename,
			reply_to, sent_at, read_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := d.db.ExecContext(ctx, query,
		msg.MessageID,
		nullable(msg.ConversationID),
		string(msg.SenderKind),
		nullable(msg.OperatorID),
		string(msg.Status),
		string(msg.ContentKind),
		encryptedBody,
		nullable(msg.Media.MediaID),
		nullable(msg.Media.URL),
		nullable(msg.Media.Filename),
		nullable(msg.ReplyTo),
		msg.SentAt.UTC(),
		msg.ReadAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// GetMessageByID looks a row up by its message_id. Returns nil when absent.
func (d *Database) GetMessageByID(ctx context.Context, messageID string) (*models.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM messages WHERE message_id = ?`, messageColumns)
	row := d.db.QueryRowContext(ctx, query, messageID)
	return d.scanMessage(row)
}

// UpsertStatus applies a webhook status update to the row identified by
// the provider message id. Missing rows report found=false (the provider
// may reference messages older than local retention, or racing creation).
// Downgrades (a late "delivered" after "read") are ignored and report
// applied=false. The read-modify-write runs in one transaction so
// concurrent duplicate deliveries cannot lose updates.
func (d *Database) UpsertStatus(ctx context.Context, messageID string, status models.MessageStatus, at time.Time) (found, applied bool, err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM messages WHERE message_id = ?`, messageID).Scan(&current)
	if err == sql.ErrNoRows {
		err = tx.Rollback()
		return false, false, err
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to read current status: %w", err)
	}

	if !models.MessageStatus(current).CanAdvanceTo(status) {
		err = tx.Rollback()
		return true, false, err
	}

	if status == models.MessageStatusRead {
		_, err = tx.ExecContext(ctx,
			`UPDATE messages SET status = ?, read_at = ? WHERE message_id = ?`,
			string(status), at.UTC(), messageID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE messages SET status = ? WHERE message_id = ?`,
			string(status), messageID)
	}
	if err != nil {
		return true, false, fmt.Errorf("failed to update status: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return true, false, fmt.Errorf("failed to commit status update: %w", err)
	}
	return true, true, nil
}

// GetConversationMessages returns the ordered history for one voter.
func (d *Database) GetConversationMessages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM messages WHERE conversation_id = ? ORDER BY sent_at ASC, id ASC`, messageColumns)

	rows, err := d.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg, err := d.scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation messages: %w", err)
	}

	return messages, nil
}

// LatestContactMessageAt returns the sent_at of the newest
// contact-originated row in the conversation, or the zero time when the
// contact has never written. The re-engagement gate is built on this.
func (d *Database) LatestContactMessageAt(ctx context.Context, conversationID string) (time.Time, error) {
	var sentAt time.Time
	err := d.db.QueryRowContext(ctx, `
		SELECT sent_at FROM messages
		WHERE conversation_id = ? AND sender_kind = ?
		ORDER BY sent_at DESC
		LIMIT 1
	`, conversationID, string(models.SenderContact)).Scan(&sentAt)

	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest contact message: %w", err)
	}

	return sentAt, nil
}

// CleanupOldMessages removes rows older than the retention period.
func (d *Database) CleanupOldMessages(retentionDays int) error {
	query := `
		DELETE FROM messages
		WHERE created_at < datetime('now', '-' || ? || ' days')
	`

	_, err := d.db.Exec(query, retentionDays)
	if err != nil {
		return fmt.Errorf("failed to cleanup old messages: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (d *Database) scanMessage(row rowScanner) (*models.Message, error) {
	var (
		msg                                      models.Message
		conversationID, operatorID               sql.NullString
		encryptedBody                            sql.NullString
		mediaID, mediaURL, mediaFilename, replyTo sql.NullString
		readAt                                   sql.NullTime
		senderKind, status, contentKind          string
	)

	err := row.Scan(
		&msg.ID,
		&msg.MessageID,
		&conversationID,
		&senderKind,
		&operatorID,
		&status,
		&contentKind,
		&encryptedBody,
		&mediaID,
		&mediaURL,
		&mediaFilename,
		&replyTo,
		&msg.SentAt,
		&readAt,
		&msg.CreatedAt,
		&msg.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	msg.ConversationID = conversationID.String
	msg.SenderKind = models.SenderKind(senderKind)
	msg.OperatorID = operatorID.String
	msg.Status = models.MessageStatus(status)
	msg.ContentKind = models.ContentKind(contentKind)
	msg.Media = models.MediaRef{
		MediaID:  mediaID.String,
		URL:      mediaURL.String,
		Filename: mediaFilename.String,
	}
	msg.ReplyTo = replyTo.String
	if readAt.Valid {
		t := readAt.Time
		msg.ReadAt = &t
	}

	msg.Body, err = d.encryptor.decrypt(encryptedBody.String)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt message body: %w", err)
	}

	return &msg, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
