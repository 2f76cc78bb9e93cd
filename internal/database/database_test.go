package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"voterdesk/internal/migrations"
	"voterdesk/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestMigrations creates test migration files
func setupTestMigrations(t *testing.T, tmpDir string) string {
	migrationsPath := filepath.Join(tmpDir, "migrations")
	err := os.MkdirAll(migrationsPath, 0755)
	require.NoError(t, err)

	schemaContent := `-- Initial schema for voterdesk messaging core
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    message_id TEXT NOT NULL UNIQUE,
    conversation_id TEXT,
    sender_kind TEXT NOT NULL,
    operator_id TEXT,
    status TEXT NOT NULL,
    content_kind TEXT NOT NULL,
    body TEXT,
    media_id TEXT,
    media_url TEXT,
    media_filename TEXT,
    reply_to TEXT,
    sent_at DATETIME NOT NULL,
    read_at DATETIME,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_message_id ON messages(message_id);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, sent_at);
CREATE INDEX IF NOT EXISTS idx_messages_sender_kind ON messages(conversation_id, sender_kind, sent_at);

CREATE TRIGGER IF NOT EXISTS messages_updated_at
AFTER UPDATE ON messages
BEGIN
    UPDATE messages SET updated_at = CURRENT_TIMESTAMP
    WHERE id = NEW.id;
END;

CREATE TABLE IF NOT EXISTS contacts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    contact_id TEXT NOT NULL UNIQUE,
    phone_number TEXT NOT NULL,
    display_name TEXT,
    owner_operator_id TEXT,
    cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_contacts_contact_id ON contacts(contact_id);
CREATE INDEX IF NOT EXISTS idx_contacts_phone_number ON contacts(phone_number);

CREATE TRIGGER IF NOT EXISTS contacts_updated_at
AFTER UPDATE ON contacts
BEGIN
    UPDATE contacts SET updated_at = CURRENT_TIMESTAMP
    WHERE id = NEW.id;
END;

CREATE TABLE IF NOT EXISTS notifications (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    notification_id TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    body TEXT,
    target TEXT,
    meta TEXT,
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_target ON notifications(target, is_read, created_at);`

	err = os.WriteFile(filepath.Join(migrationsPath, "001_initial_schema.sql"), []byte(schemaContent), 0644)
	require.NoError(t, err)

	return migrationsPath
}

func setupTestDB(t *testing.T) (*Database, func()) {
	originalSecret := os.Getenv("VOTERDESK_ENCRYPTION_SECRET")
	_ = os.Setenv("VOTERDESK_ENCRYPTION_SECRET", "this-is-a-very-long-test-secret-key-for-database-testing")

	tmpDir, err := os.MkdirTemp("", "voterdesk-db-test")
	require.NoError(t, err)

	migrationsPath := setupTestMigrations(t, tmpDir)

	originalMigrationsDir := migrations.MigrationsDir
	migrations.MigrationsDir = migrationsPath

	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := New(dbPath, nil)
	require.NoError(t, err)

	cleanup := func() {
		_ = db.Close()
		_ = os.RemoveAll(tmpDir)
		migrations.MigrationsDir = originalMigrationsDir
		if originalSecret != "" {
			_ = os.Setenv("VOTERDESK_ENCRYPTION_SECRET", originalSecret)
		} else {
			_ = os.Unsetenv("VOTERDESK_ENCRYPTION_SECRET")
		}
	}

	return db, cleanup
}

func TestNewDatabase(t *testing.T) {
	tests := []struct {
		name        string
		dbPath      string
		expectError bool
	}{
		{
			name:        "empty path",
			dbPath:      "",
			expectError: true,
		},
		{
			name:        "invalid path with null byte",
			dbPath:      "\x00invalid",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.dbPath, nil)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("valid path", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()
		assert.NotNil(t, db)
	})
}

func outboundMessage(messageID, conversationID string) *models.Message {
	return &models.Message{
		MessageID:      messageID,
		ConversationID: conversationID,
		SenderKind:     models.SenderOperator,
		OperatorID:     "op-1",
		Status:         models.MessageStatusSent,
		ContentKind:    models.ContentText,
		Body:           "Polling booth details attached",
		SentAt:         time.Now().UTC().Truncate(time.Second),
	}
}

func TestSaveAndGetMessage(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	msg := outboundMessage("wamid.001", "contact-1")
	require.NoError(t, db.SaveMessage(ctx, msg))

	got, err := db.GetMessageByID(ctx, "wamid.001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "contact-1", got.ConversationID)
	assert.Equal(t, models.SenderOperator, got.SenderKind)
	assert.Equal(t, "op-1", got.OperatorID)
	assert.Equal(t, models.MessageStatusSent, got.Status)
	assert.Equal(t, "Polling booth details attached", got.Body)
	assert.Nil(t, got.ReadAt)

	missing, err := db.GetMessageByID(ctx, "wamid.missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInsertMessageIfAbsent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	msg := &models.Message{
		MessageID:      "wamid.in.001",
		ConversationID: "contact-2",
		SenderKind:     models.SenderContact,
		Status:         models.MessageStatusReceived,
		ContentKind:    models.ContentText,
		Body:           "Where do I vote?",
		SentAt:         time.Now().UTC().Truncate(time.Second),
	}

	created, err := db.InsertMessageIfAbsent(ctx, msg)
	require.NoError(t, err)
	assert.True(t, created)

	// Replayed webhook delivery of the same message is a no-op.
	created, err = db.InsertMessageIfAbsent(ctx, msg)
	require.NoError(t, err)
	assert.False(t, created)

	history, err := db.GetConversationMessages(ctx, "contact-2")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestUpsertStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, db.SaveMessage(ctx, outboundMessage("wamid.st.001", "contact-3")))

	now := time.Now().UTC()

	found, applied, err := db.UpsertStatus(ctx, "wamid.st.001", models.MessageStatusRead, now)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, applied)

	got, err := db.GetMessageByID(ctx, "wamid.st.001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.MessageStatusRead, got.Status)
	require.NotNil(t, got.ReadAt)

	// Late "delivered" after "read" must not regress the row.
	found, applied, err = db.UpsertStatus(ctx, "wamid.st.001", models.MessageStatusDelivered, now)
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, applied)

	got, err = db.GetMessageByID(ctx, "wamid.st.001")
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusRead, got.Status)

	found, _, err = db.UpsertStatus(ctx, "wamid.unknown", models.MessageStatusDelivered, now)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetConversationMessagesOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	second := outboundMessage("wamid.ord.2", "contact-4")
	second.SentAt = base
	first := outboundMessage("wamid.ord.1", "contact-4")
	first.SentAt = base.Add(-time.Hour)

	require.NoError(t, db.SaveMessage(ctx, second))
	require.NoError(t, db.SaveMessage(ctx, first))

	history, err := db.GetConversationMessages(ctx, "contact-4")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "wamid.ord.1", history[0].MessageID)
	assert.Equal(t, "wamid.ord.2", history[1].MessageID)
}

func TestLatestContactMessageAt(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	at, err := db.LatestContactMessageAt(ctx, "contact-5")
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	older := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	newer := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)

	for i, sentAt := range []time.Time{older, newer} {
		_, err := db.InsertMessageIfAbsent(ctx, &models.Message{
			MessageID:      "wamid.gate." + string(rune('a'+i)),
			ConversationID: "contact-5",
			SenderKind:     models.SenderContact,
			Status:         models.MessageStatusReceived,
			ContentKind:    models.ContentText,
			Body:           "hello",
			SentAt:         sentAt,
		})
		require.NoError(t, err)
	}

	// Operator replies never count toward the window.
	op := outboundMessage("wamid.gate.op", "contact-5")
	op.SentAt = time.Now().UTC()
	require.NoError(t, db.SaveMessage(ctx, op))

	at, err = db.LatestContactMessageAt(ctx, "contact-5")
	require.NoError(t, err)
	assert.Equal(t, newer, at.UTC().Truncate(time.Second))
}

func TestContactCache(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	contact := &models.Contact{
		ContactID: "contact-6",
		Phone:     "9876543210",
		Name:      "Asha Rao",
		OwnerID:   "op-2",
	}
	require.NoError(t, db.SaveContact(ctx, contact))

	got, err := db.GetContact(ctx, "contact-6")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "9876543210", got.Phone)
	assert.Equal(t, "Asha Rao", got.Name)
	assert.Equal(t, "op-2", got.OwnerID)

	byPhone, err := db.GetContactByPhone(ctx, "9876543210")
	require.NoError(t, err)
	require.NotNil(t, byPhone)
	assert.Equal(t, "contact-6", byPhone.ContactID)

	// Upsert refreshes the cached name.
	contact.Name = "Asha R"
	require.NoError(t, db.SaveContact(ctx, contact))
	got, err = db.GetContact(ctx, "contact-6")
	require.NoError(t, err)
	assert.Equal(t, "Asha R", got.Name)

	missing, err := db.GetContactByPhone(ctx, "0000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNotifications(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	n := &models.Notification{
		NotificationID: "ntf-1",
		Title:          "New message",
		Body:           "Asha Rao: Where do I vote?",
		Target:         "op-3",
		Meta:           map[string]interface{}{"conversation_id": "contact-7"},
	}
	require.NoError(t, db.SaveNotification(ctx, n))

	unread, err := db.UnreadNotifications(ctx, "op-3")
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "ntf-1", unread[0].NotificationID)
	assert.Equal(t, "contact-7", unread[0].Meta["conversation_id"])
	assert.False(t, unread[0].IsRead)

	require.NoError(t, db.MarkNotificationRead(ctx, "ntf-1"))
	unread, err = db.UnreadNotifications(ctx, "op-3")
	require.NoError(t, err)
	assert.Empty(t, unread)

	// Duplicate ack on an unknown id stays harmless.
	require.NoError(t, db.MarkNotificationRead(ctx, "ntf-missing"))
}

func TestCleanupOldMessages(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, db.SaveMessage(ctx, outboundMessage("wamid.keep", "contact-8")))

	// Newer than any sane retention window, so it survives.
	require.NoError(t, db.CleanupOldMessages(30))

	got, err := db.GetMessageByID(ctx, "wamid.keep")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
