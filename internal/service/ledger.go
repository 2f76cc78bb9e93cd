package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"voterdesk/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrMessageNotFound reports a message id with no ledger row behind it.
var ErrMessageNotFound = errors.New("message not found")

// LedgerStore is the persistence surface the ledger needs.
type LedgerStore interface {
	SaveMessage(ctx context.Context, msg *models.Message) error
	InsertMessageIfAbsent(ctx context.Context, msg *models.Message) (bool, error)
	GetMessageByID(ctx context.Context, messageID string) (*models.Message, error)
	UpsertStatus(ctx context.Context, messageID string, status models.MessageStatus, at time.Time) (found, applied bool, err error)
	GetConversationMessages(ctx context.Context, conversationID string) ([]*models.Message, error)
	LatestContactMessageAt(ctx context.Context, conversationID string) (time.Time, error)
}

// ReadReceiptSender reports read receipts back to the provider.
type ReadReceiptSender interface {
	MarkRead(ctx context.Context, messageID string) error
}

// Ledger is the single point of truth for message history. Every
// outbound attempt and inbound event becomes exactly one row here,
// keyed by message_id.
type Ledger struct {
	store    LedgerStore
	names    NameResolver
	receipts ReadReceiptSender
	logger   *logrus.Logger
}

// NameResolver turns a conversation id into an operator-facing display
// name for history rendering.
type NameResolver interface {
	DisplayName(ctx context.Context, contactID string) string
}

func NewLedger(store LedgerStore, names NameResolver, receipts ReadReceiptSender, logger *logrus.Logger) *Ledger {
	return &Ledger{
		store:    store,
		names:    names,
		receipts: receipts,
		logger:   logger,
	}
}

// FallbackMessageID generates a local message id for attempts the
// provider never acknowledged. Uniqueness comes from the timestamp plus
// a random suffix.
func FallbackMessageID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("local:%d:%s", time.Now().UnixNano(), suffix)
}

// RecordOutbound writes one row for an outbound attempt. It always
// succeeds in writing, whatever the provider did; callers that got no
// provider id pass an empty MessageID and a fallback is assigned.
func (l *Ledger) RecordOutbound(ctx context.Context, msg *models.Message) error {
	if msg.MessageID == "" {
		msg.MessageID = FallbackMessageID()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	msg.SenderKind = models.SenderOperator

	if err := l.store.SaveMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to record outbound message: %w", err)
	}
	return nil
}

// RecordInbound writes one row for an inbound event. Duplicate webhook
// deliveries of the same message_id are treated as success.
func (l *Ledger) RecordInbound(ctx context.Context, msg *models.Message) (created bool, err error) {
	msg.SenderKind = models.SenderContact
	if msg.Status == "" {
		msg.Status = models.MessageStatusReceived
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}

	created, err = l.store.InsertMessageIfAbsent(ctx, msg)
	if err != nil {
		return false, fmt.Errorf("failed to record inbound message: %w", err)
	}
	if !created {
		l.logger.WithField(LogFieldMessageID, SanitizeMessageID(msg.MessageID)).
			Debug("Duplicate inbound message ignored")
	}
	return created, nil
}

// UpsertStatus folds a provider status callback into the row. Unknown
// ids report found=false; downgrades report applied=false. Neither is
// an error.
func (l *Ledger) UpsertStatus(ctx context.Context, messageID string, status models.MessageStatus, at time.Time) (found, applied bool, err error) {
	if !status.Valid() {
		return false, false, fmt.Errorf("unknown message status: %s", status)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return l.store.UpsertStatus(ctx, messageID, status, at)
}

// ResolveReplyTo maps a provider reply-context id onto an existing row.
// Returns empty when the referenced message is not in the ledger.
func (l *Ledger) ResolveReplyTo(ctx context.Context, contextID string) (string, error) {
	if contextID == "" {
		return "", nil
	}
	msg, err := l.store.GetMessageByID(ctx, contextID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve reply context: %w", err)
	}
	if msg == nil {
		return "", nil
	}
	return msg.MessageID, nil
}

// History returns the ordered conversation messages with sender display
// names resolved.
func (l *Ledger) History(ctx context.Context, conversationID string) ([]*models.Message, error) {
	messages, err := l.store.GetConversationMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	for _, msg := range messages {
		if msg.SenderKind == models.SenderContact {
			msg.SenderName = l.names.DisplayName(ctx, msg.ConversationID)
		}
	}
	return messages, nil
}

// MarkRead marks an inbound message read locally and reports the read
// receipt to the provider. A receipt failure does not undo the local
// transition.
func (l *Ledger) MarkRead(ctx context.Context, messageID string) error {
	found, _, err := l.store.UpsertStatus(ctx, messageID, models.MessageStatusRead, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, SanitizeMessageID(messageID))
	}

	if err := l.receipts.MarkRead(ctx, messageID); err != nil {
		l.logger.WithError(err).
			WithField(LogFieldMessageID, SanitizeMessageID(messageID)).
			Warn("Failed to report read receipt to provider")
	}
	return nil
}

// LatestContactMessageAt exposes the re-engagement gate's input.
func (l *Ledger) LatestContactMessageAt(ctx context.Context, conversationID string) (time.Time, error) {
	return l.store.LatestContactMessageAt(ctx, conversationID)
}
