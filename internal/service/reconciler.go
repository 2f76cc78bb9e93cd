package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"voterdesk/internal/models"
	"voterdesk/internal/validation"
	"voterdesk/pkg/media"

	"github.com/sirupsen/logrus"
)

// Reconciler folds provider callbacks into the ledger. One webhook
// delivery is processed at a time; per-entry errors are collected, never
// fatal to the batch, and the HTTP layer always answers the provider
// with success once the envelope parsed.
type Reconciler struct {
	ledger      *Ledger
	contacts    ContactStore
	relay       media.Handler
	notifier    Notifier
	countryCode string
	logger      *logrus.Logger
}

func NewReconciler(ledger *Ledger, contacts ContactStore, relay media.Handler, notifier Notifier, countryCode string, logger *logrus.Logger) *Reconciler {
	return &Reconciler{
		ledger:      ledger,
		contacts:    contacts,
		relay:       relay,
		notifier:    notifier,
		countryCode: countryCode,
		logger:      logger,
	}
}

// ProcessEnvelope walks every change in the envelope. Each change holds
// either a statuses batch or a messages batch; the two are never mixed
// in one unit. Returned errors are the collected per-entry failures.
func (r *Reconciler) ProcessEnvelope(ctx context.Context, env *models.WebhookEnvelope) []error {
	var errs []error

	for _, entry := range env.Entries {
		for _, change := range entry.Changes {
			if len(change.Value.Statuses) > 0 {
				errs = append(errs, r.processStatusBatch(ctx, change.Value.Statuses)...)
			}
			if len(change.Value.Messages) > 0 {
				errs = append(errs, r.processMessageBatch(ctx, change.Value)...)
			}
		}
	}

	return errs
}

func (r *Reconciler) processStatusBatch(ctx context.Context, statuses []models.WebhookStatus) []error {
	var errs []error

	for _, st := range statuses {
		status := models.MessageStatus(st.Status)
		found, applied, err := r.ledger.UpsertStatus(ctx, st.MessageID, status, parseWebhookTimestamp(st.Timestamp))
		if err != nil {
			errs = append(errs, fmt.Errorf("status update for %s: %w", SanitizeMessageID(st.MessageID), err))
			continue
		}
		if !found {
			// The provider may reference messages older than local
			// retention, or racing creation.
			r.logger.WithField(LogFieldMessageID, SanitizeMessageID(st.MessageID)).
				Info("Status update for unknown message")
			continue
		}
		if !applied {
			r.logger.WithFields(logrus.Fields{
				LogFieldMessageID: SanitizeMessageID(st.MessageID),
				LogFieldStatus:    st.Status,
			}).Debug("Ignored status downgrade")
			continue
		}

		r.notifyStatus(ctx, st.MessageID, status)
	}

	return errs
}

func (r *Reconciler) notifyStatus(ctx context.Context, messageID string, status models.MessageStatus) {
	ownerID := ""
	if msg, err := r.ledger.store.GetMessageByID(ctx, messageID); err == nil && msg != nil {
		if contact, err := r.contacts.GetContact(ctx, msg.ConversationID); err == nil && contact != nil {
			ownerID = contact.OwnerID
		}
	}

	n := &models.Notification{
		Title:  "Delivery update",
		Body:   string(status),
		Target: notificationTarget(ownerID),
		Meta: map[string]interface{}{
			"message_id": messageID,
			"status":     string(status),
		},
	}
	if err := r.notifier.Publish(ctx, n); err != nil {
		r.logger.WithError(err).Warn("Failed to publish status notification")
	}
}

func (r *Reconciler) processMessageBatch(ctx context.Context, value models.WebhookValue) []error {
	var errs []error

	for i := range value.Messages {
		if err := r.processInboundMessage(ctx, &value.Messages[i], value.Contacts); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// processInboundMessage normalizes one inbound event by kind and records
// exactly one row for it, idempotent on message_id.
func (r *Reconciler) processInboundMessage(ctx context.Context, wm *models.WebhookMessage, senders []models.WebhookContact) error {
	msg := &models.Message{
		MessageID: wm.ID,
		Status:    models.MessageStatusReceived,
		SentAt:    parseWebhookTimestamp(wm.Timestamp),
	}

	switch wm.Type {
	case "text":
		msg.ContentKind = models.ContentText
		if wm.Text != nil {
			msg.Body = wm.Text.Body
		}
	case "reaction":
		// A reaction becomes a text message whose body is the emoji; the
		// referenced prior message becomes the reply target.
		msg.ContentKind = models.ContentText
		msg.Body = "reacted to a message"
		if wm.Reaction != nil {
			if wm.Reaction.Emoji != "" {
				msg.Body = wm.Reaction.Emoji
			}
			replyTo, err := r.ledger.ResolveReplyTo(ctx, wm.Reaction.MessageID)
			if err != nil {
				r.logger.WithError(err).Debug("Failed to resolve reaction target")
			}
			msg.ReplyTo = replyTo
		}
	case "button":
		msg.ContentKind = models.ContentText
		if wm.Button != nil {
			msg.Body = wm.Button.Text
			if msg.Body == "" {
				msg.Body = wm.Button.Payload
			}
		}
	default:
		attachment, kind := wm.Media()
		if attachment == nil {
			return fmt.Errorf("unsupported inbound message type: %s", wm.Type)
		}
		msg.ContentKind = kind
		msg.Body = attachment.Caption
		if msg.Body == "" {
			msg.Body = kind.Placeholder()
		}

		// Mirror synchronously so the row already carries a durable URL
		// when operators first see it. A relay failure only degrades the
		// row; the message is still recorded.
		ref, err := r.relay.MirrorInbound(ctx, attachment.ID)
		if err != nil {
			r.logger.WithError(err).WithField(LogFieldMediaID, attachment.ID).
				Warn("Failed to mirror inbound media")
		} else {
			msg.Media = *ref
			if attachment.Filename != "" {
				msg.Media.Filename = attachment.Filename
			}
		}
	}

	if wm.Context != nil && msg.ReplyTo == "" {
		replyTo, err := r.ledger.ResolveReplyTo(ctx, wm.Context.ID)
		if err != nil {
			r.logger.WithError(err).Debug("Failed to resolve reply context")
		}
		msg.ReplyTo = replyTo
	}

	contact := r.resolveSender(ctx, wm.From, senders)
	if contact != nil {
		msg.ConversationID = contact.ContactID
	} else {
		// Orphaned inbound: stored with an unresolved conversation
		// reference rather than dropped, and surfaced to the admins
		// group for triage.
		r.logger.WithField("from", SanitizePhoneNumber(wm.From)).
			Warn("Inbound message from unknown sender")
	}

	created, err := r.ledger.RecordInbound(ctx, msg)
	if err != nil {
		return fmt.Errorf("inbound message %s: %w", SanitizeMessageID(wm.ID), err)
	}
	if !created {
		// Duplicate delivery; already recorded and notified.
		return nil
	}

	r.notifyInbound(ctx, contact, msg, wm.From)
	return nil
}

// resolveSender normalizes the provider's "from" phone and looks up the
// contact cache, refreshing the cached display name from the webhook's
// contacts block when present.
func (r *Reconciler) resolveSender(ctx context.Context, from string, senders []models.WebhookContact) *models.Contact {
	phone, err := validation.NormalizePhone(from, r.countryCode)
	if err != nil {
		return nil
	}

	contact, err := r.contacts.GetContactByPhone(ctx, phone)
	if err != nil {
		r.logger.WithError(err).Warn("Contact lookup failed")
		return nil
	}
	if contact == nil {
		return nil
	}

	for _, sender := range senders {
		if sender.WaID == from && sender.Profile.Name != "" && sender.Profile.Name != contact.Name {
			contact.Name = sender.Profile.Name
			if err := r.contacts.SaveContact(ctx, contact); err != nil {
				r.logger.WithError(err).Debug("Failed to refresh contact name")
			}
			break
		}
	}

	return contact
}

func (r *Reconciler) notifyInbound(ctx context.Context, contact *models.Contact, msg *models.Message, rawFrom string) {
	var (
		target string
		sender string
		meta   = map[string]interface{}{
			"message_id":   msg.MessageID,
			"content_kind": string(msg.ContentKind),
		}
	)

	if contact != nil {
		target = notificationTarget(contact.OwnerID)
		sender = contact.DisplayName()
		meta["conversation_id"] = contact.ContactID
	} else {
		target = models.NotificationTargetAdmins
		sender = rawFrom
		meta["unresolved_phone"] = rawFrom
	}

	n := &models.Notification{
		Title:  "New message",
		Body:   fmt.Sprintf("%s: %s", sender, msg.Body),
		Target: target,
		Meta:   meta,
	}
	if err := r.notifier.Publish(ctx, n); err != nil {
		r.logger.WithError(err).Warn("Failed to publish inbound notification")
	}
}

// parseWebhookTimestamp converts the provider's unix-seconds string;
// malformed or missing values fall back to now.
func parseWebhookTimestamp(ts string) time.Time {
	if ts == "" {
		return time.Now().UTC()
	}
	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Now().UTC()
	}
	return time.Unix(secs, 0).UTC()
}
