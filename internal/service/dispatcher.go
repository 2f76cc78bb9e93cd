package service

import (
	"context"
	"fmt"
	"time"

	"voterdesk/internal/models"
	"voterdesk/internal/validation"
	"voterdesk/pkg/provider"

	"github.com/sirupsen/logrus"
)

// Dispatcher fans one message spec out to many recipients under the
// provider's per-second throughput ceiling. Sends run from a single
// logical worker, chunked in original order; the rate guarantee comes
// from the chunk wall-clock floor, not a token bucket.
type Dispatcher struct {
	client   provider.Client
	ledger   *Ledger
	resolver *Resolver
	gate     *ReengagementGate
	notifier Notifier
	logger   *logrus.Logger

	// defaultChunkSize equals the provider's per-second ceiling.
	defaultChunkSize int

	sleep func(time.Duration)
	now   func() time.Time
}

func NewDispatcher(client provider.Client, ledger *Ledger, resolver *Resolver, gate *ReengagementGate, notifier Notifier, chunkSize int, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		client:           client,
		ledger:           ledger,
		resolver:         resolver,
		gate:             gate,
		notifier:         notifier,
		logger:           logger,
		defaultChunkSize: chunkSize,
		sleep:            time.Sleep,
		now:              time.Now,
	}
}

// SendBatch resolves recipients, partitions them into chunks, and sends
// each chunk with at least one second between chunk starts. Every valid
// recipient yields exactly one ledger row and one result entry whatever
// the provider did; the returned error is non-nil only when the request
// itself was unusable (no valid recipients, bad spec).
func (d *Dispatcher) SendBatch(ctx context.Context, req models.SendRequest) (*models.SendReport, error) {
	if err := validateSpec(req.Spec); err != nil {
		return nil, err
	}

	contacts, resolutionErrors, err := d.resolver.Resolve(ctx, req.Recipients)
	if err != nil {
		return &models.SendReport{ResolutionErrors: resolutionErrors}, err
	}

	chunkSize := req.ChunkSize
	if chunkSize <= 0 || chunkSize > d.defaultChunkSize {
		chunkSize = d.defaultChunkSize
	}

	report := &models.SendReport{
		ResolutionErrors: resolutionErrors,
		Chunks:           (len(contacts) + chunkSize - 1) / chunkSize,
	}

	for chunk := 0; chunk*chunkSize < len(contacts); chunk++ {
		start := d.now()

		lo := chunk * chunkSize
		hi := lo + chunkSize
		if hi > len(contacts) {
			hi = len(contacts)
		}

		for _, contact := range contacts[lo:hi] {
			result := d.sendOne(ctx, contact, req.Spec)
			report.Results = append(report.Results, result)
		}

		d.logger.WithFields(logrus.Fields{
			LogFieldChunk:     chunk + 1,
			LogFieldChunkSize: hi - lo,
			LogFieldDuration:  d.now().Sub(start).Milliseconds(),
		}).Debug("Dispatched chunk")

		// The remainder of the one-second window keeps throughput under
		// the provider ceiling. The final chunk has no successor to
		// protect.
		if hi < len(contacts) {
			if elapsed := d.now().Sub(start); elapsed < time.Second {
				d.sleep(time.Second - elapsed)
			}
		}
	}

	return report, nil
}

// sendOne issues a single provider call and records its row. A provider
// failure of any kind never propagates; it becomes a failed row plus a
// structured result entry.
func (d *Dispatcher) sendOne(ctx context.Context, contact *models.Contact, spec models.SendSpec) models.RecipientResult {
	result := models.RecipientResult{
		ContactID: contact.ContactID,
		Phone:     contact.Phone,
	}

	msg := &models.Message{
		ConversationID: contact.ContactID,
		SenderKind:     models.SenderOperator,
		OperatorID:     spec.OperatorID,
		ContentKind:    spec.ContentKind,
		Body:           spec.Body,
		ReplyTo:        spec.ReplyTo,
		SentAt:         d.now().UTC(),
	}
	if spec.ContentKind.IsMedia() {
		msg.Media = models.MediaRef{
			MediaID:  spec.MediaID,
			URL:      spec.MediaURL,
			Filename: spec.Filename,
		}
		if msg.Body == "" {
			msg.Body = spec.ContentKind.Placeholder()
		}
	}
	if spec.ContentKind == models.ContentTemplate {
		msg.Body = spec.TemplateName
	}

	if spec.ContentKind != models.ContentTemplate {
		allowed, err := d.gate.AllowFreeForm(ctx, contact.ContactID)
		if err != nil {
			msg.Status = models.MessageStatusFailed
			result.Reason = models.ReasonProviderError
			result.Error = fmt.Sprintf("re-engagement check failed: %v", err)
			d.finishSend(ctx, contact, msg, &result)
			return result
		}
		if !allowed {
			// Refused without contacting the provider; the row still
			// exists so the attempt is visible in history.
			msg.Status = models.MessageStatusFailed
			result.Reason = models.ReasonReengagementClosed
			result.Error = "re-engagement window closed; only template messages allowed"
			d.finishSend(ctx, contact, msg, &result)
			return result
		}
	}

	sendResult, err := d.callProvider(ctx, contact.Phone, spec)
	switch {
	case err != nil:
		msg.Status = models.MessageStatusFailed
		result.Reason = models.ReasonProviderError
		result.Error = fmt.Sprintf("provider request failed: %v", err)
	case sendResult.HTTPStatus < 200 || sendResult.HTTPStatus >= 300:
		msg.Status = models.MessageStatusFailed
		result.Reason = models.ReasonProviderError
		result.HTTPStatus = sendResult.HTTPStatus
		result.ProviderResponse = sendResult.Body
		result.Error = sendResult.ErrorCause
	case sendResult.MessageID == "":
		msg.Status = models.MessageStatusFailed
		result.Reason = models.ReasonMissingMessageID
		result.HTTPStatus = sendResult.HTTPStatus
		result.ProviderResponse = sendResult.Body
		result.Error = "provider response carried no message id"
	default:
		msg.Status = models.MessageStatusSent
		msg.MessageID = sendResult.MessageID
		result.OK = true
		result.HTTPStatus = sendResult.HTTPStatus
		result.ProviderResponse = sendResult.Body
	}

	d.finishSend(ctx, contact, msg, &result)
	return result
}

// finishSend records the row and fans the mutation out. The row write
// happens first so sessions are never notified about state that does
// not exist yet.
func (d *Dispatcher) finishSend(ctx context.Context, contact *models.Contact, msg *models.Message, result *models.RecipientResult) {
	if err := d.ledger.RecordOutbound(ctx, msg); err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			LogFieldContactID: contact.ContactID,
			LogFieldStatus:    string(msg.Status),
		}).Error("Failed to record outbound message")
		if result.Error == "" {
			result.Error = "failed to record message"
		}
		result.OK = false
	}
	result.MessageID = msg.MessageID

	title := "Message sent"
	if msg.Status == models.MessageStatusFailed {
		title = "Message failed"
	}
	n := &models.Notification{
		Title:  title,
		Body:   contact.DisplayName(),
		Target: notificationTarget(contact.OwnerID),
		Meta: map[string]interface{}{
			"conversation_id": contact.ContactID,
			"message_id":      msg.MessageID,
			"status":          string(msg.Status),
			"reason":          result.Reason,
		},
	}
	if err := d.notifier.Publish(ctx, n); err != nil {
		d.logger.WithError(err).Warn("Failed to publish send notification")
	}
}

func (d *Dispatcher) callProvider(ctx context.Context, phone string, spec models.SendSpec) (*provider.SendResult, error) {
	switch spec.ContentKind {
	case models.ContentText:
		return d.client.SendText(ctx, phone, spec.Body, spec.ReplyTo)
	case models.ContentTemplate:
		return d.client.SendTemplate(ctx, phone, spec.TemplateName, spec.TemplateLang)
	case models.ContentImage, models.ContentAudio, models.ContentVideo, models.ContentDocument:
		return d.client.SendMedia(ctx, phone, string(spec.ContentKind), spec.MediaID, spec.Body, spec.Filename, spec.ReplyTo)
	default:
		return nil, fmt.Errorf("unsupported content kind: %s", spec.ContentKind)
	}
}

func validateSpec(spec models.SendSpec) error {
	if spec.OperatorID == "" {
		return fmt.Errorf("missing operator id")
	}
	switch spec.ContentKind {
	case models.ContentText:
		if err := validation.ValidateMessageBody(spec.Body); err != nil {
			return err
		}
	case models.ContentTemplate:
		if spec.TemplateName == "" || spec.TemplateLang == "" {
			return fmt.Errorf("missing template name or language")
		}
	case models.ContentImage, models.ContentAudio, models.ContentVideo, models.ContentDocument:
		if spec.MediaID == "" {
			return fmt.Errorf("missing media id; upload the attachment first")
		}
	default:
		return fmt.Errorf("unsupported content kind: %s", spec.ContentKind)
	}
	return nil
}
