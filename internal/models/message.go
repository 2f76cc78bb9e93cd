package models

import (
	"time"
)

type MessageStatus string

const (
	MessageStatusReceived  MessageStatus = "received"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

// statusRank orders statuses so that out-of-order webhook delivery can
// never regress a row (a late "delivered" must not erase "read").
var statusRank = map[MessageStatus]int{
	MessageStatusReceived:  0,
	MessageStatusSent:      1,
	MessageStatusFailed:    1,
	MessageStatusDelivered: 2,
	MessageStatusRead:      3,
}

// CanAdvanceTo reports whether transitioning to next from current moves
// the status forward. Equal-rank transitions are not forward moves.
func (current MessageStatus) CanAdvanceTo(next MessageStatus) bool {
	return statusRank[next] > statusRank[current]
}

func (s MessageStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

type SenderKind string

const (
	SenderOperator SenderKind = "operator"
	SenderContact  SenderKind = "contact"
)

type ContentKind string

const (
	ContentText     ContentKind = "text"
	ContentImage    ContentKind = "image"
	ContentVideo    ContentKind = "video"
	ContentAudio    ContentKind = "audio"
	ContentDocument ContentKind = "document"
	ContentTemplate ContentKind = "template"
)

// IsMedia reports whether the kind carries a provider media attachment.
func (k ContentKind) IsMedia() bool {
	switch k {
	case ContentImage, ContentVideo, ContentAudio, ContentDocument:
		return true
	}
	return false
}

// Placeholder is the body used when a media message arrives without a
// caption, or when mirroring the attachment failed.
func (k ContentKind) Placeholder() string {
	switch k {
	case ContentImage:
		return "image received"
	case ContentVideo:
		return "video received"
	case ContentAudio:
		return "audio received"
	case ContentDocument:
		return "document received"
	}
	return "message received"
}

// MediaRef points at an attachment: the provider's media id, the mirrored
// durable-storage URL, and the original filename when known.
type MediaRef struct {
	MediaID  string `json:"media_id,omitempty"`
	URL      string `json:"url,omitempty"`
	Filename string `json:"filename,omitempty"`
}

func (m MediaRef) Empty() bool {
	return m.MediaID == "" && m.URL == "" && m.Filename == ""
}

// Message is the ledger's unit: one row per outbound attempt or inbound
// event, keyed by MessageID (provider-assigned, or a local fallback).
type Message struct {
	ID             int64         `json:"-" db:"id"`
	MessageID      string        `json:"message_id" db:"message_id"`
	ConversationID string        `json:"conversation_id,omitempty" db:"conversation_id"`
	SenderKind     SenderKind    `json:"sender_kind" db:"sender_kind"`
	OperatorID     string        `json:"operator_id,omitempty" db:"operator_id"`
	Status         MessageStatus `json:"status" db:"status"`
	ContentKind    ContentKind   `json:"content_kind" db:"content_kind"`
	Body           string        `json:"body" db:"body"`
	Media          MediaRef      `json:"media,omitempty"`
	ReplyTo        string        `json:"reply_to,omitempty" db:"reply_to"`
	SentAt         time.Time     `json:"sent_at" db:"sent_at"`
	ReadAt         *time.Time    `json:"read_at,omitempty" db:"read_at"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"-" db:"updated_at"`

	// SenderName is resolved at query time from the contacts cache; it is
	// never stored on the row.
	SenderName string `json:"sender_name,omitempty" db:"-"`
}
