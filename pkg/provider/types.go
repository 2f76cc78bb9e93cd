package provider

import (
	"context"
	"io"
)

// SendResult is the raw outcome of one provider call. A non-nil result
// with a non-2xx status is not an error at this layer; the dispatcher
// decides what a failed send means.
type SendResult struct {
	HTTPStatus int
	// Body holds the provider's raw response, kept for per-recipient
	// result reporting.
	Body string
	// MessageID is the provider-assigned id, empty when the response
	// carried none.
	MessageID string
	// ErrorCause is the operator-facing translation of a provider error
	// body, empty on success.
	ErrorCause string
}

// MediaInfo is the provider's metadata for an uploaded attachment.
type MediaInfo struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// Client is the outbound surface of the messaging provider.
type Client interface {
	SendText(ctx context.Context, to, body, replyTo string) (*SendResult, error)
	SendTemplate(ctx context.Context, to, templateName, languageCode string) (*SendResult, error)
	SendMedia(ctx context.Context, to string, kind, mediaID, caption, filename, replyTo string) (*SendResult, error)
	MarkRead(ctx context.Context, messageID string) error

	UploadMedia(ctx context.Context, r io.Reader, size int64, mimeType, filename string) (string, error)
	GetMediaInfo(ctx context.Context, mediaID string) (*MediaInfo, error)
	DownloadMedia(ctx context.Context, url string) (io.ReadCloser, error)
}

type textPayload struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type templateLanguage struct {
	Code string `json:"code"`
}

type templatePayload struct {
	Name     string           `json:"name"`
	Language templateLanguage `json:"language"`
}

type mediaPayload struct {
	ID       string `json:"id,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type replyContext struct {
	MessageID string `json:"message_id"`
}

// sendPayload is the provider's messages-endpoint envelope. Exactly one
// of the kind fields is set, matching Type.
type sendPayload struct {
	MessagingProduct string           `json:"messaging_product"`
	RecipientType    string           `json:"recipient_type"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *textPayload     `json:"text,omitempty"`
	Template         *templatePayload `json:"template,omitempty"`
	Image            *mediaPayload    `json:"image,omitempty"`
	Audio            *mediaPayload    `json:"audio,omitempty"`
	Video            *mediaPayload    `json:"video,omitempty"`
	Document         *mediaPayload    `json:"document,omitempty"`
	Context          *replyContext    `json:"context,omitempty"`
	Status           string           `json:"status,omitempty"`
	MessageID        string           `json:"message_id,omitempty"`
}
