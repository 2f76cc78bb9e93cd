package models

// FailureReason codes carried on per-recipient send results so the caller
// can render a specific UI state instead of a generic failure.
const (
	ReasonReengagementClosed = "reengagement_window_closed"
	ReasonProviderError      = "provider_error"
	ReasonMissingMessageID   = "missing_provider_message_id"
)

// SendSpec describes one message to dispatch; the same spec is fanned out
// to every resolved recipient in the batch.
type SendSpec struct {
	OperatorID  string      `json:"operator_id"`
	ContentKind ContentKind `json:"content_kind"`
	Body        string      `json:"body,omitempty"`
	// Template sends bypass the re-engagement gate.
	TemplateName string `json:"template_name,omitempty"`
	TemplateLang string `json:"template_lang,omitempty"`
	// Media sends reference an already-uploaded provider media id.
	MediaID  string `json:"media_id,omitempty"`
	MediaURL string `json:"media_url,omitempty"`
	Filename string `json:"filename,omitempty"`
	ReplyTo  string `json:"reply_to,omitempty"`
}

// SendRequest is the outbound batch contract: recipient identifiers plus
// one spec, with an optional chunk-size override for the dispatcher.
type SendRequest struct {
	Recipients []string `json:"recipients"`
	ChunkSize  int      `json:"chunk_size,omitempty"`
	Spec       SendSpec `json:"spec"`
}

// RecipientResult is the per-recipient outcome. Exactly one ledger row
// exists behind each result, whatever the provider did.
type RecipientResult struct {
	ContactID        string `json:"contact_id"`
	Phone            string `json:"phone"`
	OK               bool   `json:"ok"`
	HTTPStatus       int    `json:"http_status,omitempty"`
	ProviderResponse string `json:"provider_response,omitempty"`
	MessageID        string `json:"message_id"`
	Reason           string `json:"reason,omitempty"`
	Error            string `json:"error,omitempty"`
}

// ResolutionError reports a recipient identifier that could not be turned
// into a contact record. Non-fatal: the rest of the batch proceeds.
type ResolutionError struct {
	Recipient string `json:"recipient"`
	Error     string `json:"error"`
}

// SendReport is the batch outcome: overall acceptance, never "all sends
// succeeded".
type SendReport struct {
	Results          []RecipientResult `json:"results"`
	ResolutionErrors []ResolutionError `json:"resolution_errors,omitempty"`
	Chunks           int               `json:"chunks"`
}
