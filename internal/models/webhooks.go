package models

// Provider webhook envelope: entries hold changes, each change holds
// either a statuses batch or a messages/contacts pair, never both.

type WebhookEnvelope struct {
	Object  string         `json:"object"`
	Entries []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Statuses         []WebhookStatus  `json:"statuses,omitempty"`
	Messages         []WebhookMessage `json:"messages,omitempty"`
	Contacts         []WebhookContact `json:"contacts,omitempty"`
}

type WebhookStatus struct {
	MessageID   string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

type WebhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type WebhookMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Reaction *struct {
		Emoji     string `json:"emoji"`
		MessageID string `json:"message_id"`
	} `json:"reaction,omitempty"`
	Button *struct {
		Text    string `json:"text"`
		Payload string `json:"payload"`
	} `json:"button,omitempty"`
	Image    *WebhookMedia `json:"image,omitempty"`
	Video    *WebhookMedia `json:"video,omitempty"`
	Audio    *WebhookMedia `json:"audio,omitempty"`
	Document *WebhookMedia `json:"document,omitempty"`
	Context  *struct {
		ID string `json:"id"`
	} `json:"context,omitempty"`
}

type WebhookMedia struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// Media returns the attachment reference for media-typed messages, along
// with the ledger content kind it maps to.
func (m *WebhookMessage) Media() (*WebhookMedia, ContentKind) {
	switch {
	case m.Image != nil:
		return m.Image, ContentImage
	case m.Video != nil:
		return m.Video, ContentVideo
	case m.Audio != nil:
		return m.Audio, ContentAudio
	case m.Document != nil:
		return m.Document, ContentDocument
	}
	return nil, ContentText
}
