package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"voterdesk/internal/constants"
	"voterdesk/internal/models"
)

const messagingProduct = "whatsapp"

type client struct {
	baseURL       string
	phoneNumberID string
	accessToken   string
	countryCode   string
	httpClient    *http.Client
}

// NewClient builds a provider client with a bounded request timeout.
// Every call carries the bearer token; the token never appears in logs
// or error text.
func NewClient(cfg models.ProviderConfig) Client {
	return &client{
		baseURL:       cfg.APIBaseURL,
		phoneNumberID: cfg.PhoneNumberID,
		accessToken:   cfg.AccessToken,
		countryCode:   cfg.CountryCode,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
	}
}

// wireNumber maps the national number stored internally to the
// country-code-prefixed form the messaging API expects. Numbers that
// already carry a prefix pass through unchanged.
func (c *client) wireNumber(to string) string {
	if c.countryCode != "" && len(to) == constants.NationalNumberDigits {
		return c.countryCode + to
	}
	return to
}

func (c *client) SendText(ctx context.Context, to, body, replyTo string) (*SendResult, error) {
	payload := sendPayload{
		MessagingProduct: messagingProduct,
		RecipientType:    "individual",
		To:               c.wireNumber(to),
		Type:             "text",
		Text:             &textPayload{Body: body},
	}
	if replyTo != "" {
		payload.Context = &replyContext{MessageID: replyTo}
	}
	return c.sendMessage(ctx, payload)
}

func (c *client) SendTemplate(ctx context.Context, to, templateName, languageCode string) (*SendResult, error) {
	payload := sendPayload{
		MessagingProduct: messagingProduct,
		RecipientType:    "individual",
		To:               c.wireNumber(to),
		Type:             "template",
		Template: &templatePayload{
			Name:     templateName,
			Language: templateLanguage{Code: languageCode},
		},
	}
	return c.sendMessage(ctx, payload)
}

func (c *client) SendMedia(ctx context.Context, to string, kind, mediaID, caption, filename, replyTo string) (*SendResult, error) {
	payload := sendPayload{
		MessagingProduct: messagingProduct,
		RecipientType:    "individual",
		To:               c.wireNumber(to),
		Type:             kind,
	}

	media := &mediaPayload{ID: mediaID, Caption: caption}
	switch kind {
	case "image":
		payload.Image = media
	case "audio":
		media.Caption = ""
		payload.Audio = media
	case "video":
		payload.Video = media
	case "document":
		media.Filename = filename
		payload.Document = media
	default:
		return nil, fmt.Errorf("unsupported media kind: %s", kind)
	}

	if replyTo != "" {
		payload.Context = &replyContext{MessageID: replyTo}
	}
	return c.sendMessage(ctx, payload)
}

// MarkRead reports a read receipt for an inbound message back to the
// provider so the contact sees the blue ticks.
func (c *client) MarkRead(ctx context.Context, messageID string) error {
	payload := sendPayload{
		MessagingProduct: messagingProduct,
		Status:           "read",
		MessageID:        messageID,
	}

	result, err := c.sendMessage(ctx, payload)
	if err != nil {
		return err
	}
	if result.HTTPStatus < 200 || result.HTTPStatus >= 300 {
		return fmt.Errorf("mark read failed: %s", result.ErrorCause)
	}
	return nil
}

func (c *client) sendMessage(ctx context.Context, payload sendPayload) (*SendResult, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	result := &SendResult{
		HTTPStatus: resp.StatusCode,
		Body:       string(raw),
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		result.MessageID = ExtractMessageID(raw)
	} else {
		result.ErrorCause = TranslateErrorBody(resp.StatusCode, raw)
	}

	return result, nil
}

// UploadMedia pushes a local attachment to the provider and returns the
// provider-assigned media id. The caller validates kind and size first.
func (c *client) UploadMedia(ctx context.Context, r io.Reader, size int64, mimeType, filename string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("messaging_product", messagingProduct); err != nil {
		return "", fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.WriteField("type", mimeType); err != nil {
		return "", fmt.Errorf("failed to write form field: %w", err)
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/%s/media", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload media: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("media upload failed: %s", TranslateErrorBody(resp.StatusCode, raw))
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("upload response missing media id")
	}

	return parsed.ID, nil
}

// GetMediaInfo fetches the download URL and MIME type for an inbound
// media id. The URL is short-lived; download promptly.
func (c *client) GetMediaInfo(ctx context.Context, mediaID string) (*MediaInfo, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch media info: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("media info request failed: %s", TranslateErrorBody(resp.StatusCode, raw))
	}

	var info MediaInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("failed to decode media info: %w", err)
	}

	return &info, nil
}

// DownloadMedia streams the binary behind a media info URL. The caller
// owns the returned body.
func (c *client) DownloadMedia(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("media download failed with status %d", resp.StatusCode)
	}

	return resp.Body, nil
}
