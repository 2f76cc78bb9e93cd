package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voterdesk/internal/constants"
	"voterdesk/internal/errors"
	"voterdesk/internal/models"
	"voterdesk/internal/security"
	"voterdesk/pkg/provider"
)

// PreparedMedia is the outcome of an outbound upload: the attachment
// exists at the provider and is mirrored to durable storage.
type PreparedMedia struct {
	MediaID  string `json:"media_id"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

type Handler interface {
	PrepareOutbound(ctx context.Context, filename string, data []byte, kind models.ContentKind) (*PreparedMedia, error)
	MirrorInbound(ctx context.Context, mediaID string) (*models.MediaRef, error)
	CleanupOldFiles(maxAge int64) error
}

type handler struct {
	storeDir string
	config   models.MediaConfig
	client   provider.Client
}

func NewHandler(config models.MediaConfig, client provider.Client) (Handler, error) {
	if err := os.MkdirAll(config.StoreDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create media store directory: %w", err)
	}

	return &handler{
		storeDir: config.StoreDir,
		config:   config,
		client:   client,
	}, nil
}

// PrepareOutbound validates the attachment against the declared kind,
// uploads it to the provider, and mirrors it locally. Oversized or
// mismatched-type files fail before any network call.
func (h *handler) PrepareOutbound(ctx context.Context, filename string, data []byte, kind models.ContentKind) (*PreparedMedia, error) {
	if err := security.ValidateFileName(filename); err != nil {
		return nil, fmt.Errorf("invalid media filename: %w", err)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if err := h.validateMedia(kind, ext, int64(len(data))); err != nil {
		return nil, err
	}

	mimeType, ok := constants.ExtensionToMimeType[ext]
	if !ok {
		mimeType = constants.DefaultMimeType
	}

	mediaID, err := h.client.UploadMedia(ctx, bytes.NewReader(data), int64(len(data)), mimeType, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to upload media to provider: %w", err)
	}

	storedName, err := h.store(data, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to mirror media: %w", err)
	}

	return &PreparedMedia{
		MediaID:  mediaID,
		URL:      h.publicURL(storedName),
		Filename: filename,
	}, nil
}

// MirrorInbound fetches a provider-hosted attachment and re-uploads it
// to durable storage so operators can view it after the provider's own
// retention lapses. The extension comes from the reported MIME type.
func (h *handler) MirrorInbound(ctx context.Context, mediaID string) (*models.MediaRef, error) {
	info, err := h.client.GetMediaInfo(ctx, mediaID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch media metadata: %w", err)
	}

	body, err := h.client.DownloadMedia(ctx, info.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read media body: %w", err)
	}

	ext, ok := constants.MimeTypeToExtension[info.MimeType]
	if !ok {
		ext = constants.DefaultBinaryExtension
	}

	storedName, err := h.store(data, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to mirror media: %w", err)
	}

	return &models.MediaRef{
		MediaID:  mediaID,
		URL:      h.publicURL(storedName),
		Filename: storedName,
	}, nil
}

// store writes content-addressed files so duplicate attachments share
// one copy.
func (h *handler) store(data []byte, ext string) (string, error) {
	hash := sha256.Sum256(data)
	name := fmt.Sprintf("%x.%s", hash, ext)
	path := filepath.Join(h.storeDir, name)

	if _, err := os.Stat(path); err == nil {
		return name, nil
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	return name, nil
}

func (h *handler) publicURL(storedName string) string {
	base := strings.TrimSuffix(h.config.PublicBaseURL, "/")
	if base == "" {
		return "/media/" + storedName
	}
	return base + "/" + storedName
}

func (h *handler) validateMedia(kind models.ContentKind, ext string, size int64) error {
	var (
		maxSizeMB int
		allowed   []string
	)

	switch kind {
	case models.ContentImage:
		maxSizeMB = h.config.MaxSizeMB.ImageMB
		allowed = h.config.AllowedTypes.Image
	case models.ContentAudio:
		maxSizeMB = h.config.MaxSizeMB.AudioMB
		allowed = h.config.AllowedTypes.Audio
	case models.ContentVideo:
		maxSizeMB = h.config.MaxSizeMB.VideoMB
		allowed = h.config.AllowedTypes.Video
	case models.ContentDocument:
		maxSizeMB = h.config.MaxSizeMB.DocumentMB
		allowed = h.config.AllowedTypes.Document
	default:
		return errors.New(errors.ErrCodeMediaValidation,
			fmt.Sprintf("unsupported media kind: %s", kind))
	}

	permitted := false
	for _, allowedExt := range allowed {
		if ext == allowedExt {
			permitted = true
			break
		}
	}
	if !permitted {
		return errors.New(errors.ErrCodeMediaValidation,
			fmt.Sprintf("file type .%s is not allowed for %s", ext, kind)).
			WithUserMessage("This file type cannot be sent as " + string(kind) + ".")
	}

	maxSizeBytes := int64(maxSizeMB) * constants.BytesPerMegabyte
	if size > maxSizeBytes {
		return errors.New(errors.ErrCodeMediaValidation,
			fmt.Sprintf("%s too large: %d > %d bytes", kind, size, maxSizeBytes)).
			WithContext("file_size", size).
			WithContext("limit", maxSizeBytes).
			WithUserMessage(fmt.Sprintf("The file exceeds the %dMB limit for %s.", maxSizeMB, kind))
	}

	return nil
}

// CleanupOldFiles removes mirrored files older than maxAge seconds.
func (h *handler) CleanupOldFiles(maxAge int64) error {
	entries, err := os.ReadDir(h.storeDir)
	if err != nil {
		return fmt.Errorf("failed to read media store directory: %w", err)
	}

	now := time.Now()
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info: %w", err)
		}

		if now.Sub(info.ModTime()).Seconds() > float64(maxAge) {
			path := filepath.Join(h.storeDir, info.Name())
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove old file: %w", err)
			}
		}
	}

	return nil
}
