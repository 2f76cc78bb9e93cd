package service

import (
	"context"
	"io"
	"time"

	"voterdesk/internal/models"
	"voterdesk/pkg/media"
	"voterdesk/pkg/provider"

	"github.com/stretchr/testify/mock"
)

type mockLedgerStore struct {
	mock.Mock
}

func (m *mockLedgerStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockLedgerStore) InsertMessageIfAbsent(ctx context.Context, msg *models.Message) (bool, error) {
	args := m.Called(ctx, msg)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedgerStore) GetMessageByID(ctx context.Context, messageID string) (*models.Message, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *mockLedgerStore) UpsertStatus(ctx context.Context, messageID string, status models.MessageStatus, at time.Time) (bool, bool, error) {
	args := m.Called(ctx, messageID, status, at)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

func (m *mockLedgerStore) GetConversationMessages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *mockLedgerStore) LatestContactMessageAt(ctx context.Context, conversationID string) (time.Time, error) {
	args := m.Called(ctx, conversationID)
	return args.Get(0).(time.Time), args.Error(1)
}

type mockContactStore struct {
	mock.Mock
}

func (m *mockContactStore) GetContact(ctx context.Context, contactID string) (*models.Contact, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *mockContactStore) GetContactByPhone(ctx context.Context, phone string) (*models.Contact, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *mockContactStore) SaveContact(ctx context.Context, contact *models.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

type mockProviderClient struct {
	mock.Mock
}

func (m *mockProviderClient) SendText(ctx context.Context, to, body, replyTo string) (*provider.SendResult, error) {
	args := m.Called(ctx, to, body, replyTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.SendResult), args.Error(1)
}

func (m *mockProviderClient) SendTemplate(ctx context.Context, to, templateName, languageCode string) (*provider.SendResult, error) {
	args := m.Called(ctx, to, templateName, languageCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.SendResult), args.Error(1)
}

func (m *mockProviderClient) SendMedia(ctx context.Context, to, kind, mediaID, caption, filename, replyTo string) (*provider.SendResult, error) {
	args := m.Called(ctx, to, kind, mediaID, caption, filename, replyTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.SendResult), args.Error(1)
}

func (m *mockProviderClient) MarkRead(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *mockProviderClient) UploadMedia(ctx context.Context, r io.Reader, size int64, mimeType, filename string) (string, error) {
	args := m.Called(ctx, r, size, mimeType, filename)
	return args.String(0), args.Error(1)
}

func (m *mockProviderClient) GetMediaInfo(ctx context.Context, mediaID string) (*provider.MediaInfo, error) {
	args := m.Called(ctx, mediaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.MediaInfo), args.Error(1)
}

func (m *mockProviderClient) DownloadMedia(ctx context.Context, url string) (io.ReadCloser, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

type mockMediaHandler struct {
	mock.Mock
}

func (m *mockMediaHandler) PrepareOutbound(ctx context.Context, filename string, data []byte, kind models.ContentKind) (*media.PreparedMedia, error) {
	args := m.Called(ctx, filename, data, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.PreparedMedia), args.Error(1)
}

func (m *mockMediaHandler) MirrorInbound(ctx context.Context, mediaID string) (*models.MediaRef, error) {
	args := m.Called(ctx, mediaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MediaRef), args.Error(1)
}

func (m *mockMediaHandler) CleanupOldFiles(maxAge int64) error {
	args := m.Called(maxAge)
	return args.Error(0)
}

// capturingNotifier records every published notification in order.
type capturingNotifier struct {
	published []*models.Notification
}

func (c *capturingNotifier) Publish(ctx context.Context, n *models.Notification) error {
	c.published = append(c.published, n)
	return nil
}
