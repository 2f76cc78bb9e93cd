package service

import (
	"context"

	"voterdesk/internal/models"

	"github.com/sirupsen/logrus"
)

// ContactService resolves operator-facing display names from the
// contacts cache. The roster backend owns the cache contents; this
// service only reads and refreshes entries.
type ContactService struct {
	store  ContactStore
	logger *logrus.Logger
}

func NewContactService(store ContactStore, logger *logrus.Logger) *ContactService {
	return &ContactService{
		store:  store,
		logger: logger,
	}
}

// DisplayName returns the cached name for a contact id, falling back to
// the phone number, then the raw id. Lookup failures degrade to the id
// rather than failing history rendering.
func (cs *ContactService) DisplayName(ctx context.Context, contactID string) string {
	contact, err := cs.store.GetContact(ctx, contactID)
	if err != nil {
		cs.logger.WithError(err).WithField(LogFieldContactID, contactID).
			Debug("Contact lookup failed")
		return contactID
	}
	if contact == nil {
		return contactID
	}
	return contact.DisplayName()
}

// Upsert refreshes a cache entry from the roster backend.
func (cs *ContactService) Upsert(ctx context.Context, contact *models.Contact) error {
	return cs.store.SaveContact(ctx, contact)
}
