package service

import (
	"context"
	"fmt"

	"voterdesk/internal/models"
	"voterdesk/internal/validation"
)

// ContactStore is the persistence surface recipient resolution needs.
type ContactStore interface {
	GetContact(ctx context.Context, contactID string) (*models.Contact, error)
	GetContactByPhone(ctx context.Context, phone string) (*models.Contact, error)
	SaveContact(ctx context.Context, contact *models.Contact) error
}

// Resolver turns opaque recipient identifiers into validated,
// phone-normalized contact records.
type Resolver struct {
	store       ContactStore
	countryCode string
}

func NewResolver(store ContactStore, countryCode string) *Resolver {
	return &Resolver{
		store:       store,
		countryCode: countryCode,
	}
}

// Resolve maps each identifier to a contact. Unknown or invalid entries
// become per-item errors, not request failures; the operation fails only
// when zero valid recipients remain.
func (r *Resolver) Resolve(ctx context.Context, recipients []string) ([]*models.Contact, []models.ResolutionError, error) {
	if err := validation.ValidateRecipients(recipients); err != nil {
		return nil, nil, err
	}

	var (
		resolved []*models.Contact
		failures []models.ResolutionError
	)

	for _, id := range recipients {
		contact, err := r.store.GetContact(ctx, id)
		if err != nil {
			failures = append(failures, models.ResolutionError{
				Recipient: id,
				Error:     fmt.Sprintf("lookup failed: %v", err),
			})
			continue
		}
		if contact == nil {
			failures = append(failures, models.ResolutionError{
				Recipient: id,
				Error:     "unknown recipient",
			})
			continue
		}

		normalized, err := validation.NormalizePhone(contact.Phone, r.countryCode)
		if err != nil {
			failures = append(failures, models.ResolutionError{
				Recipient: id,
				Error:     fmt.Sprintf("invalid phone number: %v", err),
			})
			continue
		}

		contact.Phone = normalized
		resolved = append(resolved, contact)
	}

	if len(resolved) == 0 {
		return nil, failures, fmt.Errorf("no valid recipients after resolution (%d failed)", len(failures))
	}

	return resolved, failures, nil
}
