package database

import (
	"context"
	"database/sql"
	"fmt"

	"voterdesk/internal/models"
)

// SaveContact caches a voter's display name keyed by contact id. Phone
// numbers are stored with a deterministic nonce so lookups by phone work
// against the encrypted column.
func (d *Database) SaveContact(ctx context.Context, contact *models.Contact) error {
	encryptedPhone, err := d.encryptor.encryptForLookup(contact.Phone)
	if err != nil {
		return fmt.Errorf("failed to encrypt phone number: %w", err)
	}
	encryptedName, err := d.encryptor.encrypt(contact.Name)
	if err != nil {
		return fmt.Errorf("failed to encrypt contact name: %w", err)
	}

	query := `
		INSERT INTO contacts (contact_id, phone_number, display_name, owner_operator_id, cached_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(contact_id) DO UPDATE SET
			phone_number = excluded.phone_number,
			display_name = excluded.display_name,
			owner_operator_id = excluded.owner_operator_id,
			cached_at = CURRENT_TIMESTAMP
	`

	_, err = d.db.ExecContext(ctx, query,
		contact.ContactID,
		encryptedPhone,
		encryptedName,
		nullable(contact.OwnerID),
	)
	if err != nil {
		return fmt.Errorf("failed to save contact: %w", err)
	}

	return nil
}

// GetContact returns the cached contact or nil when unknown.
func (d *Database) GetContact(ctx context.Context, contactID string) (*models.Contact, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, contact_id, phone_number, display_name, owner_operator_id, cached_at
		FROM contacts WHERE contact_id = ?
	`, contactID)
	return d.scanContact(row)
}

// GetContactByPhone resolves an inbound sender's phone to a cached
// contact. The normalized phone must match what SaveContact stored.
func (d *Database) GetContactByPhone(ctx context.Context, phone string) (*models.Contact, error) {
	encryptedPhone, err := d.encryptor.encryptForLookup(phone)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt phone number: %w", err)
	}

	row := d.db.QueryRowContext(ctx, `
		SELECT id, contact_id, phone_number, display_name, owner_operator_id, cached_at
		FROM contacts WHERE phone_number = ?
	`, encryptedPhone)
	return d.scanContact(row)
}

// CleanupOldContacts drops cache entries not refreshed within the
// retention period.
func (d *Database) CleanupOldContacts(retentionDays int) error {
	query := `
		DELETE FROM contacts
		WHERE cached_at < datetime('now', '-' || ? || ' days')
	`

	_, err := d.db.Exec(query, retentionDays)
	if err != nil {
		return fmt.Errorf("failed to cleanup old contacts: %w", err)
	}

	return nil
}

func (d *Database) scanContact(row rowScanner) (*models.Contact, error) {
	var (
		contact                       models.Contact
		encryptedPhone, encryptedName sql.NullString
		ownerID                       sql.NullString
	)

	err := row.Scan(
		&contact.ID,
		&contact.ContactID,
		&encryptedPhone,
		&encryptedName,
		&ownerID,
		&contact.CachedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan contact: %w", err)
	}

	contact.Phone, err = d.encryptor.decrypt(encryptedPhone.String)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt phone number: %w", err)
	}
	contact.Name, err = d.encryptor.decrypt(encryptedName.String)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt contact name: %w", err)
	}
	contact.OwnerID = ownerID.String

	return &contact, nil
}
