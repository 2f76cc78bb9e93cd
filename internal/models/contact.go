package models

import "time"

// Contact is the stable record the roster backend hands us for a voter:
// an opaque id, a normalized national phone number, and a display name.
// OwnerOperatorID is the canvasser the conversation is assigned to, when
// any; status and inbound notifications route to that operator.
type Contact struct {
	ID         int64     `db:"id"`
	ContactID  string    `db:"contact_id"`
	Phone      string    `db:"phone_number"`
	Name       string    `db:"display_name"`
	OwnerID    string    `db:"owner_operator_id"`
	CachedAt   time.Time `db:"cached_at"`
}

// DisplayName falls back to the phone number when the roster supplied no
// name for the voter.
func (c *Contact) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Phone
}
