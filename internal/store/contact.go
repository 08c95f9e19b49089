package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateContactParams represents parameters for creating a contact
type CreateContactParams struct {
	UserID        uuid.UUID
	Name          string
	Phone         string
	Email         *string
	Company       *string
	Value         *float64
	DueDate       *time.Time
	InvoiceNumber *string
	Description   *string
	Status        string
	Source        string
}

// UpdateContactParams represents parameters for a partial contact update.
// Nil fields keep their current value.
type UpdateContactParams struct {
	Name          *string
	Phone         *string
	Email         *string
	Company       *string
	Value         *float64
	DueDate       *time.Time
	InvoiceNumber *string
	Description   *string
	Status        *string
}

// ContactStats summarizes a user's contact base for the list endpoint
type ContactStats struct {
	Total      int     `db:"total" json:"total"`
	TotalValue float64 `db:"total_value" json:"totalValue"`
	Pending    int     `db:"pending" json:"pending"`
	Sent       int     `db:"sent" json:"sent"`
	Paid       int     `db:"paid" json:"paid"`
}

// ListContactsParams represents filters for listing contacts
type ListContactsParams struct {
	UserID uuid.UUID
	Search *string
	Status *string
	Limit  int
	Offset int
}

const contactColumns = `id, user_id, name, phone, email, company, value, due_date, invoice_number, description, status, source, contact_count, last_contact_at, created_at, updated_at`

const sqlCreateContact = `
INSERT INTO contacts (user_id, name, phone, email, company, value, due_date, invoice_number, description, status, source)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + contactColumns

// CreateContact creates a new contact
func (s *Store) CreateContact(ctx context.Context, params CreateContactParams) (Contact, error) {
	var contact Contact
	err := s.db.GetContext(ctx, &contact, sqlCreateContact,
		params.UserID,
		params.Name,
		params.Phone,
		params.Email,
		params.Company,
		params.Value,
		params.DueDate,
		params.InvoiceNumber,
		params.Description,
		params.Status,
		params.Source)
	if err != nil {
		return Contact{}, fmt.Errorf("failed to create contact: %w", err)
	}
	return contact, nil
}

const sqlGetContactByID = `
SELECT ` + contactColumns + `
FROM contacts
WHERE id = $1 AND user_id = $2
`

// GetContactByID retrieves a contact by ID scoped to its owner
func (s *Store) GetContactByID(ctx context.Context, contactID, userID uuid.UUID) (Contact, error) {
	var contact Contact
	err := s.db.GetContext(ctx, &contact, sqlGetContactByID, contactID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, fmt.Errorf("failed to get contact by id: %w", err)
	}
	return contact, nil
}

const sqlGetContactByPhone = `
SELECT ` + contactColumns + `
FROM contacts
WHERE user_id = $1 AND phone = $2
`

// GetContactByPhone retrieves a contact by normalized phone scoped to its owner
func (s *Store) GetContactByPhone(ctx context.Context, userID uuid.UUID, phone string) (Contact, error) {
	var contact Contact
	err := s.db.GetContext(ctx, &contact, sqlGetContactByPhone, userID, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, fmt.Errorf("failed to get contact by phone: %w", err)
	}
	return contact, nil
}

// ListContacts retrieves contacts with optional search and status filters,
// newest first
func (s *Store) ListContacts(ctx context.Context, params ListContactsParams) ([]Contact, error) {
	query := `SELECT ` + contactColumns + `
	FROM contacts
	WHERE user_id = $1`

	args := []interface{}{params.UserID}
	argCount := 1

	if params.Search != nil && *params.Search != "" {
		argCount++
		query += fmt.Sprintf(" AND (name ILIKE $%d OR phone ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)", argCount, argCount, argCount, argCount)
		args = append(args, "%"+*params.Search+"%")
	}

	if params.Status != nil && *params.Status != "" {
		argCount++
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, *params.Status)
	}

	query += " ORDER BY created_at DESC"

	argCount++
	query += fmt.Sprintf(" LIMIT $%d", argCount)
	args = append(args, params.Limit)

	argCount++
	query += fmt.Sprintf(" OFFSET $%d", argCount)
	args = append(args, params.Offset)

	var contacts []Contact
	err := s.db.SelectContext(ctx, &contacts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

// CountContacts counts contacts matching the list filters
func (s *Store) CountContacts(ctx context.Context, params ListContactsParams) (int, error) {
	query := `SELECT COUNT(*) FROM contacts WHERE user_id = $1`
	args := []interface{}{params.UserID}
	argCount := 1

	if params.Search != nil && *params.Search != "" {
		argCount++
		query += fmt.Sprintf(" AND (name ILIKE $%d OR phone ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)", argCount, argCount, argCount, argCount)
		args = append(args, "%"+*params.Search+"%")
	}

	if params.Status != nil && *params.Status != "" {
		argCount++
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, *params.Status)
	}

	var count int
	err := s.db.GetContext(ctx, &count, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}

const sqlGetContactStats = `
SELECT
	COUNT(*) AS total,
	COALESCE(SUM(value), 0) AS total_value,
	COUNT(*) FILTER (WHERE status = 'pending') AS pending,
	COUNT(*) FILTER (WHERE status = 'contacted') AS sent,
	COUNT(*) FILTER (WHERE status = 'paid') AS paid
FROM contacts
WHERE user_id = $1
`

// GetContactStats computes the aggregate stats over all of a user's contacts
func (s *Store) GetContactStats(ctx context.Context, userID uuid.UUID) (ContactStats, error) {
	var stats ContactStats
	err := s.db.GetContext(ctx, &stats, sqlGetContactStats, userID)
	if err != nil {
		return ContactStats{}, fmt.Errorf("failed to get contact stats: %w", err)
	}
	return stats, nil
}

// UpdateContact applies a partial update. updated_at is always stamped.
func (s *Store) UpdateContact(ctx context.Context, contactID, userID uuid.UUID, params UpdateContactParams) (Contact, error) {
	query := `UPDATE contacts SET updated_at = CURRENT_TIMESTAMP`
	args := []interface{}{}
	argPos := 0

	addSet := func(column string, value interface{}) {
		argPos++
		query += fmt.Sprintf(", %s = $%d", column, argPos)
		args = append(args, value)
	}

	if params.Name != nil {
		addSet("name", *params.Name)
	}
	if params.Phone != nil {
		addSet("phone", *params.Phone)
	}
	if params.Email != nil {
		addSet("email", *params.Email)
	}
	if params.Company != nil {
		addSet("company", *params.Company)
	}
	if params.Value != nil {
		addSet("value", *params.Value)
	}
	if params.DueDate != nil {
		addSet("due_date", *params.DueDate)
	}
	if params.InvoiceNumber != nil {
		addSet("invoice_number", *params.InvoiceNumber)
	}
	if params.Description != nil {
		addSet("description", *params.Description)
	}
	if params.Status != nil {
		addSet("status", *params.Status)
	}

	query += fmt.Sprintf(" WHERE id = $%d AND user_id = $%d RETURNING ", argPos+1, argPos+2) + contactColumns
	args = append(args, contactID, userID)

	var contact Contact
	err := s.db.GetContext(ctx, &contact, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, fmt.Errorf("failed to update contact: %w", err)
	}
	return contact, nil
}

const sqlDeleteContact = `
DELETE FROM contacts
WHERE id = $1 AND user_id = $2
`

// DeleteContact removes a contact scoped to its owner
func (s *Store) DeleteContact(ctx context.Context, contactID, userID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, sqlDeleteContact, contactID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

const sqlCountContactsByIDs = `
SELECT COUNT(*)
FROM contacts
WHERE user_id = $1 AND id = ANY($2::uuid[])
`

// CountContactsByIDs counts how many of the given ids belong to the user
func (s *Store) CountContactsByIDs(ctx context.Context, userID uuid.UUID, contactIDs []uuid.UUID) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, sqlCountContactsByIDs, userID, uuidStrings(contactIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to count contacts by ids: %w", err)
	}
	return count, nil
}

const sqlDeleteContactsByIDs = `
DELETE FROM contacts
WHERE user_id = $1 AND id = ANY($2::uuid[])
`

// DeleteContactsByIDs removes a set of contacts in one statement
func (s *Store) DeleteContactsByIDs(ctx context.Context, userID uuid.UUID, contactIDs []uuid.UUID) (int, error) {
	res, err := s.db.ExecContext(ctx, sqlDeleteContactsByIDs, userID, uuidStrings(contactIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to delete contacts by ids: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

const sqlGetContactsByIDs = `
SELECT ` + contactColumns + `
FROM contacts
WHERE user_id = $1 AND id = ANY($2::uuid[])
`

// GetContactsByIDs retrieves the user's contacts among the given ids.
// Ids that do not exist or belong to someone else are silently absent.
func (s *Store) GetContactsByIDs(ctx context.Context, userID uuid.UUID, contactIDs []uuid.UUID) ([]Contact, error) {
	var contacts []Contact
	err := s.db.SelectContext(ctx, &contacts, sqlGetContactsByIDs, userID, uuidStrings(contactIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts by ids: %w", err)
	}
	return contacts, nil
}

const sqlBulkInsertContact = `
INSERT INTO contacts (user_id, name, phone, email, company, value, due_date, invoice_number, description, status, source)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (user_id, phone) DO NOTHING
`

// BulkInsertContacts inserts parsed rows inside a single transaction.
// Per-user duplicate phones are skipped. Returns the inserted count.
func (s *Store) BulkInsertContacts(ctx context.Context, params []CreateContactParams) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, p := range params {
		res, err := tx.ExecContext(ctx, sqlBulkInsertContact,
			p.UserID, p.Name, p.Phone, p.Email, p.Company, p.Value,
			p.DueDate, p.InvoiceNumber, p.Description, p.Status, p.Source)
		if err != nil {
			return 0, fmt.Errorf("failed to insert contact: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(rows)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bulk insert: %w", err)
	}
	return inserted, nil
}

const sqlMarkContactsContacted = `
UPDATE contacts
SET status = $3,
    last_contact_at = $4,
    contact_count = contact_count + 1,
    updated_at = CURRENT_TIMESTAMP
WHERE user_id = $1 AND id = ANY($2::uuid[])
`

// MarkContactsContacted bulk-updates contacts that received a message:
// status becomes contacted, last_contact_at is set and contact_count grows by one
func (s *Store) MarkContactsContacted(ctx context.Context, userID uuid.UUID, contactIDs []uuid.UUID, contactedAt time.Time) error {
	if len(contactIDs) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, sqlMarkContactsContacted,
		userID, uuidStrings(contactIDs), ContactStatusContacted, contactedAt)
	if err != nil {
		return fmt.Errorf("failed to mark contacts contacted: %w", err)
	}
	return nil
}

// uuidStrings converts uuids into strings for pg array binding
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
