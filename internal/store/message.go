package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateMessageParams represents parameters for appending a message record
type CreateMessageParams struct {
	UserID            uuid.UUID
	ContactID         uuid.UUID
	TemplateID        uuid.UUID
	Content           string
	Direction         string
	MessageType       string
	Status            string
	ErrorMessage      *string
	WhatsAppMessageID *string
	SentAt            time.Time
}

const messageColumns = `id, user_id, contact_id, template_id, content, direction, message_type, status, error_message, whatsapp_message_id, sent_at, created_at`

const sqlCreateMessage = `
INSERT INTO messages (user_id, contact_id, template_id, content, direction, message_type, status, error_message, whatsapp_message_id, sent_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + messageColumns

// CreateMessage appends one send attempt to the message log.
// The log is append-only; rows are never updated or deleted.
func (s *Store) CreateMessage(ctx context.Context, params CreateMessageParams) (Message, error) {
	var message Message
	err := s.db.GetContext(ctx, &message, sqlCreateMessage,
		params.UserID,
		params.ContactID,
		params.TemplateID,
		params.Content,
		params.Direction,
		params.MessageType,
		params.Status,
		params.ErrorMessage,
		params.WhatsAppMessageID,
		params.SentAt)
	if err != nil {
		return Message{}, fmt.Errorf("failed to create message: %w", err)
	}
	return message, nil
}

const sqlListMessagesByContact = `
SELECT ` + messageColumns + `
FROM messages
WHERE user_id = $1 AND contact_id = $2
ORDER BY sent_at DESC
LIMIT $3 OFFSET $4
`

// ListMessagesByContact retrieves a contact's message history, newest first
func (s *Store) ListMessagesByContact(ctx context.Context, userID, contactID uuid.UUID, limit, offset int) ([]Message, error) {
	var messages []Message
	err := s.db.SelectContext(ctx, &messages, sqlListMessagesByContact, userID, contactID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages by contact: %w", err)
	}
	return messages, nil
}

const sqlCountMessagesByStatus = `
SELECT COUNT(*)
FROM messages
WHERE user_id = $1 AND status = $2
`

// CountMessagesByStatus counts a user's messages in a given status
func (s *Store) CountMessagesByStatus(ctx context.Context, userID uuid.UUID, status string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, sqlCountMessagesByStatus, userID, status)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages by status: %w", err)
	}
	return count, nil
}
