package store

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JSONB is a custom type for JSONB fields
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface for JSONB
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for JSONB
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("incompatible type for JSONB")
	}

	// Handle empty or null JSON
	if len(bytes) == 0 || string(bytes) == "null" {
		*j = make(JSONB)
		return nil
	}

	result := make(JSONB)
	err := json.Unmarshal(bytes, &result)
	if err != nil {
		return err
	}
	*j = result
	return nil
}

// StringArray is a custom type for PostgreSQL text[] arrays
type StringArray []string

// Value implements the driver.Valuer interface for StringArray.
// Elements are always quoted so commas, braces and quotes inside an
// element survive the round trip.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}

	var b strings.Builder
	b.WriteByte('{')
	for i, elem := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		for j := 0; j < len(elem); j++ {
			if elem[j] == '"' || elem[j] == '\\' {
				b.WriteByte('\\')
			}
			b.WriteByte(elem[j])
		}
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String(), nil
}

// Scan implements the sql.Scanner interface for StringArray.
// Handles both quoted and bare elements of the text[] literal format.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	var str string
	switch v := value.(type) {
	case []byte:
		str = string(v)
	case string:
		str = v
	default:
		return fmt.Errorf("unsupported type for StringArray: %T", value)
	}

	if str == "" || str == "{}" {
		*a = []string{}
		return nil
	}
	if len(str) >= 2 && str[0] == '{' && str[len(str)-1] == '}' {
		str = str[1 : len(str)-1]
	}
	if str == "" {
		*a = []string{}
		return nil
	}

	out := []string{}
	var elem strings.Builder
	inQuotes := false
	for i := 0; i < len(str); i++ {
		c := str[i]
		switch {
		case inQuotes && c == '\\' && i+1 < len(str):
			i++
			elem.WriteByte(str[i])
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			out = append(out, elem.String())
			elem.Reset()
		default:
			elem.WriteByte(c)
		}
	}
	out = append(out, elem.String())
	*a = out
	return nil
}

// User represents an account owner. Every domain row hangs off a user id.
type User struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	Name           string    `db:"name" json:"name"`
	Plan           string    `db:"plan" json:"plan"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Contact represents a debtor contact belonging to a user.
// Phone is stored digits-only and is unique per user.
type Contact struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	UserID        uuid.UUID  `db:"user_id" json:"user_id"`
	Name          string     `db:"name" json:"name"`
	Phone         string     `db:"phone" json:"phone"`
	Email         *string    `db:"email" json:"email,omitempty"`
	Company       *string    `db:"company" json:"company,omitempty"`
	Value         *float64   `db:"value" json:"value,omitempty"`
	DueDate       *time.Time `db:"due_date" json:"due_date,omitempty"`
	InvoiceNumber *string    `db:"invoice_number" json:"invoice_number,omitempty"`
	Description   *string    `db:"description" json:"description,omitempty"`
	Status        string     `db:"status" json:"status"`
	Source        string     `db:"source" json:"source"`
	ContactCount  int        `db:"contact_count" json:"contact_count"`
	LastContactAt *time.Time `db:"last_contact_at" json:"last_contact_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// IsOverdue reports whether the contact's debt is past due and still pending.
// Overdue is a display state derived at read time, never persisted.
func (c *Contact) IsOverdue(now time.Time) bool {
	if c.DueDate == nil || c.Status != ContactStatusPending {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return c.DueDate.Before(today)
}

// Template represents a reusable message template.
// Variables are re-derived from content on every write and kept in
// source order, duplicates included.
type Template struct {
	ID         uuid.UUID   `db:"id" json:"id"`
	UserID     uuid.UUID   `db:"user_id" json:"user_id"`
	Name       string      `db:"name" json:"name"`
	Content    string      `db:"content" json:"content"`
	Variables  StringArray `db:"variables" json:"variables"`
	Category   string      `db:"category" json:"category"`
	IsActive   bool        `db:"is_active" json:"is_active"`
	UsageCount int         `db:"usage_count" json:"usage_count"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updated_at"`
}

// Campaign represents one dispatch run over a resolved set of contacts.
// TargetContacts stores the resolved contact ids, not the requested ones.
type Campaign struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	UserID         uuid.UUID   `db:"user_id" json:"user_id"`
	Name           string      `db:"name" json:"name"`
	Description    *string     `db:"description" json:"description,omitempty"`
	Type           string      `db:"type" json:"type"`
	TargetContacts StringArray `db:"target_contacts" json:"target_contacts"`
	TemplateID     uuid.UUID   `db:"template_id" json:"template_id"`
	Status         string      `db:"status" json:"status"`
	Stats          JSONB       `db:"stats" json:"stats"`
	StartedAt      *time.Time  `db:"started_at" json:"started_at,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// CampaignStats is the summary written into Campaign.Stats.
// The message log is the source of truth; this is a cached rollup.
type CampaignStats struct {
	TotalContacts     int `json:"totalContacts"`
	MessagesSent      int `json:"messagesSent"`
	MessagesDelivered int `json:"messagesDelivered"`
	MessagesRead      int `json:"messagesRead"`
	ResponsesReceived int `json:"responsesReceived"`
	Conversions       int `json:"conversions"`
}

// ToJSONB converts campaign stats into the JSONB column representation.
func (s CampaignStats) ToJSONB() JSONB {
	return JSONB{
		"totalContacts":     s.TotalContacts,
		"messagesSent":      s.MessagesSent,
		"messagesDelivered": s.MessagesDelivered,
		"messagesRead":      s.MessagesRead,
		"responsesReceived": s.ResponsesReceived,
		"conversions":       s.Conversions,
	}
}

// Message is an append-only record of a single outbound send attempt.
type Message struct {
	ID                uuid.UUID `db:"id" json:"id"`
	UserID            uuid.UUID `db:"user_id" json:"user_id"`
	ContactID         uuid.UUID `db:"contact_id" json:"contact_id"`
	TemplateID        uuid.UUID `db:"template_id" json:"template_id"`
	Content           string    `db:"content" json:"content"`
	Direction         string    `db:"direction" json:"direction"`
	MessageType       string    `db:"message_type" json:"message_type"`
	Status            string    `db:"status" json:"status"`
	ErrorMessage      *string   `db:"error_message" json:"error_message,omitempty"`
	WhatsAppMessageID *string   `db:"whatsapp_message_id" json:"whatsapp_message_id,omitempty"`
	SentAt            time.Time `db:"sent_at" json:"sent_at"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
