package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"autosales/internal/observability"
	"autosales/internal/store"
)

var (
	ErrContactNotFound  = errors.New("contact not found")
	ErrDuplicatePhone   = errors.New("contact with this phone already exists")
	ErrInvalidPhone     = errors.New("phone must have 10 or 11 digits")
	ErrContactsMismatch = errors.New("one or more contacts not found")
)

type ContactsProcessor struct {
	store  ContactStore
	logger *observability.Logger
}

func New(contactStore ContactStore, logger *observability.Logger) *ContactsProcessor {
	return &ContactsProcessor{
		store:  contactStore,
		logger: logger,
	}
}

// ListParams carries the query surface of the contact listing
type ListParams struct {
	Page   int
	Limit  int
	Search *string
	Status *string
}

// Pagination describes one page of a listing
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ListResult is the contact listing with its pagination and the
// account-wide status counters.
type ListResult struct {
	Contacts   []store.Contact    `json:"contacts"`
	Pagination Pagination         `json:"pagination"`
	Stats      store.ContactStats `json:"stats"`
}

func (p *ContactsProcessor) List(ctx context.Context, userID uuid.UUID, params ListParams) (ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}

	storeParams := store.ListContactsParams{
		UserID: userID,
		Search: params.Search,
		Status: params.Status,
		Limit:  params.Limit,
		Offset: (params.Page - 1) * params.Limit,
	}

	contacts, err := p.store.ListContacts(ctx, storeParams)
	if err != nil {
		return ListResult{}, fmt.Errorf("failed to list contacts: %w", err)
	}

	total, err := p.store.CountContacts(ctx, storeParams)
	if err != nil {
		return ListResult{}, fmt.Errorf("failed to count contacts: %w", err)
	}

	stats, err := p.store.GetContactStats(ctx, userID)
	if err != nil {
		return ListResult{}, fmt.Errorf("failed to load contact stats: %w", err)
	}

	pages := 0
	if total > 0 {
		pages = (total + params.Limit - 1) / params.Limit
	}

	return ListResult{
		Contacts: contacts,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
			Pages: pages,
		},
		Stats: stats,
	}, nil
}

// CreateParams carries a manually created contact
type CreateParams struct {
	Name          string
	Phone         string
	Email         *string
	Company       *string
	Value         *float64
	DueDate       *time.Time
	InvoiceNumber *string
	Description   *string
}

func (p *ContactsProcessor) Create(ctx context.Context, userID uuid.UUID, params CreateParams) (store.Contact, error) {
	phone := normalizePhone(params.Phone)
	if len(phone) < 10 || len(phone) > 11 {
		return store.Contact{}, ErrInvalidPhone
	}

	_, err := p.store.GetContactByPhone(ctx, userID, phone)
	if err == nil {
		return store.Contact{}, ErrDuplicatePhone
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Contact{}, fmt.Errorf("failed to check for existing contact: %w", err)
	}

	contact, err := p.store.CreateContact(ctx, store.CreateContactParams{
		UserID:        userID,
		Name:          params.Name,
		Phone:         phone,
		Email:         params.Email,
		Company:       params.Company,
		Value:         params.Value,
		DueDate:       params.DueDate,
		InvoiceNumber: params.InvoiceNumber,
		Description:   params.Description,
		Status:        store.ContactStatusPending,
		Source:        store.ContactSourceManual,
	})
	if err != nil {
		return store.Contact{}, fmt.Errorf("failed to create contact: %w", err)
	}
	return contact, nil
}

func (p *ContactsProcessor) Get(ctx context.Context, userID, contactID uuid.UUID) (store.Contact, error) {
	contact, err := p.store.GetContactByID(ctx, contactID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Contact{}, ErrContactNotFound
		}
		return store.Contact{}, fmt.Errorf("failed to load contact: %w", err)
	}
	return contact, nil
}

// Update applies a partial update. Nil fields keep their stored value,
// so the same path serves both PUT and PATCH callers.
func (p *ContactsProcessor) Update(ctx context.Context, userID, contactID uuid.UUID, params store.UpdateContactParams) (store.Contact, error) {
	if params.Phone != nil {
		phone := normalizePhone(*params.Phone)
		if len(phone) < 10 || len(phone) > 11 {
			return store.Contact{}, ErrInvalidPhone
		}
		existing, err := p.store.GetContactByPhone(ctx, userID, phone)
		if err == nil && existing.ID != contactID {
			return store.Contact{}, ErrDuplicatePhone
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return store.Contact{}, fmt.Errorf("failed to check for existing contact: %w", err)
		}
		params.Phone = &phone
	}

	contact, err := p.store.UpdateContact(ctx, contactID, userID, params)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Contact{}, ErrContactNotFound
		}
		return store.Contact{}, fmt.Errorf("failed to update contact: %w", err)
	}
	return contact, nil
}

func (p *ContactsProcessor) Delete(ctx context.Context, userID, contactID uuid.UUID) error {
	err := p.store.DeleteContact(ctx, contactID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrContactNotFound
		}
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

// BulkDelete removes the given contacts. Every id must exist and be
// owned by the caller or nothing is deleted.
func (p *ContactsProcessor) BulkDelete(ctx context.Context, userID uuid.UUID, contactIDs []uuid.UUID) (int, error) {
	if len(contactIDs) == 0 {
		return 0, nil
	}

	owned, err := p.store.CountContactsByIDs(ctx, userID, contactIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to verify contacts: %w", err)
	}
	if owned != len(contactIDs) {
		return 0, ErrContactsMismatch
	}

	deleted, err := p.store.DeleteContactsByIDs(ctx, userID, contactIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete contacts: %w", err)
	}
	return deleted, nil
}

// ImportContact is one confirmed spreadsheet row handed to Import
type ImportContact struct {
	Name          string  `json:"name"`
	Phone         string  `json:"phone"`
	Email         string  `json:"email"`
	Company       string  `json:"company"`
	Value         float64 `json:"value"`
	DueDate       string  `json:"dueDate"`
	InvoiceNumber string  `json:"invoiceNumber"`
	Description   string  `json:"description"`
}

// Import persists confirmed spreadsheet rows. Rows whose phone already
// exists for the account are skipped rather than failing the batch.
func (p *ContactsProcessor) Import(ctx context.Context, userID uuid.UUID, contacts []ImportContact) (int, error) {
	params := make([]store.CreateContactParams, 0, len(contacts))
	for _, c := range contacts {
		phone := normalizePhone(c.Phone)
		if len(phone) < 10 || len(phone) > 11 {
			continue
		}

		row := store.CreateContactParams{
			UserID: userID,
			Name:   c.Name,
			Phone:  phone,
			Status: store.ContactStatusPending,
			Source: store.ContactSourceUpload,
		}
		if c.Email != "" {
			email := c.Email
			row.Email = &email
		}
		if c.Company != "" {
			company := c.Company
			row.Company = &company
		}
		if c.Value != 0 {
			value := c.Value
			row.Value = &value
		}
		if c.DueDate != "" {
			if due, err := time.Parse("2006-01-02", c.DueDate); err == nil {
				row.DueDate = &due
			}
		}
		if c.InvoiceNumber != "" {
			invoice := c.InvoiceNumber
			row.InvoiceNumber = &invoice
		}
		if c.Description != "" {
			description := c.Description
			row.Description = &description
		}
		params = append(params, row)
	}

	if len(params) == 0 {
		return 0, nil
	}

	inserted, err := p.store.BulkInsertContacts(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("failed to import contacts: %w", err)
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "user_id", Value: userID.String()},
	)
	p.logger.Info(ctx, fmt.Sprintf("imported %d of %d contacts", inserted, len(contacts)))

	return inserted, nil
}

func normalizePhone(phone string) string {
	out := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			out = append(out, phone[i])
		}
	}
	return string(out)
}
