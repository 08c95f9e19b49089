package processor

import (
	"context"

	"github.com/google/uuid"

	"autosales/internal/store"
)

// ContactStore is the persistence surface the contacts feature needs
type ContactStore interface {
	CreateContact(ctx context.Context, params store.CreateContactParams) (store.Contact, error)
	GetContactByID(ctx context.Context, contactID, userID uuid.UUID) (store.Contact, error)
	GetContactByPhone(ctx context.Context, userID uuid.UUID, phone string) (store.Contact, error)
	ListContacts(ctx context.Context, params store.ListContactsParams) ([]store.Contact, error)
	CountContacts(ctx context.Context, params store.ListContactsParams) (int, error)
	GetContactStats(ctx context.Context, userID uuid.UUID) (store.ContactStats, error)
	UpdateContact(ctx context.Context, contactID, userID uuid.UUID, params store.UpdateContactParams) (store.Contact, error)
	DeleteContact(ctx context.Context, contactID, userID uuid.UUID) error
	CountContactsByIDs(ctx context.Context, userID uuid.UUID, contactIDs []uuid.UUID) (int, error)
	DeleteContactsByIDs(ctx context.Context, userID uuid.UUID, contactIDs []uuid.UUID) (int, error)
	BulkInsertContacts(ctx context.Context, params []store.CreateContactParams) (int, error)
}

var _ ContactStore = (*store.Store)(nil)
