package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"autosales/internal/observability"
	"autosales/internal/store"
)

type fakeContactStore struct {
	contacts map[uuid.UUID]store.Contact

	listed   []store.Contact
	total    int
	stats    store.ContactStats
	inserted []store.CreateContactParams
}

func newFakeContactStore() *fakeContactStore {
	return &fakeContactStore{contacts: make(map[uuid.UUID]store.Contact)}
}

func (f *fakeContactStore) CreateContact(_ context.Context, params store.CreateContactParams) (store.Contact, error) {
	contact := store.Contact{
		ID:     uuid.New(),
		UserID: params.UserID,
		Name:   params.Name,
		Phone:  params.Phone,
		Status: params.Status,
		Source: params.Source,
	}
	f.contacts[contact.ID] = contact
	return contact, nil
}

func (f *fakeContactStore) GetContactByID(_ context.Context, contactID, userID uuid.UUID) (store.Contact, error) {
	contact, ok := f.contacts[contactID]
	if !ok || contact.UserID != userID {
		return store.Contact{}, store.ErrNotFound
	}
	return contact, nil
}

func (f *fakeContactStore) GetContactByPhone(_ context.Context, userID uuid.UUID, phone string) (store.Contact, error) {
	for _, contact := range f.contacts {
		if contact.UserID == userID && contact.Phone == phone {
			return contact, nil
		}
	}
	return store.Contact{}, store.ErrNotFound
}

func (f *fakeContactStore) ListContacts(_ context.Context, _ store.ListContactsParams) ([]store.Contact, error) {
	return f.listed, nil
}

func (f *fakeContactStore) CountContacts(_ context.Context, _ store.ListContactsParams) (int, error) {
	return f.total, nil
}

func (f *fakeContactStore) GetContactStats(_ context.Context, _ uuid.UUID) (store.ContactStats, error) {
	return f.stats, nil
}

func (f *fakeContactStore) UpdateContact(_ context.Context, contactID, userID uuid.UUID, params store.UpdateContactParams) (store.Contact, error) {
	contact, ok := f.contacts[contactID]
	if !ok || contact.UserID != userID {
		return store.Contact{}, store.ErrNotFound
	}
	if params.Name != nil {
		contact.Name = *params.Name
	}
	if params.Phone != nil {
		contact.Phone = *params.Phone
	}
	if params.Status != nil {
		contact.Status = *params.Status
	}
	f.contacts[contactID] = contact
	return contact, nil
}

func (f *fakeContactStore) DeleteContact(_ context.Context, contactID, userID uuid.UUID) error {
	contact, ok := f.contacts[contactID]
	if !ok || contact.UserID != userID {
		return store.ErrNotFound
	}
	delete(f.contacts, contactID)
	return nil
}

func (f *fakeContactStore) CountContactsByIDs(_ context.Context, userID uuid.UUID, contactIDs []uuid.UUID) (int, error) {
	count := 0
	for _, id := range contactIDs {
		if contact, ok := f.contacts[id]; ok && contact.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeContactStore) DeleteContactsByIDs(_ context.Context, userID uuid.UUID, contactIDs []uuid.UUID) (int, error) {
	deleted := 0
	for _, id := range contactIDs {
		if contact, ok := f.contacts[id]; ok && contact.UserID == userID {
			delete(f.contacts, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeContactStore) BulkInsertContacts(_ context.Context, params []store.CreateContactParams) (int, error) {
	f.inserted = append(f.inserted, params...)
	return len(params), nil
}

func newTestProcessor(fake *fakeContactStore) *ContactsProcessor {
	return New(fake, observability.NewLogger())
}

func TestCreateNormalizesPhone(t *testing.T) {
	fake := newFakeContactStore()
	p := newTestProcessor(fake)
	userID := uuid.New()

	contact, err := p.Create(context.Background(), userID, CreateParams{
		Name:  "Maria",
		Phone: "(11) 98765-4321",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if contact.Phone != "11987654321" {
		t.Errorf("expected digits-only phone, got %q", contact.Phone)
	}
	if contact.Status != store.ContactStatusPending {
		t.Errorf("expected pending status, got %q", contact.Status)
	}
	if contact.Source != store.ContactSourceManual {
		t.Errorf("expected manual source, got %q", contact.Source)
	}
}

func TestCreateRejectsInvalidPhone(t *testing.T) {
	p := newTestProcessor(newFakeContactStore())

	_, err := p.Create(context.Background(), uuid.New(), CreateParams{Name: "Maria", Phone: "123"})
	if !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
}

func TestCreateRejectsDuplicatePhone(t *testing.T) {
	fake := newFakeContactStore()
	p := newTestProcessor(fake)
	userID := uuid.New()

	if _, err := p.Create(context.Background(), userID, CreateParams{Name: "Maria", Phone: "11987654321"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := p.Create(context.Background(), userID, CreateParams{Name: "Outra Maria", Phone: "(11) 98765-4321"})
	if !errors.Is(err, ErrDuplicatePhone) {
		t.Fatalf("expected ErrDuplicatePhone, got %v", err)
	}
}

func TestCreateAllowsSamePhoneForDifferentUsers(t *testing.T) {
	fake := newFakeContactStore()
	p := newTestProcessor(fake)

	if _, err := p.Create(context.Background(), uuid.New(), CreateParams{Name: "Maria", Phone: "11987654321"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := p.Create(context.Background(), uuid.New(), CreateParams{Name: "Maria", Phone: "11987654321"}); err != nil {
		t.Fatalf("expected no error for different owner, got %v", err)
	}
}

func TestUpdateNotOwnedReturnsNotFound(t *testing.T) {
	fake := newFakeContactStore()
	p := newTestProcessor(fake)

	contact, err := p.Create(context.Background(), uuid.New(), CreateParams{Name: "Maria", Phone: "11987654321"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	name := "Renamed"
	_, err = p.Update(context.Background(), uuid.New(), contact.ID, store.UpdateContactParams{Name: &name})
	if !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound for foreign owner, got %v", err)
	}
}

func TestBulkDeleteAllOrNothing(t *testing.T) {
	fake := newFakeContactStore()
	p := newTestProcessor(fake)
	userID := uuid.New()

	contact, err := p.Create(context.Background(), userID, CreateParams{Name: "Maria", Phone: "11987654321"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = p.BulkDelete(context.Background(), userID, []uuid.UUID{contact.ID, uuid.New()})
	if !errors.Is(err, ErrContactsMismatch) {
		t.Fatalf("expected ErrContactsMismatch, got %v", err)
	}
	if len(fake.contacts) != 1 {
		t.Fatal("expected no contacts deleted when batch is invalid")
	}

	deleted, err := p.BulkDelete(context.Background(), userID, []uuid.UUID{contact.ID})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
}

func TestListPagination(t *testing.T) {
	fake := newFakeContactStore()
	fake.total = 45
	p := newTestProcessor(fake)

	result, err := p.List(context.Background(), uuid.New(), ListParams{Page: 2, Limit: 20})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Pagination.Pages != 3 {
		t.Errorf("expected 3 pages, got %d", result.Pagination.Pages)
	}
	if result.Pagination.Total != 45 {
		t.Errorf("expected total 45, got %d", result.Pagination.Total)
	}
}

func TestImportSkipsInvalidPhones(t *testing.T) {
	fake := newFakeContactStore()
	p := newTestProcessor(fake)

	imported, err := p.Import(context.Background(), uuid.New(), []ImportContact{
		{Name: "Maria", Phone: "(11) 98765-4321", DueDate: "2026-03-15", Value: 150.5},
		{Name: "Sem Telefone", Phone: "123"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if imported != 1 {
		t.Fatalf("expected 1 imported, got %d", imported)
	}

	row := fake.inserted[0]
	if row.Phone != "11987654321" {
		t.Errorf("expected digits-only phone, got %q", row.Phone)
	}
	if row.Source != store.ContactSourceUpload {
		t.Errorf("expected upload source, got %q", row.Source)
	}
	if row.DueDate == nil || !row.DueDate.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected parsed due date, got %v", row.DueDate)
	}
}
