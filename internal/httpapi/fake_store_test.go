package httpapi

import (
	"context"
	"time"

	"gcghub.id/internal/auth"
	"gcghub.id/internal/store"
)

// fakeStore substitutes the persistence collaborator in handler tests.
// Unset hooks fall back to "not found" so tests only stub what they use.
type fakeStore struct {
	users fakeUsers
	docs  fakeDocuments
}

func (f *fakeStore) Users() store.Users                    { return &f.users }
func (f *fakeStore) Documents() store.Documents            { return &f.docs }
func (f *fakeStore) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                          { return nil }

type fakeUsers struct {
	create         func(ctx context.Context, u *store.User) error
	findActiveByID func(ctx context.Context, id string) (*auth.Identity, error)
	findByEmail    func(ctx context.Context, email string) (*store.User, error)

	findActiveCalls int
	touchedIDs      []string
	updatedHash     string
}

func (f *fakeUsers) Create(ctx context.Context, u *store.User) error {
	if f.create != nil {
		return f.create(ctx, u)
	}
	u.ID = "created-id"
	u.IsActive = true
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	return nil
}

func (f *fakeUsers) FindActiveByID(ctx context.Context, id string) (*auth.Identity, error) {
	f.findActiveCalls++
	if f.findActiveByID == nil {
		return nil, store.ErrNotFound
	}
	return f.findActiveByID(ctx, id)
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*store.User, error) {
	if f.findByEmail == nil {
		return nil, store.ErrNotFound
	}
	return f.findByEmail(ctx, email)
}

func (f *fakeUsers) TouchLastLogin(ctx context.Context, id string) error {
	f.touchedIDs = append(f.touchedIDs, id)
	return nil
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, id, hash string) error {
	f.updatedHash = hash
	return nil
}

type fakeDocuments struct {
	accessFields func(ctx context.Context, id string) (*store.DocumentAccess, error)
	find         func(ctx context.Context, id string) (*store.Document, error)
	list         func(ctx context.Context, filter store.DocumentFilter) ([]*store.Document, error)

	accessCalls int
	deletedIDs  []string
}

func (f *fakeDocuments) AccessFields(ctx context.Context, id string) (*store.DocumentAccess, error) {
	f.accessCalls++
	if f.accessFields == nil {
		return nil, store.ErrNotFound
	}
	return f.accessFields(ctx, id)
}

func (f *fakeDocuments) Find(ctx context.Context, id string) (*store.Document, error) {
	if f.find == nil {
		return nil, store.ErrNotFound
	}
	return f.find(ctx, id)
}

func (f *fakeDocuments) List(ctx context.Context, filter store.DocumentFilter) ([]*store.Document, error) {
	if f.list == nil {
		return nil, nil
	}
	return f.list(ctx, filter)
}

func (f *fakeDocuments) Update(ctx context.Context, doc *store.Document) error {
	return nil
}

func (f *fakeDocuments) Delete(ctx context.Context, id string) error {
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}
