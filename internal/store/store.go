package store

import (
	"context"
	"time"

	"gcghub.id/internal/auth"
)

// User is the stored account record. The password hash never leaves this
// package boundary except for credential verification.
type User struct {
	auth.Identity
	PasswordHash string
}

// Document is a tracked compliance document. Only the fields the API
// surface needs are modeled here; file storage is a separate concern.
type Document struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	FileName        string    `json:"fileName,omitempty"`
	Year            int       `json:"year,omitempty"`
	Status          string    `json:"status,omitempty"`
	DirektoratID    string    `json:"direktoratId,omitempty"`
	SubdirektoratID string    `json:"subdirektoratId,omitempty"`
	DivisiID        string    `json:"divisiId,omitempty"`
	UploadedBy      string    `json:"uploadedBy"`
	AssignedTo      string    `json:"assignedTo,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// DocumentAccess is the projection the document guard reads to make an
// access decision.
type DocumentAccess struct {
	DirektoratID    string
	SubdirektoratID string
	DivisiID        string
	UploadedBy      string
	AssignedTo      string
}

// DocumentFilter narrows List results. InvolvesUserID restricts the
// listing to documents the user uploaded or is assigned to.
type DocumentFilter struct {
	DirektoratID   string
	InvolvesUserID string
	Year           int
	Limit          int
	Offset         int
}

// Users manages account records.
type Users interface {
	Create(ctx context.Context, u *User) error
	FindActiveByID(ctx context.Context, id string) (*auth.Identity, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	TouchLastLogin(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// Documents manages document records and the guard's access projection.
type Documents interface {
	AccessFields(ctx context.Context, id string) (*DocumentAccess, error)
	Find(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]*Document, error)
	Update(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, id string) error
}

// Store is the persistence collaborator injected into the HTTP layer. It
// owns a process-wide connection pool with an explicit lifecycle so tests
// can substitute a fake.
type Store interface {
	Users() Users
	Documents() Documents
	HealthCheck(ctx context.Context) error
	Close() error
}
