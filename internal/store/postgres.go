package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/oklog/ulid/v2"

	"gcghub.id/internal/auth"
)

// newID mints a lexicographically sortable primary key. ULIDs keep the
// index append-mostly, which matters for the created_at-ordered listings.
func newID() string {
	return ulid.Make().String()
}

var _ Store = (*PGStore)(nil)

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	db *sql.DB
}

// Open connects to PostgreSQL and tunes the pool for request-scoped
// lookups.
func Open(dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &PGStore{db: db}, nil
}

// NewPGStore wraps an existing handle; used by tests with sqlmock.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Users() Users         { return &userStore{db: s.db} }
func (s *PGStore) Documents() Documents { return &documentStore{db: s.db} }

func (s *PGStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PGStore) Close() error { return s.db.Close() }

// DB exposes the handle for the migration manager.
func (s *PGStore) DB() *sql.DB { return s.db }

// User store ---------------------------------------------------------------

type userStore struct{ db *sql.DB }

const identityColumns = `id, email, name, role,
	coalesce(direktorat_id, ''), coalesce(subdirektorat_id, ''), coalesce(divisi_id, ''),
	is_active, last_login, created_at, updated_at`

func (s *userStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	return s.db.QueryRowContext(ctx,
		`insert into users(id, email, password_hash, name, role, direktorat_id, subdirektorat_id, divisi_id)
		 values($1, $2, $3, $4, $5, nullif($6,''), nullif($7,''), nullif($8,''))
		 returning is_active, created_at, updated_at`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role,
		u.DirektoratID, u.SubdirektoratID, u.DivisiID,
	).Scan(&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
}

func (s *userStore) FindActiveByID(ctx context.Context, id string) (*auth.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+identityColumns+` from users where id = $1 and is_active = true`, id)
	return scanIdentity(row)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+identityColumns+`, password_hash from users where email = $1`, email)

	var (
		u         User
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role,
		&u.DirektoratID, &u.SubdirektoratID, &u.DivisiID,
		&u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

func (s *userStore) TouchLastLogin(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`update users set last_login = current_timestamp where id = $1`, id)
	return err
}

func (s *userStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set password_hash = $1, updated_at = current_timestamp where id = $2`,
		passwordHash, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanIdentity(row *sql.Row) (*auth.Identity, error) {
	var (
		identity  auth.Identity
		lastLogin sql.NullTime
	)
	err := row.Scan(&identity.ID, &identity.Email, &identity.Name, &identity.Role,
		&identity.DirektoratID, &identity.SubdirektoratID, &identity.DivisiID,
		&identity.IsActive, &lastLogin, &identity.CreatedAt, &identity.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		identity.LastLogin = &lastLogin.Time
	}
	return &identity, nil
}

// Document store ------------------------------------------------------------

type documentStore struct{ db *sql.DB }

const documentColumns = `id, title, coalesce(file_name, ''), coalesce(year, 0), coalesce(status, ''),
	coalesce(direktorat_id, ''), coalesce(subdirektorat_id, ''), coalesce(divisi_id, ''),
	uploaded_by, coalesce(assigned_to, ''), created_at, updated_at`

func (s *documentStore) AccessFields(ctx context.Context, id string) (*DocumentAccess, error) {
	row := s.db.QueryRowContext(ctx,
		`select coalesce(direktorat_id, ''), coalesce(subdirektorat_id, ''), coalesce(divisi_id, ''),
		        uploaded_by, coalesce(assigned_to, '')
		 from documents where id = $1`, id)
	var access DocumentAccess
	err := row.Scan(&access.DirektoratID, &access.SubdirektoratID, &access.DivisiID,
		&access.UploadedBy, &access.AssignedTo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &access, nil
}

func (s *documentStore) Find(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+documentColumns+` from documents where id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentStore) List(ctx context.Context, filter DocumentFilter) ([]*Document, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+documentColumns+` from documents
		 where ($1 = '' or direktorat_id = $1)
		   and ($2 = '' or uploaded_by = $2 or assigned_to = $2)
		   and ($3 = 0 or year = $3)
		 order by created_at desc
		 limit $4 offset $5`,
		filter.DirektoratID, filter.InvolvesUserID, filter.Year, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.FileName, &doc.Year, &doc.Status,
			&doc.DirektoratID, &doc.SubdirektoratID, &doc.DivisiID,
			&doc.UploadedBy, &doc.AssignedTo, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

func (s *documentStore) Update(ctx context.Context, doc *Document) error {
	res, err := s.db.ExecContext(ctx,
		`update documents
		 set title = $1, status = nullif($2,''), assigned_to = nullif($3,''), updated_at = current_timestamp
		 where id = $4`,
		doc.Title, doc.Status, doc.AssignedTo, doc.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *documentStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from documents where id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDocument(row *sql.Row) (*Document, error) {
	var doc Document
	err := row.Scan(&doc.ID, &doc.Title, &doc.FileName, &doc.Year, &doc.Status,
		&doc.DirektoratID, &doc.SubdirektoratID, &doc.DivisiID,
		&doc.UploadedBy, &doc.AssignedTo, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
