package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestListSQLOrdersAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0002_documents.up.sql", "select 1")
	writeFile(t, dir, "0001_users.up.sql", "select 1")
	writeFile(t, dir, "0001_users.down.sql", "select 1")
	writeFile(t, dir, "notes.txt", "not sql")

	names, err := listSQL(dir, ".up.sql")
	if err != nil {
		t.Fatalf("listSQL: %v", err)
	}
	want := []string{"0001_users.up.sql", "0002_documents.up.sql"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

func TestListSQLMissingDir(t *testing.T) {
	names, err := listSQL(filepath.Join(t.TempDir(), "absent"), ".sql")
	if err != nil {
		t.Fatalf("expected nil error for missing dir, got %v", err)
	}
	if names != nil {
		t.Fatalf("expected no names, got %v", names)
	}
}

func TestUpAppliesPendingInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_users.up.sql", "select 1")
	writeFile(t, dir, "0002_documents.up.sql", "select 2")

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_history").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_history").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_users.up.sql"))

	// Only the second file is pending.
	mock.ExpectBegin()
	mock.ExpectExec("select 2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("insert into schema_history").
		WithArgs("0002_documents.up.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m := NewManager(db, dir, "")
	if err := m.Up(context.Background()); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpNothingPending(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_users.up.sql", "select 1")

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_history").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_history").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_users.up.sql"))

	m := NewManager(db, dir, "")
	if err := m.Up(context.Background()); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpRollsBackOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_users.up.sql", "select broken")

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_history").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_history").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec("select broken").WillReturnError(os.ErrInvalid)
	mock.ExpectRollback()

	m := NewManager(db, dir, "")
	if err := m.Up(context.Background()); err == nil {
		t.Fatal("expected failure to propagate")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_history").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_history order by applied_at asc").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("0001_users.up.sql").
			AddRow("0002_documents.up.sql"))

	m := NewManager(db, "", "")
	applied, err := m.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(applied) != 2 || applied[0] != "0001_users.up.sql" {
		t.Fatalf("unexpected status: %v", applied)
	}
}
