package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"gcghub.id/internal/auth"
	"gcghub.id/internal/store"
)

func listWith(t *testing.T, identity *auth.Identity, target string) (store.DocumentFilter, *httptest.ResponseRecorder) {
	t.Helper()
	var captured store.DocumentFilter
	st := &fakeStore{docs: fakeDocuments{
		list: func(ctx context.Context, filter store.DocumentFilter) ([]*store.Document, error) {
			captured = filter
			return nil, nil
		},
	}}
	api, _ := newTestAPI(t, st)

	req := withIdentity(httptest.NewRequest(http.MethodGet, target, nil), identity)
	rr := httptest.NewRecorder()
	api.handleListDocuments(rr, req)
	return captured, rr
}

func TestListDocumentsScopesUserToDirektorat(t *testing.T) {
	filter, rr := listWith(t, activeIdentity(), "/api/documents")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if filter.DirektoratID != "D1" {
		t.Fatalf("expected direktorat scope D1, got %q", filter.DirektoratID)
	}
	if filter.InvolvesUserID != "" {
		t.Fatalf("unexpected ownership scope %q", filter.InvolvesUserID)
	}
}

func TestListDocumentsDirektoratlessUserScopedToOwnDocuments(t *testing.T) {
	identity := activeIdentity()
	identity.DirektoratID = ""

	filter, rr := listWith(t, identity, "/api/documents")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	// Never an unscoped listing: the filter must pin the caller.
	if filter.InvolvesUserID != identity.ID {
		t.Fatalf("expected ownership scope %q, got %q", identity.ID, filter.InvolvesUserID)
	}
	if filter.DirektoratID != "" {
		t.Fatalf("unexpected direktorat scope %q", filter.DirektoratID)
	}
}

func TestListDocumentsAdminUnscoped(t *testing.T) {
	identity := activeIdentity()
	identity.Role = auth.RoleAdmin
	identity.DirektoratID = ""

	filter, rr := listWith(t, identity, "/api/documents?year=2025&limit=10&offset=5")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if filter.DirektoratID != "" || filter.InvolvesUserID != "" {
		t.Fatalf("admin listing must not be scoped: %+v", filter)
	}
	if filter.Year != 2025 || filter.Limit != 10 || filter.Offset != 5 {
		t.Fatalf("query filters not applied: %+v", filter)
	}
}

func TestListDocumentsBadFilters(t *testing.T) {
	for _, target := range []string{
		"/api/documents?year=abc",
		"/api/documents?limit=0",
		"/api/documents?offset=-1",
	} {
		_, rr := listWith(t, activeIdentity(), target)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rr.Code)
		}
	}
}
