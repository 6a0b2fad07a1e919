package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"gcghub.id/internal/auth"
	"gcghub.id/internal/obs"
	"gcghub.id/internal/store"
)

// RequireRole rejects requests whose authenticated identity does not hold
// one of the allowed roles. It assumes Authenticate ran earlier in the
// chain; a missing identity is answered with 401, a role mismatch with
// 403.
func RequireRole(allowed ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
				return
			}
			if !slices.Contains(allowed, identity.Role) {
				obs.CountAuthFailure("role_mismatch")
				writeError(w, http.StatusForbidden, codeForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// The fixed instantiations are hierarchical-inclusive: RequireAdmin also
// admits superadmin, RequireUser admits everyone authenticated.
var (
	RequireSuperAdmin = RequireRole(auth.RoleSuperAdmin)
	RequireAdmin      = RequireRole(auth.RoleAdmin, auth.RoleSuperAdmin)
	RequireUser       = RequireRole(auth.RoleUser, auth.RoleAdmin, auth.RoleSuperAdmin)
)

// DirektoratAccess guards data scoped under a direktorat. Superadmin
// passes unconditionally; a request that names no direktorat has nothing
// to scope against and passes; otherwise the identity must belong to the
// named direktorat or hold the admin role.
func (a *API) DirektoratAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
			return
		}
		if identity.Role == auth.RoleSuperAdmin {
			next.ServeHTTP(w, r)
			return
		}

		direktoratID := chi.URLParam(r, "direktoratId")
		if direktoratID == "" {
			direktoratID = peekDirektoratID(r)
		}
		if direktoratID == "" {
			next.ServeHTTP(w, r)
			return
		}

		if identity.DirektoratID != "" && identity.DirektoratID == direktoratID {
			next.ServeHTTP(w, r)
			return
		}
		if identity.Role == auth.RoleAdmin {
			next.ServeHTTP(w, r)
			return
		}

		obs.CountAuthFailure("direktorat_denied")
		writeError(w, http.StatusForbidden, codeForbidden, "Access denied to this direktorat")
	})
}

// DocumentAccess guards a single document record. The decision is
// computed fresh on every request from the document's current access
// fields; store failures answer 500, never allow.
func (a *API) DocumentAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
			return
		}
		if identity.Role == auth.RoleSuperAdmin {
			next.ServeHTTP(w, r)
			return
		}

		documentID := chi.URLParam(r, "id")
		if documentID == "" {
			documentID = chi.URLParam(r, "documentId")
		}
		if documentID == "" {
			next.ServeHTTP(w, r)
			return
		}

		access, err := a.store.Documents().AccessFields(r.Context(), documentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, codeNotFound, "Document not found")
				return
			}
			obs.Logger().Error().Err(err).Str("document_id", documentID).Msg("document access lookup failed")
			writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
			return
		}

		if documentAllowed(identity, access) {
			next.ServeHTTP(w, r)
			return
		}

		obs.CountAuthFailure("document_denied")
		writeError(w, http.StatusForbidden, codeForbidden, "Access denied to this document")
	})
}

// documentAllowed applies the ownership and org-unit rules: uploader,
// assignee, any matching hierarchy level, or admin. An empty org-unit
// field on either side never matches.
func documentAllowed(identity auth.Identity, access *store.DocumentAccess) bool {
	if access.UploadedBy == identity.ID {
		return true
	}
	if access.AssignedTo != "" && access.AssignedTo == identity.ID {
		return true
	}
	if identity.DirektoratID != "" && identity.DirektoratID == access.DirektoratID {
		return true
	}
	if identity.SubdirektoratID != "" && identity.SubdirektoratID == access.SubdirektoratID {
		return true
	}
	if identity.DivisiID != "" && identity.DivisiID == access.DivisiID {
		return true
	}
	return identity.Role == auth.RoleAdmin
}

// peekDirektoratID reads a direktoratId field out of a JSON body without
// consuming it; the body is restored for the downstream handler.
func peekDirektoratID(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	buf, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(buf))
	if err != nil {
		return ""
	}
	var probe struct {
		DirektoratID string `json:"direktoratId"`
	}
	if err := json.Unmarshal(buf, &probe); err != nil {
		return ""
	}
	return probe.DirektoratID
}
