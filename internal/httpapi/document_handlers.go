package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gcghub.id/internal/audit"
	"gcghub.id/internal/auth"
	"gcghub.id/internal/obs"
	"gcghub.id/internal/store"
)

type updateDocumentRequest struct {
	Title      string `json:"title"`
	Status     string `json:"status"`
	AssignedTo string `json:"assignedTo"`
}

// handleListDocuments lists documents visible to the caller. Admin tiers
// see everything; a regular user's listing is scoped to their own
// direktorat, or to their uploaded/assigned documents when they belong
// to none.
func (a *API) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
		return
	}

	filter := store.DocumentFilter{}
	if identity.Role == auth.RoleUser {
		if identity.DirektoratID != "" {
			filter.DirektoratID = identity.DirektoratID
		} else {
			// A user outside any direktorat sees only documents they
			// uploaded or were assigned, never an unscoped listing.
			filter.InvolvesUserID = identity.ID
		}
	}
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "Invalid year filter")
			return
		}
		filter.Year = year
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, codeValidation, "Invalid limit")
			return
		}
		filter.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			writeError(w, http.StatusBadRequest, codeValidation, "Invalid offset")
			return
		}
		filter.Offset = offset
	}

	docs, err := a.store.Documents().List(r.Context(), filter)
	if err != nil {
		obs.Logger().Error().Err(err).Msg("document list failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}
	if docs == nil {
		docs = []*store.Document{}
	}
	writeSuccess(w, http.StatusOK, "Documents retrieved successfully", docs)
}

// handleListDirektoratDocuments serves the direktorat-scoped listing; the
// DirektoratAccess guard has already vetted the caller.
func (a *API) handleListDirektoratDocuments(w http.ResponseWriter, r *http.Request) {
	direktoratID := chi.URLParam(r, "direktoratId")
	docs, err := a.store.Documents().List(r.Context(), store.DocumentFilter{DirektoratID: direktoratID})
	if err != nil {
		obs.Logger().Error().Err(err).Msg("direktorat document list failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}
	if docs == nil {
		docs = []*store.Document{}
	}
	writeSuccess(w, http.StatusOK, "Documents retrieved successfully", docs)
}

func (a *API) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := a.store.Documents().Find(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "Document not found")
			return
		}
		obs.Logger().Error().Err(err).Str("document_id", id).Msg("document fetch failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}
	writeSuccess(w, http.StatusOK, "Document retrieved successfully", doc)
}

func (a *API) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, codeValidation, "Title is required")
		return
	}

	doc := &store.Document{
		ID:         id,
		Title:      req.Title,
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
	}
	if err := a.store.Documents().Update(r.Context(), doc); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "Document not found")
			return
		}
		if store.Classify(err) == store.KindForeignKeyViolation {
			writeError(w, http.StatusBadRequest, codeValidation, "Referenced record not found")
			return
		}
		obs.Logger().Error().Err(err).Str("document_id", id).Msg("document update failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	_ = audit.LogEvent(r.Context(), "document.updated", map[string]any{"document_id": id})

	writeSuccess(w, http.StatusOK, "Document updated successfully", nil)
}

func (a *API) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.store.Documents().Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "Document not found")
			return
		}
		obs.Logger().Error().Err(err).Str("document_id", id).Msg("document delete failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	_ = audit.LogEvent(r.Context(), "document.deleted", map[string]any{"document_id": id})

	writeSuccess(w, http.StatusOK, "Document deleted successfully", nil)
}
