package http

import (
	"net/http"

	"git-repo-analytics/internal/validation"
)

// ListCommits handles GET /api/v1/repositories/{repoID}/commits
func (h *Handler) ListCommits(w http.ResponseWriter, r *http.Request) {
	id, err := repoIDParam(r)
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	limit, offset := h.GetLimitOffset(r)
	commits, err := h.db.GetCommitsByRepository(r.Context(), id, limit, offset)
	if err != nil {
		Error(w, validation.ParseDatabaseError(err), http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"commits": commits,
	})
}

// ListContributors handles GET /api/v1/repositories/{repoID}/contributors
func (h *Handler) ListContributors(w http.ResponseWriter, r *http.Request) {
	id, err := repoIDParam(r)
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	limit, offset := h.GetLimitOffset(r)
	contributors, err := h.db.GetContributorsByRepository(r.Context(), id, limit, offset)
	if err != nil {
		Error(w, validation.ParseDatabaseError(err), http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"contributors": contributors,
	})
}

// ListFiles handles GET /api/v1/repositories/{repoID}/files
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	id, err := repoIDParam(r)
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	limit, offset := h.GetLimitOffset(r)
	files, err := h.db.GetFilesByRepository(r.Context(), id, limit, offset)
	if err != nil {
		Error(w, validation.ParseDatabaseError(err), http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"files": files,
	})
}

// ListDefinitions handles GET /api/v1/repositories/{repoID}/definitions
func (h *Handler) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	id, err := repoIDParam(r)
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	limit, offset := h.GetLimitOffset(r)
	definitions, err := h.db.GetDefinitionsByRepository(r.Context(), id, limit, offset)
	if err != nil {
		Error(w, validation.ParseDatabaseError(err), http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"definitions": definitions,
	})
}
