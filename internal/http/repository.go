package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"git-repo-analytics/internal/database"
	"git-repo-analytics/internal/validation"
)

// CreateRepositoryRequest represents the request body for creating a repository
type CreateRepositoryRequest struct {
	URL           string `json:"url"`
	DefaultBranch string `json:"default_branch"`
}

// CreateRepository handles POST /api/v1/repositories
func (h *Handler) CreateRepository(w http.ResponseWriter, r *http.Request) {
	var req CreateRepositoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	// Validate request
	v := validation.New()
	v.Required("url", req.URL).GitURL("url", req.URL)

	if req.DefaultBranch != "" {
		v.MinLength("default_branch", req.DefaultBranch, 1).
			MaxLength("default_branch", req.DefaultBranch, 255)
	}

	if err := v.Validate(); err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	// Set default branch if not provided
	if req.DefaultBranch == "" {
		req.DefaultBranch = "main"
	}

	ctx := r.Context()
	repo := &database.Repository{
		URL:           req.URL,
		DefaultBranch: req.DefaultBranch,
		Status:        database.StatusPending,
	}

	// Database errors (like unique violations) are mapped by Error()
	if err := h.db.CreateRepository(ctx, repo); err != nil {
		parsedErr := validation.ParseDatabaseError(err)
		Error(w, parsedErr, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusCreated, repo)
}

// GetRepository handles GET /api/v1/repositories/{repoID}
func (h *Handler) GetRepository(w http.ResponseWriter, r *http.Request) {
	id, err := repoIDParam(r)
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	repo, err := h.db.GetRepository(r.Context(), id)
	if err != nil {
		if validation.IsNotFound(err) {
			Error(w, fmt.Errorf("repository not found"), http.StatusNotFound)
			return
		}
		Error(w, validation.ParseDatabaseError(err), http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, repo)
}

// GetRepositoryStatus handles GET /api/v1/repositories/{repoID}/status
func (h *Handler) GetRepositoryStatus(w http.ResponseWriter, r *http.Request) {
	id, err := repoIDParam(r)
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	repo, err := h.db.GetRepository(r.Context(), id)
	if err != nil {
		if validation.IsNotFound(err) {
			Error(w, fmt.Errorf("repository not found"), http.StatusNotFound)
			return
		}
		Error(w, fmt.Errorf("failed to get repository status: %w", err), http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"status":           repo.Status,
		"repository_id":    id,
		"last_analyzed_at": repo.LastAnalyzedAt,
	})
}

// ListRepositories handles GET /api/v1/repositories
func (h *Handler) ListRepositories(w http.ResponseWriter, r *http.Request) {
	limit := h.httpCfg.LIMIT
	offset := h.httpCfg.OFFSET

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	// Validate pagination parameters
	v := validation.New()
	v.InRange("limit", limit, 1, 100).
		GreaterThanOrEqual("offset", offset, 0)

	if err := v.Validate(); err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	repos, err := h.db.ListRepositories(r.Context(), limit, offset)
	if err != nil {
		Error(w, validation.ParseDatabaseError(err), http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, repos)
}

// AnalyzeRepository handles POST /api/v1/repositories/{repoID}/analyze
func (h *Handler) AnalyzeRepository(w http.ResponseWriter, r *http.Request) {
	h.queueJob(w, r, "analyze", h.publisher.PublishAnalyzeJob)
}

// RefreshRepository handles POST /api/v1/repositories/{repoID}/refresh
func (h *Handler) RefreshRepository(w http.ResponseWriter, r *http.Request) {
	h.queueJob(w, r, "refresh", h.publisher.PublishRefreshJob)
}

// PurgeRepository handles DELETE /api/v1/repositories/{repoID}
func (h *Handler) PurgeRepository(w http.ResponseWriter, r *http.Request) {
	h.queueJob(w, r, "purge", h.publisher.PublishPurgeJob)
}

// queueJob verifies the repository exists and enqueues a job for it
func (h *Handler) queueJob(w http.ResponseWriter, r *http.Request, kind string, publish func(ctx context.Context, repoID int64) error) {
	id, err := repoIDParam(r)
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	repo, err := h.db.GetRepository(ctx, id)
	if err != nil {
		Error(w, fmt.Errorf("repository not found"), http.StatusNotFound)
		return
	}

	if err := publish(ctx, id); err != nil {
		Error(w, fmt.Errorf("failed to queue %s job: %w", kind, err), http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusAccepted, map[string]interface{}{
		"message":       fmt.Sprintf("%s job queued successfully", kind),
		"repository_id": id,
		"repository":    repo,
	})
}

// GetQueueLength handles GET /api/v1/queue/length
func (h *Handler) GetQueueLength(w http.ResponseWriter, r *http.Request) {
	length, err := h.publisher.GetQueueLength(r.Context())
	if err != nil {
		Error(w, fmt.Errorf("failed to get queue length: %w", err), http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"queue_length": length,
	})
}
