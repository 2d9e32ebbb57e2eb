package http

import (
	"fmt"
	"net/http"
	"strconv"

	"git-repo-analytics/internal/gitlog"
	"git-repo-analytics/internal/pipeline"
	"git-repo-analytics/internal/validation"
)

// GetReport handles GET /api/v1/repositories/{repoID}/report. It
// returns the most recent analysis run with its full report document.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := repoIDParam(r)
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	run, err := h.db.GetLatestAnalysisRun(r.Context(), id)
	if err != nil {
		if validation.IsNotFound(err) {
			Error(w, fmt.Errorf("no analysis run found"), http.StatusNotFound)
			return
		}
		Error(w, validation.ParseDatabaseError(err), http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, run)
}

// GetComplexityHistory handles GET /api/v1/repositories/{repoID}/complexity-history.
// It replays the commit log for one file and reports its complexity at
// each revision that touched it. The repository must have a local clone.
func (h *Handler) GetComplexityHistory(w http.ResponseWriter, r *http.Request) {
	id, err := repoIDParam(r)
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		Error(w, fmt.Errorf("path query parameter is required"), http.StatusBadRequest)
		return
	}

	depth := h.analyzerCfg.HistoryDepth
	if depthStr := r.URL.Query().Get("depth"); depthStr != "" {
		if parsed, err := strconv.Atoi(depthStr); err == nil && parsed > 0 {
			depth = parsed
		}
	}

	ctx := r.Context()
	repo, err := h.db.GetRepository(ctx, id)
	if err != nil {
		Error(w, fmt.Errorf("repository not found"), http.StatusNotFound)
		return
	}
	if repo.LocalPath == nil || *repo.LocalPath == "" {
		Error(w, fmt.Errorf("repository has not been analyzed yet"), http.StatusConflict)
		return
	}

	extractor, err := gitlog.Open(*repo.LocalPath)
	if err != nil {
		Error(w, fmt.Errorf("failed to open repository: %w", err), http.StatusInternalServerError)
		return
	}

	history, err := extractor.Extract(ctx, "")
	if err != nil {
		Error(w, fmt.Errorf("failed to extract history: %w", err), http.StatusInternalServerError)
		return
	}

	p := pipeline.New(pipeline.Config{Extractor: extractor})
	points := p.ComplexityHistory(ctx, history, path, depth)

	JSON(w, http.StatusOK, map[string]interface{}{
		"repository_id": id,
		"path":          path,
		"history":       points,
	})
}
