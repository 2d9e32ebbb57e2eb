package http

import (
	"net/http"
	"strconv"

	"git-repo-analytics/internal/stats"
	"git-repo-analytics/internal/validation"
)

// GetBusFactor returns the bus factor analysis for a repository
func (h *Handler) GetBusFactor(w http.ResponseWriter, r *http.Request) {
	repoID, err := repoIDParam(r)
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	// Parse query parameters with defaults
	opts := stats.BusFactorOptions{
		Threshold:       0.5,  // Default 50%
		ActiveDays:      0,    // Default: all time
		ExcludePatterns: true, // Default: exclude generated files
	}

	// Parse threshold (0-1)
	if thresholdStr := r.URL.Query().Get("threshold"); thresholdStr != "" {
		if parsed, err := strconv.ParseFloat(thresholdStr, 64); err == nil {
			if parsed > 0 && parsed <= 1 {
				opts.Threshold = parsed
			}
		}
	}

	// Parse days filter (active contributors in last N days)
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if parsed, err := strconv.Atoi(daysStr); err == nil {
			if parsed > 0 {
				opts.ActiveDays = parsed
			}
		}
	}

	// Parse exclude filter (whether to exclude generated files)
	if excludeStr := r.URL.Query().Get("exclude"); excludeStr != "" {
		opts.ExcludePatterns = excludeStr != "false"
	}

	result, err := stats.CalculateBusFactor(r.Context(), h.db.Pool(), repoID, opts)
	if err != nil {
		Error(w, validation.ParseDatabaseError(err), http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, result)
}

// GetChurnStats returns the high churn files for a repository
func (h *Handler) GetChurnStats(w http.ResponseWriter, r *http.Request) {
	repoID, err := repoIDParam(r)
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	// Parse query parameters
	opts := stats.ChurnOptions{
		Limit: 10, // Default
		Days:  0,  // Default: all time
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			opts.Limit = parsed
		}
	}

	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if parsed, err := strconv.Atoi(daysStr); err == nil && parsed > 0 {
			opts.Days = parsed
		}
	}

	result, err := stats.GetHighChurnFiles(r.Context(), h.db.Pool(), repoID, opts)
	if err != nil {
		Error(w, err, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, result)
}

// GetActivityStats returns the commit activity buckets for a repository
func (h *Handler) GetActivityStats(w http.ResponseWriter, r *http.Request) {
	repoID, err := repoIDParam(r)
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	days := 365
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if parsed, err := strconv.Atoi(daysStr); err == nil && parsed > 0 {
			days = parsed
		}
	}

	result, err := stats.GetCommitActivity(r.Context(), h.db.Pool(), repoID, days)
	if err != nil {
		Error(w, err, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"activity": result,
	})
}
