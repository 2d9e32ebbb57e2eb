package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetLimitOffset(r *http.Request) (int, int) {
	limit := r.URL.Query().Get("limit")
	offset := r.URL.Query().Get("offset")

	limitInt, err := strconv.Atoi(limit)
	if err != nil {
		limitInt = h.httpCfg.LIMIT
	}

	offsetInt, err := strconv.Atoi(offset)
	if err != nil {
		offsetInt = h.httpCfg.OFFSET
	}

	return limitInt, offsetInt
}

// repoIDParam parses the {repoID} URL parameter
func repoIDParam(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "repoID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid repository ID")
	}
	return id, nil
}
