package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/handoverhq/handover/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeError maps the service error taxonomy to HTTP statuses. Anything not
// in the taxonomy is a 500 with a generic message; the detail goes to the log
// only.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		status := http.StatusInternalServerError
		switch ae.Kind {
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindConflict:
			status = http.StatusConflict
		case apperr.KindParse, apperr.KindUpstream:
			status = http.StatusInternalServerError
		}
		body := errorBody{Error: ae.Message}
		if ae.Err != nil {
			body.Details = ae.Err.Error()
		}
		if status >= 500 {
			logger.Error("request failed", "error", err)
		}
		writeJSON(w, status, body)
		return
	}
	logger.Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

func decode(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

// pagination reads optional page/limit query parameters. ok is false when
// neither is present and the caller should return the full list.
type pagination struct {
	Page  int
	Limit int
}

func paginationParams(r *http.Request, defaultLimit int) (pagination, bool) {
	pageStr := r.URL.Query().Get("page")
	limitStr := r.URL.Query().Get("limit")
	if pageStr == "" && limitStr == "" {
		return pagination{}, false
	}
	page, _ := strconv.Atoi(pageStr)
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(limitStr)
	if limit < 1 {
		limit = defaultLimit
	}
	return pagination{Page: page, Limit: limit}, true
}

// paginate slices a list and reports the envelope numbers.
func paginate[T any](items []T, p pagination) ([]T, int) {
	totalPages := (len(items) + p.Limit - 1) / p.Limit
	start := (p.Page - 1) * p.Limit
	if start >= len(items) {
		return []T{}, totalPages
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], totalPages
}
