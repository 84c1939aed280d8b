package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// Envelope is the response shape every non-error and error response shares
// (spec §6): code mirrors the HTTP status, result carries the payload.
type Envelope struct {
	Code       int         `json:"code"`
	ErrorMsg   string      `json:"error_msg"`
	Page       int         `json:"page"`
	Total      int         `json:"total"`
	NumOfPages int         `json:"num_of_pages"`
	Result     interface{} `json:"result"`
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	env.Code = status
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// writeResult writes a success envelope around a single result value.
func writeResult(w http.ResponseWriter, status int, result interface{}) {
	writeEnvelope(w, status, Envelope{Total: 1, NumOfPages: 1, Result: result})
}

// writePage writes a success envelope around a paginated listing.
func writePage(w http.ResponseWriter, pageNum, total, numPages int, result interface{}) {
	if result == nil {
		result = []struct{}{}
	}
	writeEnvelope(w, http.StatusOK, Envelope{Page: pageNum, Total: total, NumOfPages: numPages, Result: result})
}

// writeError maps the error taxonomy (internal/types sentinels) to the HTTP
// status table in spec §7 and writes the envelope.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case errors.Is(err, types.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, types.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, types.ErrValidation):
		status = http.StatusUnprocessableEntity
	default:
		msg = "internal server error"
	}
	writeEnvelope(w, status, Envelope{ErrorMsg: msg, Result: []struct{}{}})
}

// pageParams mirrors PaginationRequest: zero-indexed page, default size 25,
// sort field and direction.
type pageParams struct {
	Page     int
	PageSize int
	SortBy   string
	Desc     bool
}

func parsePageParams(q stringLookup) pageParams {
	p := pageParams{Page: 0, PageSize: 25, SortBy: "created_time"}
	if v := q.Get("page"); v != "" {
		if n, err := atoiDefault(v, 0); err == nil {
			p.Page = n
		}
	}
	if v := q.Get("page_size"); v != "" {
		if n, err := atoiDefault(v, 25); err == nil && n > 0 {
			p.PageSize = n
		}
	}
	if v := q.Get("sorting"); v != "" {
		p.SortBy = v
	}
	if q.Get("order") == "desc" {
		p.Desc = true
	}
	return p
}

// stringLookup abstracts url.Values so parsePageParams is testable without
// constructing a full *http.Request.
type stringLookup interface {
	Get(string) string
}

func numPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	return total/pageSize + 1
}
