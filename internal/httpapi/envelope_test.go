package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hdc-platform/metadata-catalog/internal/types"
)

func TestWriteError_MapsSentinelsToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{types.Wrap(types.ErrBadRequest, "x"), http.StatusBadRequest},
		{types.Wrap(types.ErrUnauthorized, "x"), http.StatusUnauthorized},
		{types.Wrap(types.ErrForbidden, "x"), http.StatusForbidden},
		{types.Wrap(types.ErrNotFound, "x"), http.StatusNotFound},
		{types.Wrap(types.ErrDuplicate, "x"), http.StatusConflict},
		{types.Wrap(types.ErrValidation, "x"), http.StatusUnprocessableEntity},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		writeError(w, c.err)
		if w.Code != c.status {
			t.Errorf("for %v: expected status %d, got %d", c.err, c.status, w.Code)
		}
	}
}

func TestParsePageParams_Defaults(t *testing.T) {
	q := httptest.NewRequest(http.MethodGet, "/v1/items/search/", nil).URL.Query()
	pp := parsePageParams(q)
	if pp.Page != 0 || pp.PageSize != 25 || pp.SortBy != "created_time" || pp.Desc {
		t.Fatalf("unexpected defaults: %+v", pp)
	}
}

func TestParsePageParams_Overrides(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/items/search/?page=2&page_size=10&sorting=name&order=desc", nil)
	pp := parsePageParams(req.URL.Query())
	if pp.Page != 2 || pp.PageSize != 10 || pp.SortBy != "name" || !pp.Desc {
		t.Fatalf("unexpected overrides: %+v", pp)
	}
}

func TestNumPages(t *testing.T) {
	if got := numPages(25, 10); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := numPages(0, 10); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}
