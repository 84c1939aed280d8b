package httpapi

import (
	"net/http"
	"strings"

	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// handleLineage serves GET /v1/lineage/{item_id}/.
func (s *Server) handleLineage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	idStr := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/lineage/"), "/")
	id, err := parseUUID(idStr)
	if err != nil {
		writeError(w, types.Wrap(types.ErrBadRequest, "invalid item id"))
		return
	}
	view, err := s.Store.GetLineageView(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, toLineageViewDTO(view))
}
