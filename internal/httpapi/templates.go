package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hdc-platform/metadata-catalog/internal/types"
)

type templateRequest struct {
	Name        string              `json:"name"`
	ProjectCode string              `json:"project_code"`
	Attributes  []attributeFieldDTO `json:"attributes"`
}

func (req *templateRequest) toTemplate() *types.AttributeTemplate {
	fields := make([]types.AttributeField, len(req.Attributes))
	for i, f := range req.Attributes {
		fields[i] = types.AttributeField{Name: f.Name, Optional: f.Optional, Type: types.AttributeFieldType(f.Type), Options: f.Options}
	}
	return &types.AttributeTemplate{Name: req.Name, ProjectCode: req.ProjectCode, Attributes: fields}
}

// handleTemplate serves CRUD /v1/template/ (create, get/update/delete by id
// query param).
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req templateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, types.Wrap(types.ErrValidation, "invalid request body"))
			return
		}
		t, err := s.Store.CreateTemplate(r.Context(), req.toTemplate())
		if err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, http.StatusOK, toTemplateDTO(t))
	case http.MethodGet:
		id, err := parseUUID(r.URL.Query().Get("id"))
		if err != nil {
			writeError(w, types.Wrap(types.ErrBadRequest, "id is required"))
			return
		}
		t, err := s.Store.GetTemplate(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, http.StatusOK, toTemplateDTO(t))
	case http.MethodPut:
		id, err := parseUUID(r.URL.Query().Get("id"))
		if err != nil {
			writeError(w, types.Wrap(types.ErrBadRequest, "id is required"))
			return
		}
		var req templateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, types.Wrap(types.ErrValidation, "invalid request body"))
			return
		}
		t := req.toTemplate()
		t.ID = id
		updated, err := s.Store.UpdateTemplate(r.Context(), t)
		if err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, http.StatusOK, toTemplateDTO(updated))
	case http.MethodDelete:
		id, err := parseUUID(r.URL.Query().Get("id"))
		if err != nil {
			writeError(w, types.Wrap(types.ErrBadRequest, "id is required"))
			return
		}
		if err := s.Store.DeleteTemplate(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, http.StatusOK, map[string]string{"id": id.String()})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleTemplatesList serves GET /v1/templates/?project_code=&name=.
func (s *Server) handleTemplatesList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	templates, err := s.Store.ListTemplates(r.Context(), q.Get("project_code"))
	if err != nil {
		writeError(w, err)
		return
	}
	if name := q.Get("name"); name != "" {
		filtered := templates[:0]
		for _, t := range templates {
			if strings.Contains(strings.ToLower(t.Name), strings.ToLower(name)) {
				filtered = append(filtered, t)
			}
		}
		templates = filtered
	}
	writePage(w, 0, len(templates), 1, toTemplateDTOs(templates))
}
