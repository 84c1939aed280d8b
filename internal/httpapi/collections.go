package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

type collectionRequest struct {
	Name          string `json:"name"`
	ContainerCode string `json:"container_code"`
}

// handleCollection serves CRUD /v1/collection/.
func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	switch r.Method {
	case http.MethodPost:
		var req collectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, types.Wrap(types.ErrValidation, "invalid request body"))
			return
		}
		c, err := s.Store.CreateCollection(r.Context(), &types.Collection{Name: req.Name, Owner: id.Username, ContainerCode: req.ContainerCode})
		if err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, http.StatusOK, toCollectionDTO(c))
	case http.MethodGet:
		cid, err := parseUUID(r.URL.Query().Get("id"))
		if err != nil {
			writeError(w, types.Wrap(types.ErrBadRequest, "id is required"))
			return
		}
		c, err := s.Store.GetCollection(r.Context(), cid)
		if err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, http.StatusOK, toCollectionDTO(c))
	case http.MethodPut:
		cid, err := parseUUID(r.URL.Query().Get("id"))
		if err != nil {
			writeError(w, types.Wrap(types.ErrBadRequest, "id is required"))
			return
		}
		var req collectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, types.Wrap(types.ErrValidation, "invalid request body"))
			return
		}
		c, err := s.Store.RenameCollection(r.Context(), cid, req.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, http.StatusOK, toCollectionDTO(c))
	case http.MethodDelete:
		cid, err := parseUUID(r.URL.Query().Get("id"))
		if err != nil {
			writeError(w, types.Wrap(types.ErrBadRequest, "id is required"))
			return
		}
		if err := s.Store.DeleteCollection(r.Context(), cid); err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, http.StatusOK, map[string]string{"id": cid.String()})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleCollectionItems serves /v1/collection/items/?collection_id=&item_id=
// (POST to add, DELETE to remove, GET to list).
func (s *Server) handleCollectionItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	collectionID, err := parseUUID(q.Get("collection_id"))
	if err != nil {
		writeError(w, types.Wrap(types.ErrBadRequest, "collection_id is required"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		pp := parsePageParams(q)
		result, err := s.Store.ListCollectionItems(r.Context(), collectionID, store.Page{Number: pp.Page + 1, Size: pp.PageSize, SortBy: pp.SortBy, SortDesc: pp.Desc})
		if err != nil {
			writeError(w, err)
			return
		}
		writePage(w, pp.Page, result.Total, numPages(result.Total, pp.PageSize), toItemDTOs(result.Items))
	case http.MethodPost:
		itemID, err := parseUUID(q.Get("item_id"))
		if err != nil {
			writeError(w, types.Wrap(types.ErrBadRequest, "item_id is required"))
			return
		}
		if err := s.Store.AddItemToCollection(r.Context(), collectionID, itemID); err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, http.StatusOK, map[string]string{"collection_id": collectionID.String(), "item_id": itemID.String()})
	case http.MethodDelete:
		itemID, err := parseUUID(q.Get("item_id"))
		if err != nil {
			writeError(w, types.Wrap(types.ErrBadRequest, "item_id is required"))
			return
		}
		if err := s.Store.RemoveItemFromCollection(r.Context(), collectionID, itemID); err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, http.StatusOK, map[string]string{"collection_id": collectionID.String(), "item_id": itemID.String()})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleCollectionSearch serves GET /v1/collection/search/.
func (s *Server) handleCollectionSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	filter := store.CollectionFilter{ContainerCode: q.Get("container_code")}
	if owner := q.Get("owner"); owner != "" {
		filter.Owner = &owner
	}
	if name := strings.TrimSpace(q.Get("name")); name != "" {
		filter.NameContains = &name
	}
	id, _ := identityFromContext(r.Context())
	favUser := ""
	if parseBool(q.Get("favourites_only"), false) {
		favUser = id.Username
	}
	collections, err := s.Store.ListCollections(r.Context(), filter, favUser)
	if err != nil {
		writeError(w, err)
		return
	}
	writePage(w, 0, len(collections), 1, toCollectionDTOs(collections))
}
