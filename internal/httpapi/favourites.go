package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/types"
)

type favouriteRequest struct {
	ItemID       *uuid.UUID `json:"item_id"`
	CollectionID *uuid.UUID `json:"collection_id"`
	Pinned       bool       `json:"pinned"`
}

// handleFavourite serves CRUD /v1/favourite/ (create/pin via POST, delete
// via DELETE, targeted by item_id XOR collection_id).
func (s *Server) handleFavourite(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	switch r.Method {
	case http.MethodPost:
		var req favouriteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, types.Wrap(types.ErrValidation, "invalid request body"))
			return
		}
		f, err := s.Store.CreateFavourite(r.Context(), &types.Favourite{User: id.Username, ItemID: req.ItemID, CollectionID: req.CollectionID, Pinned: req.Pinned})
		if err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, http.StatusOK, toFavouriteDTO(f))
	case http.MethodDelete:
		q := r.URL.Query()
		var itemID, collectionID *uuid.UUID
		if v := q.Get("item_id"); v != "" {
			parsed, err := parseUUID(v)
			if err != nil {
				writeError(w, types.Wrap(types.ErrBadRequest, "invalid item_id"))
				return
			}
			itemID = &parsed
		}
		if v := q.Get("collection_id"); v != "" {
			parsed, err := parseUUID(v)
			if err != nil {
				writeError(w, types.Wrap(types.ErrBadRequest, "invalid collection_id"))
				return
			}
			collectionID = &parsed
		}
		if err := s.Store.DeleteFavourite(r.Context(), id.Username, itemID, collectionID); err != nil {
			writeError(w, err)
			return
		}
		writeResult(w, http.StatusOK, map[string]string{"user": id.Username})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleFavouritesList serves GET /v1/favourites/{user}/.
func (s *Server) handleFavouritesList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/favourites/"), "/")
	if user == "" {
		writeError(w, types.Wrap(types.ErrBadRequest, "user is required"))
		return
	}
	favourites, err := s.Store.ListFavourites(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writePage(w, 0, len(favourites), 1, toFavouriteDTOs(favourites))
}
