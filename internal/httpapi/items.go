package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/eventbus"
	"github.com/hdc-platform/metadata-catalog/internal/permission"
	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// itemCreateRequest is the POST /v1/item/ payload.
type itemCreateRequest struct {
	Name                string                        `json:"name"`
	Type                string                        `json:"type"`
	ContainerCode       string                        `json:"container_code"`
	ContainerType       string                        `json:"container_type"`
	Zone                int                           `json:"zone"`
	Parent              *uuid.UUID                    `json:"parent"`
	ParentPath          string                        `json:"parent_path"`
	Owner               string                        `json:"owner"`
	Size                int64                         `json:"size"`
	Status              string                        `json:"status"`
	Storage             *storageDTO                   `json:"storage"`
	Tags                []string                      `json:"tags"`
	SystemTags          []string                      `json:"system_tags"`
	Attributes          map[string]map[string]string `json:"attributes"`
	AttributeTemplateID *uuid.UUID                    `json:"attribute_template_id"`
	TfrmType            string                        `json:"tfrm_type"`
	TfrmSource          *uuid.UUID                    `json:"tfrm_source"`
}

func (s *Server) resolveDecision(ctx context.Context, containerCode string, containerType types.ContainerType) (*permission.Decision, error) {
	id, _ := identityFromContext(ctx)
	return permission.Resolve(ctx, s.Authority, containerCode, containerType, id)
}

// validateItemShape enforces §3 invariants 1-2 on a not-yet-persisted item.
func validateItemShape(item *types.Item) error {
	switch item.Type {
	case types.TypeNameFolder:
		if item.Parent != nil || item.ParentPath != "" {
			return types.Wrap(types.ErrBadRequest, "a name_folder has no parent or parent_path")
		}
		if item.ContainerType != types.ContainerProject {
			return types.Wrap(types.ErrBadRequest, "a name_folder must belong to a project container")
		}
	case types.TypeFolder, types.TypeFile:
		if item.ContainerType == types.ContainerProject && (item.Parent == nil || item.ParentPath == "") {
			return types.Wrap(types.ErrBadRequest, "a project-container file or folder requires parent and parent_path")
		}
	default:
		return types.Wrap(types.ErrBadRequest, "invalid item type %q", item.Type)
	}
	if item.Type == types.TypeFile && item.Status == types.StatusActive {
		return types.Wrap(types.ErrBadRequest, "a file may not be created ACTIVE; it must start REGISTERED")
	}
	return nil
}

// validateAttributes enforces §3 invariant 6 and §4.2's attribute/template
// consistency check.
func (s *Server) validateAttributes(ctx context.Context, templateID *uuid.UUID, attrs map[string]map[string]string) error {
	if templateID == nil {
		if len(attrs) > 0 {
			return types.Wrap(types.ErrValidation, "attributes require an attribute_template_id")
		}
		return nil
	}
	tpl, err := s.Store.GetTemplate(ctx, *templateID)
	if err != nil {
		return err
	}
	values, ok := attrs[templateID.String()]
	if !ok {
		if len(attrs) == 0 {
			return nil
		}
		return types.Wrap(types.ErrValidation, "attributes must be keyed by the attribute_template_id")
	}
	if len(values) > len(tpl.Attributes) {
		return types.Wrap(types.ErrValidation, "attribute count exceeds template %s", tpl.Name)
	}
	fields := map[string]types.AttributeField{}
	for _, f := range tpl.Attributes {
		fields[f.Name] = f
	}
	for name, val := range values {
		field, ok := fields[name]
		if !ok {
			return types.Wrap(types.ErrValidation, "unknown attribute field %q", name)
		}
		if !field.Optional && len(field.Options) > 0 {
			valid := false
			for _, opt := range field.Options {
				if opt == val {
					valid = true
					break
				}
			}
			if !valid {
				return types.Wrap(types.ErrValidation, "attribute %q value %q is not among the template's options", name, val)
			}
		}
	}
	return nil
}

// publishItem normalizes and publishes a combined record after its owning
// transaction has already committed. A publish failure still surfaces to
// the caller as an error response (spec §4.8: "abort the enclosing API
// call after the database commit is already persisted").
func (s *Server) publishItem(ctx context.Context, c *types.Combined, templateID *uuid.UUID) error {
	if s.Publisher == nil {
		return nil
	}
	rec, err := eventbus.NewItemRecord(c, s.Templates, templateID)
	if err != nil {
		return types.Wrap(types.ErrBadRequest, "normalize item record: %v", err)
	}
	return s.Publisher.Publish(ctx, rec)
}

func (s *Server) handleItemByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/item/")
	rest = strings.Trim(rest, "/")

	switch r.Method {
	case http.MethodGet:
		if rest != "" {
			s.getItemByID(w, r, rest)
			return
		}
		s.getItemByLocation(w, r)
	case http.MethodPost:
		s.createItem(w, r)
	case http.MethodPut:
		s.updateItem(w, r)
	case http.MethodPatch:
		s.patchItemStatus(w, r)
	case http.MethodDelete:
		s.deleteItem(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) getItemByID(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := parseUUID(idStr)
	if err != nil {
		writeError(w, types.Wrap(types.ErrBadRequest, "invalid item id"))
		return
	}
	c, err := s.Store.GetItemByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, toItemDTO(c))
}

func (s *Server) getItemByLocation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	zone, err := parseZone(q.Get("zone"))
	if err != nil || zone == nil {
		writeError(w, types.Wrap(types.ErrBadRequest, "zone is required"))
		return
	}
	c, err := s.Store.GetItemByLocation(r.Context(), q.Get("container_code"), *zone, q.Get("parent_path"), q.Get("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, toItemDTO(c))
}

func (req *itemCreateRequest) toItem() *types.Item {
	status := types.ItemStatus(req.Status)
	if status == "" {
		if types.ItemType(req.Type) == types.TypeFile {
			status = types.StatusRegistered
		} else {
			status = types.StatusActive
		}
	}
	return &types.Item{
		Name:          req.Name,
		Type:          types.ItemType(req.Type),
		Zone:          types.Zone(req.Zone),
		Parent:        req.Parent,
		ParentPath:    req.ParentPath,
		Owner:         req.Owner,
		Size:          req.Size,
		Status:        status,
		ContainerCode: req.ContainerCode,
		ContainerType: types.ContainerType(req.ContainerType),
	}
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var req itemCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, types.Wrap(types.ErrValidation, "invalid request body"))
		return
	}
	item := req.toItem()
	if err := validateItemShape(item); err != nil {
		writeError(w, err)
		return
	}
	if err := s.validateAttributes(r.Context(), req.AttributeTemplateID, req.Attributes); err != nil {
		writeError(w, err)
		return
	}
	var storage *types.Storage
	if req.Storage != nil {
		storage = &types.Storage{LocationURI: req.Storage.LocationURI, Version: req.Storage.Version, UploadID: req.Storage.UploadID}
	}
	ext := &types.Extended{Tags: req.Tags, SystemTags: req.SystemTags, Attributes: req.Attributes}

	c, err := s.Store.CreateItem(r.Context(), item, storage, ext)
	if err != nil {
		writeError(w, err)
		return
	}

	if req.TfrmType == string(types.TfrmCopyToZone) && req.TfrmSource != nil {
		src, err := s.Store.GetItemByID(r.Context(), *req.TfrmSource)
		if err == nil {
			lineage := &types.Lineage{Consumes: []uuid.UUID{*req.TfrmSource}, Produces: []uuid.UUID{c.Item.ID}, TfrmType: types.TfrmCopyToZone}
			snaps := []types.Provenance{snapshotOf(&src.Item), snapshotOf(&c.Item)}
			_ = s.Store.RecordLineage(r.Context(), lineage, snaps)
		}
	} else if c.Item.Type == types.TypeFile {
		_ = s.Store.RecordLineage(r.Context(), &types.Lineage{}, []types.Provenance{snapshotOf(&c.Item)})
	}

	if err := s.publishItem(r.Context(), c, req.AttributeTemplateID); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, toItemDTO(c))
}

func snapshotOf(it *types.Item) types.Provenance {
	return types.Provenance{
		ItemID: it.ID, Parent: it.Parent, ParentPath: it.ParentPath, RestorePath: it.RestorePath,
		Status: it.Status, Type: it.Type, Zone: it.Zone, Name: it.Name, Size: it.Size,
		Owner: it.Owner, ContainerCode: it.ContainerCode, ContainerType: it.ContainerType,
	}
}

// itemUpdateRequest is the PUT /v1/item/?id= payload.
type itemUpdateRequest struct {
	Name                *string                       `json:"name"`
	ParentPath          *string                       `json:"parent_path"`
	ParentID            *uuid.UUID                    `json:"parent"`
	Storage             *storageDTO                   `json:"storage"`
	Tags                []string                      `json:"tags"`
	SystemTags          []string                      `json:"system_tags"`
	Attributes          map[string]map[string]string `json:"attributes"`
	AttributeTemplateID *uuid.UUID                    `json:"attribute_template_id"`
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, types.Wrap(types.ErrBadRequest, "id is required"))
		return
	}
	var req itemUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, types.Wrap(types.ErrValidation, "invalid request body"))
		return
	}
	current, err := s.Store.GetItemByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if current.Item.Status == types.StatusRegistered {
		writeError(w, types.Wrap(types.ErrBadRequest, "a REGISTERED item may only transition status, not be updated"))
		return
	}
	if err := s.validateAttributes(r.Context(), req.AttributeTemplateID, req.Attributes); err != nil {
		writeError(w, err)
		return
	}

	if req.ParentPath != nil && *req.ParentPath != current.Item.ParentPath && current.Item.Status == types.StatusActive {
		current, err = s.Store.MoveItem(r.Context(), id, store.MoveInput{NewParentID: req.ParentID, NewParentPath: *req.ParentPath})
		if err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Name != nil && *req.Name != current.Item.Name && current.Item.Status == types.StatusActive {
		current, err = s.Store.RenameItem(r.Context(), id, store.RenameInput{NewName: *req.Name})
		if err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Storage != nil {
		current, err = s.Store.UpdateItemStorage(r.Context(), id, &types.Storage{LocationURI: req.Storage.LocationURI, Version: req.Storage.Version, UploadID: req.Storage.UploadID})
		if err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Tags != nil || req.SystemTags != nil || req.Attributes != nil {
		ext := &types.Extended{
			Tags:       mergeStrings(current.Extended.Tags, req.Tags),
			SystemTags: mergeStrings(current.Extended.SystemTags, req.SystemTags),
			Attributes: mergeAttributes(current.Extended.Attributes, req.Attributes),
		}
		current, err = s.Store.UpdateItemExtended(r.Context(), id, ext)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	if current.Item.Type == types.TypeFile {
		_ = s.Store.RecordLineage(r.Context(), &types.Lineage{}, []types.Provenance{snapshotOf(&current.Item)})
	}
	if err := s.publishItem(r.Context(), current, req.AttributeTemplateID); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, toItemDTO(current))
}

func mergeStrings(existing, incoming []string) []string {
	if incoming == nil {
		return existing
	}
	return incoming
}

func mergeAttributes(existing, incoming map[string]map[string]string) map[string]map[string]string {
	if incoming == nil {
		return existing
	}
	if existing == nil {
		existing = map[string]map[string]string{}
	}
	for k, v := range incoming {
		existing[k] = v
	}
	return existing
}

// patchItemStatus handles PATCH /v1/item/?id=&status= — trash/restore.
func (s *Server) patchItemStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, err := parseUUID(q.Get("id"))
	if err != nil {
		writeError(w, types.Wrap(types.ErrBadRequest, "id is required"))
		return
	}
	target := types.ItemStatus(q.Get("status"))
	if target != types.StatusArchived && target != types.StatusActive {
		writeError(w, types.Wrap(types.ErrBadRequest, "status must be ARCHIVED or ACTIVE"))
		return
	}
	deletedBy, _ := identityFromContext(r.Context())
	c, err := s.Store.ArchiveRestoreItem(r.Context(), id, store.ArchiveRestoreInput{TargetStatus: target, DeletedBy: deletedBy.Username})
	if err != nil {
		writeError(w, err)
		return
	}
	if c.Item.Type == types.TypeFile {
		lineageType := types.TfrmArchive
		if target == types.StatusArchived {
			_ = s.Store.RecordLineage(r.Context(), &types.Lineage{Consumes: []uuid.UUID{id}, TfrmType: lineageType}, []types.Provenance{snapshotOf(&c.Item)})
		} else {
			_ = s.Store.RecordLineage(r.Context(), &types.Lineage{}, []types.Provenance{snapshotOf(&c.Item)})
		}
	}
	if err := s.publishItem(r.Context(), c, nil); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, http.StatusOK, toItemDTO(c))
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, types.Wrap(types.ErrBadRequest, "id is required"))
		return
	}
	it, err := s.Store.GetItemByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Store.DeleteItem(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	if s.Publisher != nil {
		_ = s.Publisher.Publish(r.Context(), eventbus.DeleteRecord(&it.Item))
	}
	writeResult(w, http.StatusOK, map[string]string{"id": id.String()})
}

func (s *Server) handleItemsSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	filter := store.ItemFilter{
		ContainerCode: q.Get("container_code"),
		ContainerType: types.ContainerType(q.Get("container_type")),
		Status:        types.ItemStatus(orDefault(q.Get("status"), string(types.StatusActive))),
		NameContains:  strPtr(q.Get("name")),
		Owner:         strPtr(q.Get("owner")),
		ParentPath:    strPtr(q.Get("parent_path")),
		RestorePath:   strPtr(q.Get("restore_path")),
		Recursive:     parseBool(q.Get("recursive"), false),
	}
	if t := q.Get("type"); t != "" {
		it := types.ItemType(t)
		filter.Type = &it
	}
	if z, err := parseZone(q.Get("zone")); err == nil && z != nil {
		filter.Zone = z
	}
	if ua, err := parseTime(q.Get("updated_after")); err == nil {
		filter.UpdatedAfter = ua
	}
	if ub, err := parseTime(q.Get("updated_before")); err == nil {
		filter.UpdatedBefore = ub
	}
	if parseBool(q.Get("favourites_only"), false) {
		id, _ := identityFromContext(r.Context())
		filter.FavouritesOnly = true
		filter.FavouriteUser = id.Username
	}

	decision, err := s.resolveDecision(r.Context(), filter.ContainerCode, filter.ContainerType)
	if err != nil {
		writeError(w, err)
		return
	}
	pp := parsePageParams(q)
	result, err := s.Store.ListItems(r.Context(), filter, decision, store.Page{Number: pp.Page + 1, Size: pp.PageSize, SortBy: pp.SortBy, SortDesc: pp.Desc})
	if err != nil {
		writeError(w, err)
		return
	}
	writePage(w, pp.Page, result.Total, numPages(result.Total, pp.PageSize), toItemDTOs(result.Items))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (s *Server) handleItemsBatch(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/items/batch/")
	if rest != "" {
		// not a recognized sub-route under /v1/items/batch/ other than bequeath,
		// which is routed separately.
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.batchGetItems(w, r)
	case http.MethodPost:
		s.bulkCreateItems(w, r)
	case http.MethodPut:
		s.bulkUpdateItems(w, r)
	case http.MethodDelete:
		s.bulkDeleteItems(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) batchGetItems(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := parseUUID(part)
		if err != nil {
			writeError(w, types.Wrap(types.ErrBadRequest, "invalid id %q", part))
			return
		}
		ids = append(ids, id)
	}
	items, err := s.Store.BatchGetItems(r.Context(), ids)
	if err != nil {
		writeError(w, err)
		return
	}
	writePage(w, 0, len(items), 1, toItemDTOs(items))
}

func (s *Server) bulkCreateItems(w http.ResponseWriter, r *http.Request) {
	var reqs []itemCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, types.Wrap(types.ErrValidation, "invalid request body"))
		return
	}
	items := make([]*types.Item, len(reqs))
	for i, req := range reqs {
		item := req.toItem()
		if err := validateItemShape(item); err != nil {
			writeError(w, err)
			return
		}
		items[i] = item
	}
	skipDuplicates := parseBool(r.URL.Query().Get("skip_duplicates"), false)
	created, errs := s.Store.BulkCreateItems(r.Context(), items, skipDuplicates)
	for _, e := range errs {
		if e != nil && !skipDuplicates {
			writeError(w, e)
			return
		}
	}
	for i := range created {
		_ = s.publishItem(r.Context(), &created[i], nil)
	}
	writePage(w, 0, len(created), 1, toItemDTOs(created))
}

func (s *Server) bulkUpdateItems(w http.ResponseWriter, r *http.Request) {
	var reqs []struct {
		ID uuid.UUID `json:"id"`
		itemUpdateRequest
	}
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, types.Wrap(types.ErrValidation, "invalid request body"))
		return
	}
	out := make([]itemDTO, 0, len(reqs))
	for _, req := range reqs {
		current, err := s.Store.GetItemByID(r.Context(), req.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if req.Tags != nil || req.SystemTags != nil || req.Attributes != nil {
			ext := &types.Extended{
				Tags:       mergeStrings(current.Extended.Tags, req.Tags),
				SystemTags: mergeStrings(current.Extended.SystemTags, req.SystemTags),
				Attributes: mergeAttributes(current.Extended.Attributes, req.Attributes),
			}
			current, err = s.Store.UpdateItemExtended(r.Context(), req.ID, ext)
			if err != nil {
				writeError(w, err)
				return
			}
		}
		_ = s.publishItem(r.Context(), current, req.AttributeTemplateID)
		out = append(out, toItemDTO(current))
	}
	writePage(w, 0, len(out), 1, out)
}

func (s *Server) bulkDeleteItems(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := parseUUID(part)
		if err != nil {
			writeError(w, types.Wrap(types.ErrBadRequest, "invalid id %q", part))
			return
		}
		ids = append(ids, id)
	}
	items, _ := s.Store.BatchGetItems(r.Context(), ids)
	errs := s.Store.BulkDeleteItems(r.Context(), ids)
	for _, e := range errs {
		if e != nil {
			writeError(w, e)
			return
		}
	}
	if s.Publisher != nil {
		for i := range items {
			_ = s.Publisher.Publish(r.Context(), eventbus.DeleteRecord(&items[i].Item))
		}
	}
	writeResult(w, http.StatusOK, map[string]int{"deleted": len(ids)})
}

func (s *Server) handleBequeath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, err := parseUUID(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, types.Wrap(types.ErrBadRequest, "id is required"))
		return
	}
	var req struct {
		AttributeTemplateID *uuid.UUID        `json:"attribute_template_id"`
		Attributes          map[string]string `json:"attributes"`
		SystemTags          []string          `json:"system_tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, types.Wrap(types.ErrValidation, "invalid request body"))
		return
	}
	var wrapped map[string]map[string]string
	if req.AttributeTemplateID != nil && req.Attributes != nil {
		wrapped = map[string]map[string]string{req.AttributeTemplateID.String(): req.Attributes}
	}
	if err := s.validateAttributes(r.Context(), req.AttributeTemplateID, wrapped); err != nil {
		writeError(w, err)
		return
	}
	descendants, err := s.Store.BequeathSubtree(r.Context(), id, store.BequeathInput{
		TemplateID: req.AttributeTemplateID,
		Attributes: req.Attributes,
		SystemTags: req.SystemTags,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	for i := range descendants {
		_ = s.publishItem(r.Context(), &descendants[i], req.AttributeTemplateID)
	}
	writePage(w, 0, len(descendants), 1, toItemDTOs(descendants))
}
