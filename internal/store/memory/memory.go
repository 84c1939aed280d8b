// Package memory implements store.Store entirely in process memory. It
// exists for tests and local development, exercising exactly the same
// tree algorithms (store.ApplyMove/ApplyRename/ApplyArchive/...) that the
// postgres backend uses, grounded on the teacher's own in-memory test
// backend pattern (internal/storage/memory, internal/storage/ephemeral).
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/permission"
	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// Limits bounds the fixed capacity caps the catalog enforces at write time.
type Limits struct {
	MaxTags                int
	MaxSystemTags           int
	MaxAttributeLength      int
	MaxCollectionsPerOwner  int
}

// DefaultLimits mirrors the original service's built-in constants.
func DefaultLimits() Limits {
	return Limits{MaxTags: 10, MaxSystemTags: 10, MaxAttributeLength: 100, MaxCollectionsPerOwner: 5}
}

// Store is an in-memory store.Store. The zero value is not usable; use New.
type Store struct {
	mu     sync.RWMutex
	limits Limits

	items     map[uuid.UUID]*types.Item
	storages  map[uuid.UUID]*types.Storage
	extendeds map[uuid.UUID]*types.Extended

	collections     map[uuid.UUID]*types.Collection
	collectionItems map[uuid.UUID]map[uuid.UUID]bool

	favourites map[uuid.UUID]*types.Favourite
	templates  map[uuid.UUID]*types.AttributeTemplate

	lineages    map[uuid.UUID]*types.Lineage
	provenances []types.Provenance

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New constructs an empty in-memory store.
func New(limits Limits) *Store {
	return &Store{
		limits:          limits,
		items:           map[uuid.UUID]*types.Item{},
		storages:        map[uuid.UUID]*types.Storage{},
		extendeds:       map[uuid.UUID]*types.Extended{},
		collections:     map[uuid.UUID]*types.Collection{},
		collectionItems: map[uuid.UUID]map[uuid.UUID]bool{},
		favourites:      map[uuid.UUID]*types.Favourite{},
		templates:       map[uuid.UUID]*types.AttributeTemplate{},
		lineages:        map[uuid.UUID]*types.Lineage{},
		now:             time.Now,
	}
}

func (s *Store) clock() time.Time { return s.now().UTC() }

// Ping always succeeds for the in-memory backend.
func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) combine(item *types.Item, favUser string) types.Combined {
	st := s.storages[item.ID]
	ext := s.extendeds[item.ID]
	c := types.Combined{Item: *item}
	if st != nil {
		c.Storage = *st
	}
	if ext != nil {
		c.Extended = *ext
	}
	if favUser != "" {
		for _, f := range s.favourites {
			if f.User == favUser && f.ItemID != nil && *f.ItemID == item.ID {
				c.Favourite = true
				break
			}
		}
	}
	return c
}

func cloneItem(item *types.Item) *types.Item {
	cp := *item
	if item.Parent != nil {
		p := *item.Parent
		cp.Parent = &p
	}
	return &cp
}

// validateExtended enforces the tag/system-tag/attribute-length caps; it
// does not resolve templates (CreateItem/UpdateItemExtended callers supply
// attributes already checked against their template by internal/httpapi —
// this is the storage-layer half of the check).
func (s *Store) validateExtended(ext *types.Extended) error {
	if ext == nil {
		return nil
	}
	if len(ext.Tags) > s.limits.MaxTags {
		return fmt.Errorf("%w: at most %d tags allowed, got %d", store.ErrValidation, s.limits.MaxTags, len(ext.Tags))
	}
	if len(ext.SystemTags) > s.limits.MaxSystemTags {
		return fmt.Errorf("%w: at most %d system tags allowed, got %d", store.ErrValidation, s.limits.MaxSystemTags, len(ext.SystemTags))
	}
	for _, attrs := range ext.Attributes {
		for k, v := range attrs {
			if len(v) > s.limits.MaxAttributeLength {
				return fmt.Errorf("%w: attribute %q exceeds max length %d", store.ErrValidation, k, s.limits.MaxAttributeLength)
			}
		}
	}
	return nil
}

// findByLocation returns the item at (containerCode, zone, parentPath,
// name) with the given status, or nil.
func (s *Store) findByLocation(containerCode string, zone types.Zone, parentPath, name string, status types.ItemStatus) *types.Item {
	for _, it := range s.items {
		if it.ContainerCode == containerCode && it.Zone == zone && it.Name == name && it.Status == status {
			loc := it.ParentPath
			if status == types.StatusArchived {
				loc = it.RestorePath
			}
			if loc == parentPath {
				return it
			}
		}
	}
	return nil
}

func (s *Store) CreateItem(ctx context.Context, item *types.Item, storage *types.Storage, ext *types.Extended) (*types.Combined, error) {
	if !item.Status.Valid() || !item.Type.Valid() || !item.ContainerType.Valid() {
		return nil, fmt.Errorf("%w: invalid item fields", store.ErrBadRequest)
	}
	if err := s.validateExtended(ext); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.findByLocation(item.ContainerCode, item.Zone, item.ParentPath, item.Name, item.Status); existing != nil {
		return nil, fmt.Errorf("%w: an item named %q already exists at this location", store.ErrDuplicate, item.Name)
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := s.clock()
	item.CreatedTime = now
	item.LastUpdatedTime = now

	stored := cloneItem(item)
	s.items[stored.ID] = stored
	if storage != nil {
		st := *storage
		st.ItemID = stored.ID
		s.storages[stored.ID] = &st
	}
	if ext != nil {
		e := *ext
		e.ItemID = stored.ID
		s.extendeds[stored.ID] = &e
	}
	result := s.combine(stored, "")
	return &result, nil
}

func (s *Store) GetItemByID(ctx context.Context, id uuid.UUID) (*types.Combined, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", store.ErrNotFound, id)
	}
	result := s.combine(it, "")
	return &result, nil
}

func (s *Store) GetItemByLocation(ctx context.Context, containerCode string, zone types.Zone, parentPath string, name string) (*types.Combined, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it := s.findByLocation(containerCode, zone, parentPath, name, types.StatusActive)
	if it == nil {
		it = s.findByLocation(containerCode, zone, parentPath, name, types.StatusRegistered)
	}
	if it == nil {
		return nil, fmt.Errorf("%w: no item named %q at %q", store.ErrNotFound, name, parentPath)
	}
	result := s.combine(it, "")
	return &result, nil
}

func (s *Store) BatchGetItems(ctx context.Context, ids []uuid.UUID) ([]types.Combined, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Combined, 0, len(ids))
	for _, id := range ids {
		if it, ok := s.items[id]; ok {
			out = append(out, s.combine(it, ""))
		}
	}
	return out, nil
}

func (s *Store) matches(it *types.Item, f store.ItemFilter) bool {
	if f.ContainerCode != "" && it.ContainerCode != f.ContainerCode {
		return false
	}
	if it.Status != f.Status {
		return false
	}
	if f.Zone != nil && it.Zone != *f.Zone {
		return false
	}
	if f.Type != nil && it.Type != *f.Type {
		return false
	}
	if f.Owner != nil && it.Owner != *f.Owner {
		return false
	}
	if f.NameContains != nil && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(*f.NameContains)) {
		return false
	}
	if f.ParentID != nil {
		if it.Parent == nil || *it.Parent != *f.ParentID {
			return false
		}
	}
	loc := it.ParentPath
	if f.Status == types.StatusArchived {
		loc = it.RestorePath
	}
	if f.ParentPath != nil {
		if f.Recursive {
			if *f.ParentPath != "" && loc != *f.ParentPath && !strings.HasPrefix(loc, *f.ParentPath+"/") {
				return false
			}
		} else if loc != *f.ParentPath {
			return false
		}
	}
	if f.UpdatedAfter != nil && it.LastUpdatedTime.Before(*f.UpdatedAfter) {
		return false
	}
	if f.UpdatedBefore != nil && it.LastUpdatedTime.After(*f.UpdatedBefore) {
		return false
	}
	return true
}

func (s *Store) ListItems(ctx context.Context, filter store.ItemFilter, decision *permission.Decision, page store.Page) (*store.PageResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shape := filter.Shape()
	var matched []*types.Item
	for _, it := range s.items {
		if !s.matches(it, filter) {
			continue
		}
		if decision != nil && !decision.Allows(it, shape) {
			continue
		}
		matched = append(matched, it)
	}

	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch page.SortBy {
		case "name":
			less = matched[i].Name < matched[j].Name
		case "size":
			less = matched[i].Size < matched[j].Size
		default:
			less = matched[i].CreatedTime.Before(matched[j].CreatedTime)
		}
		if page.SortDesc {
			return !less
		}
		return less
	})

	total := len(matched)
	pageSize := page.Size
	if pageSize <= 0 {
		pageSize = total
	}
	numPages := 0
	if pageSize > 0 {
		numPages = (total + pageSize - 1) / pageSize
	}
	start := 0
	if page.Number > 1 {
		start = (page.Number - 1) * pageSize
	}
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total || pageSize == total {
		end = total
	}

	result := &store.PageResult{Total: total, NumPages: numPages}
	favUser := filter.FavouriteUser
	for _, it := range matched[start:end] {
		c := s.combine(it, favUser)
		if filter.FavouritesOnly && !c.Favourite {
			continue
		}
		result.Items = append(result.Items, c)
	}
	return result, nil
}

func (s *Store) UpdateItemExtended(ctx context.Context, id uuid.UUID, ext *types.Extended) (*types.Combined, error) {
	if err := s.validateExtended(ext); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", store.ErrNotFound, id)
	}
	e := *ext
	e.ItemID = id
	s.extendeds[id] = &e
	it.LastUpdatedTime = s.clock()
	result := s.combine(it, "")
	return &result, nil
}

func (s *Store) UpdateItemStorage(ctx context.Context, id uuid.UUID, st *types.Storage) (*types.Combined, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", store.ErrNotFound, id)
	}
	stp := *st
	stp.ItemID = id
	s.storages[id] = &stp
	it.LastUpdatedTime = s.clock()
	result := s.combine(it, "")
	return &result, nil
}

// deleteFavouritesForItems removes every favourite row referencing any of
// ids, the in-memory equivalent of the postgres favourites table's
// ON DELETE CASCADE foreign key to items. Callers hold s.mu.
func (s *Store) deleteFavouritesForItems(ids []uuid.UUID) {
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for favID, f := range s.favourites {
		if f.ItemID != nil && want[*f.ItemID] {
			delete(s.favourites, favID)
		}
	}
}

// deleteItemCascade removes id plus every row that references it —
// storage, extended, collection memberships, favourites — mirroring the
// cascading foreign keys the postgres backend relies on. Callers hold s.mu.
func (s *Store) deleteItemCascade(id uuid.UUID) {
	delete(s.items, id)
	delete(s.storages, id)
	delete(s.extendeds, id)
	for _, members := range s.collectionItems {
		delete(members, id)
	}
	s.deleteFavouritesForItems([]uuid.UUID{id})
}

func (s *Store) DeleteItem(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("%w: item %s", store.ErrNotFound, id)
	}
	s.deleteItemCascade(id)
	return nil
}

func (s *Store) BulkDeleteItems(ctx context.Context, ids []uuid.UUID) []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := make([]error, len(ids))
	for i, id := range ids {
		if _, ok := s.items[id]; !ok {
			errs[i] = fmt.Errorf("%w: item %s", store.ErrNotFound, id)
			continue
		}
		s.deleteItemCascade(id)
	}
	return errs
}

func (s *Store) BulkCreateItems(ctx context.Context, itemsIn []*types.Item, skipDuplicates bool) ([]types.Combined, []error) {
	results := make([]types.Combined, 0, len(itemsIn))
	errs := make([]error, len(itemsIn))
	for i, it := range itemsIn {
		c, err := s.CreateItem(ctx, it, nil, nil)
		if err != nil {
			if skipDuplicates && store.IsDuplicateErr(err) {
				continue
			}
			errs[i] = err
			continue
		}
		results = append(results, *c)
	}
	return results, errs
}
