package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

func (s *Store) countOwnerCollections(owner, containerCode string) int {
	n := 0
	for _, c := range s.collections {
		if c.Owner == owner && c.ContainerCode == containerCode {
			n++
		}
	}
	return n
}

func (s *Store) CreateCollection(ctx context.Context, c *types.Collection) (*types.Collection, error) {
	if !types.ValidCollectionName(c.Name) {
		return nil, fmt.Errorf("%w: collection name contains a reserved character", store.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countOwnerCollections(c.Owner, c.ContainerCode) >= s.limits.MaxCollectionsPerOwner {
		return nil, fmt.Errorf("%w: %s already owns the maximum of %d collections in this container", store.ErrValidation, c.Owner, s.limits.MaxCollectionsPerOwner)
	}
	for _, existing := range s.collections {
		if existing.Owner == c.Owner && existing.ContainerCode == c.ContainerCode && existing.Name == c.Name {
			return nil, fmt.Errorf("%w: collection %q already exists", store.ErrDuplicate, c.Name)
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := s.clock()
	c.CreatedTime, c.LastUpdatedTime = now, now
	cp := *c
	s.collections[cp.ID] = &cp
	s.collectionItems[cp.ID] = map[uuid.UUID]bool{}
	out := cp
	return &out, nil
}

func (s *Store) collectionFavourite(id uuid.UUID, favUser string) bool {
	if favUser == "" {
		return false
	}
	for _, f := range s.favourites {
		if f.User == favUser && f.CollectionID != nil && *f.CollectionID == id {
			return true
		}
	}
	return false
}

func (s *Store) GetCollection(ctx context.Context, id uuid.UUID) (*types.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[id]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", store.ErrNotFound, id)
	}
	out := *c
	return &out, nil
}

func (s *Store) ListCollections(ctx context.Context, filter store.CollectionFilter, favUser string) ([]types.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Collection
	for _, c := range s.collections {
		if filter.ContainerCode != "" && c.ContainerCode != filter.ContainerCode {
			continue
		}
		if filter.Owner != nil && c.Owner != *filter.Owner {
			continue
		}
		if filter.NameContains != nil && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(*filter.NameContains)) {
			continue
		}
		cp := *c
		cp.Favourite = s.collectionFavourite(cp.ID, favUser)
		out = append(out, cp)
	}
	return out, nil
}

func (s *Store) RenameCollection(ctx context.Context, id uuid.UUID, newName string) (*types.Collection, error) {
	if !types.ValidCollectionName(newName) {
		return nil, fmt.Errorf("%w: collection name contains a reserved character", store.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[id]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", store.ErrNotFound, id)
	}
	for _, existing := range s.collections {
		if existing.ID != id && existing.Owner == c.Owner && existing.ContainerCode == c.ContainerCode && existing.Name == newName {
			return nil, fmt.Errorf("%w: collection %q already exists", store.ErrDuplicate, newName)
		}
	}
	c.Name = newName
	c.LastUpdatedTime = s.clock()
	out := *c
	return &out, nil
}

func (s *Store) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[id]; !ok {
		return fmt.Errorf("%w: collection %s", store.ErrNotFound, id)
	}
	delete(s.collections, id)
	delete(s.collectionItems, id)
	for fid, f := range s.favourites {
		if f.CollectionID != nil && *f.CollectionID == id {
			delete(s.favourites, fid)
		}
	}
	return nil
}

func (s *Store) AddItemToCollection(ctx context.Context, collectionID, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collectionID]; !ok {
		return fmt.Errorf("%w: collection %s", store.ErrNotFound, collectionID)
	}
	if _, ok := s.items[itemID]; !ok {
		return fmt.Errorf("%w: item %s", store.ErrNotFound, itemID)
	}
	s.collectionItems[collectionID][itemID] = true
	return nil
}

func (s *Store) RemoveItemFromCollection(ctx context.Context, collectionID, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.collectionItems[collectionID]
	if !ok {
		return fmt.Errorf("%w: collection %s", store.ErrNotFound, collectionID)
	}
	if !members[itemID] {
		return fmt.Errorf("%w: item %s is not in this collection", store.ErrNotFound, itemID)
	}
	delete(members, itemID)
	return nil
}

func (s *Store) ListCollectionItems(ctx context.Context, collectionID uuid.UUID, page store.Page) (*store.PageResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members, ok := s.collectionItems[collectionID]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", store.ErrNotFound, collectionID)
	}
	result := &store.PageResult{}
	for itemID := range members {
		if it, ok := s.items[itemID]; ok {
			result.Items = append(result.Items, s.combine(it, ""))
		}
	}
	result.Total = len(result.Items)
	result.NumPages = 1
	return result, nil
}
