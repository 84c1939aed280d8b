package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// CreateFavourite pins an item or a collection for a user. Ownership is
// checked asymmetrically, matching the original service's
// create_favourite: any active, non-name_folder item may be favourited by
// anyone, but a collection may only be favourited by its owner.
func (s *Store) CreateFavourite(ctx context.Context, f *types.Favourite) (*types.Favourite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.ItemID != nil {
		item, ok := s.items[*f.ItemID]
		if !ok {
			return nil, fmt.Errorf("%w: item %s", store.ErrNotFound, *f.ItemID)
		}
		if item.Status != types.StatusActive {
			return nil, fmt.Errorf("%w: cannot favourite an archived or incomplete item", store.ErrBadRequest)
		}
		if item.Type == types.TypeNameFolder {
			return nil, fmt.Errorf("%w: cannot favourite an item of type name_folder", store.ErrBadRequest)
		}
	} else if f.CollectionID != nil {
		coll, ok := s.collections[*f.CollectionID]
		if !ok {
			return nil, fmt.Errorf("%w: collection %s", store.ErrNotFound, *f.CollectionID)
		}
		if coll.Owner != f.User {
			return nil, fmt.Errorf("%w: %s does not own collection %s", store.ErrForbidden, f.User, *f.CollectionID)
		}
	} else {
		return nil, fmt.Errorf("%w: favourite must target an item or a collection", store.ErrBadRequest)
	}

	for _, existing := range s.favourites {
		if existing.User != f.User {
			continue
		}
		if f.ItemID != nil && existing.ItemID != nil && *existing.ItemID == *f.ItemID {
			return nil, fmt.Errorf("%w: already favourited", store.ErrDuplicate)
		}
		if f.CollectionID != nil && existing.CollectionID != nil && *existing.CollectionID == *f.CollectionID {
			return nil, fmt.Errorf("%w: already favourited", store.ErrDuplicate)
		}
	}

	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	f.CreatedTime = s.clock()
	cp := *f
	s.favourites[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *Store) DeleteFavourite(ctx context.Context, user string, itemID, collectionID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.favourites {
		if f.User != user {
			continue
		}
		if itemID != nil && f.ItemID != nil && *f.ItemID == *itemID {
			delete(s.favourites, id)
			return nil
		}
		if collectionID != nil && f.CollectionID != nil && *f.CollectionID == *collectionID {
			delete(s.favourites, id)
			return nil
		}
	}
	return fmt.Errorf("%w: favourite not found", store.ErrNotFound)
}

func (s *Store) ListFavourites(ctx context.Context, user string) ([]types.Favourite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Favourite
	for _, f := range s.favourites {
		if f.User != user {
			continue
		}
		if f.ItemID != nil {
			it, ok := s.items[*f.ItemID]
			if !ok || it.Status != types.StatusActive {
				continue
			}
		}
		out = append(out, *f)
	}
	return out, nil
}
