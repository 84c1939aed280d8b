package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/catalogpath"
	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// descendants returns every item below root (same container/zone/status),
// matched against root's current full path under the location attribute
// that status implies (parent_path for everything but ARCHIVED, which
// keys off restore_path) — mirroring get_item_children's lquery prefix
// search against whichever column is live for that status.
func (s *Store) descendants(root *types.Item) []*types.Item {
	loc := root.ParentPath
	if root.Status == types.StatusArchived {
		loc = root.RestorePath
	}
	fullPath := catalogpath.Join(loc, root.Name)
	var out []*types.Item
	for _, it := range s.items {
		if it.ID == root.ID {
			continue
		}
		if it.ContainerCode != root.ContainerCode || it.Zone != root.Zone || it.Status != root.Status {
			continue
		}
		childLoc := it.ParentPath
		if it.Status == types.StatusArchived {
			childLoc = it.RestorePath
		}
		if childLoc == fullPath || (fullPath != "" && len(childLoc) > len(fullPath) && childLoc[:len(fullPath)+1] == fullPath+"/") {
			out = append(out, it)
		}
	}
	return out
}

func (s *Store) siblingNames(containerCode string, zone types.Zone, parentPath string, status types.ItemStatus, exclude uuid.UUID) map[string]bool {
	taken := map[string]bool{}
	for _, it := range s.items {
		if it.ID == exclude || it.ContainerCode != containerCode || it.Zone != zone || it.Status != status {
			continue
		}
		loc := it.ParentPath
		if status == types.StatusArchived {
			loc = it.RestorePath
		}
		if loc == parentPath {
			taken[it.Name] = true
		}
	}
	return taken
}

func (s *Store) MoveItem(ctx context.Context, id uuid.UUID, in store.MoveInput) (*types.Combined, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	root, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", store.ErrNotFound, id)
	}
	taken := s.siblingNames(root.ContainerCode, root.Zone, in.NewParentPath, root.Status, root.ID)
	if taken[root.Name] {
		return nil, fmt.Errorf("%w: %q already exists at the destination", store.ErrDuplicate, root.Name)
	}
	desc := s.descendants(root)
	store.ApplyMove(root.Name, root.ParentPath, in.NewParentPath, desc)
	root.ParentPath = in.NewParentPath
	root.Parent = in.NewParentID
	now := s.clock()
	root.LastUpdatedTime = now
	for _, d := range desc {
		d.LastUpdatedTime = now
	}
	result := s.combine(root, "")
	return &result, nil
}

func (s *Store) RenameItem(ctx context.Context, id uuid.UUID, in store.RenameInput) (*types.Combined, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	root, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", store.ErrNotFound, id)
	}
	taken := s.siblingNames(root.ContainerCode, root.Zone, root.ParentPath, root.Status, root.ID)
	if taken[in.NewName] {
		return nil, fmt.Errorf("%w: %q already exists at this location", store.ErrDuplicate, in.NewName)
	}
	desc := s.descendants(root)
	store.ApplyRename(root.ParentPath, in.NewName, desc)
	root.Name = in.NewName
	now := s.clock()
	root.LastUpdatedTime = now
	for _, d := range desc {
		d.LastUpdatedTime = now
	}
	result := s.combine(root, "")
	return &result, nil
}

func (s *Store) ArchiveRestoreItem(ctx context.Context, id uuid.UUID, in store.ArchiveRestoreInput) (*types.Combined, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	root, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", store.ErrNotFound, id)
	}
	if root.Status == in.TargetStatus {
		result := s.combine(root, "")
		return &result, nil
	}
	desc := s.descendants(root)
	now := s.clock()

	if in.TargetStatus == types.StatusArchived {
		// Archived items all sit at parent_path "", so the collision set is
		// every other archived name in this container/zone.
		taken := map[string]bool{}
		for _, it := range s.items {
			if it.ID != root.ID && it.ContainerCode == root.ContainerCode && it.Zone == root.Zone &&
				it.Status == types.StatusArchived && it.ParentPath == "" {
				taken[it.Name] = true
			}
		}
		newName := store.AvailableName(root.Name, taken, now.Unix())
		store.ApplyArchive(root, newName, desc)
		root.Deleted = true
		root.DeletedBy = in.DeletedBy
		root.DeletedAt = &now
	} else {
		destName, destParentPath := store.RestoreDestination(root.RestorePath)
		dest := s.findByLocation(root.ContainerCode, root.Zone, destParentPath, destName, types.StatusActive)
		if dest == nil {
			return nil, fmt.Errorf("%w: restore destination %q no longer exists", store.ErrBadRequest, root.RestorePath)
		}
		taken := s.siblingNames(root.ContainerCode, root.Zone, root.RestorePath, types.StatusActive, root.ID)
		newName := store.AvailableName(root.Name, taken, now.Unix())
		store.ApplyRestore(root, &dest.ID, newName, desc)
		root.Deleted = false
		root.DeletedBy = ""
		root.DeletedAt = nil
	}
	root.LastUpdatedTime = now
	for _, d := range desc {
		d.LastUpdatedTime = now
	}

	if in.TargetStatus == types.StatusArchived {
		ids := make([]uuid.UUID, 0, len(desc)+1)
		ids = append(ids, root.ID)
		for _, d := range desc {
			ids = append(ids, d.ID)
		}
		s.deleteFavouritesForItems(ids)
	}

	result := s.combine(root, "")
	return &result, nil
}

func (s *Store) BequeathSubtree(ctx context.Context, id uuid.UUID, in store.BequeathInput) ([]types.Combined, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	root, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", store.ErrNotFound, id)
	}
	if root.Type != types.TypeFolder {
		return nil, fmt.Errorf("%w: properties can only be bequeathed from folders", store.ErrBadRequest)
	}
	desc := s.descendants(root)
	now := s.clock()
	out := make([]types.Combined, 0, len(desc))
	for _, d := range desc {
		ext := s.extendeds[d.ID]
		if ext == nil {
			ext = &types.Extended{ItemID: d.ID}
			s.extendeds[d.ID] = ext
		}
		store.ApplyBequeath(ext, in)
		d.LastUpdatedTime = now
		out = append(out, s.combine(d, ""))
	}
	return out, nil
}
