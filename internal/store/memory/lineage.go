package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// RecordLineage appends one transformation and its per-item provenance
// snapshots. Both are append-only: neither is ever updated or deleted by
// any other store method.
func (s *Store) RecordLineage(ctx context.Context, l *types.Lineage, snapshots []types.Provenance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	s.lineages[cp.ID] = &cp
	now := s.clock()
	for _, snap := range snapshots {
		if snap.ID == uuid.Nil {
			snap.ID = uuid.New()
		}
		snap.LineageID = &cp.ID
		snap.SnapshotTime = now
		s.provenances = append(s.provenances, snap)
	}
	return nil
}

// GetLineageView walks every lineage row that consumes or produces itemID,
// then every other item those rows touch, transitively, following the
// transformation graph outward in both directions — matching the original
// service's lineage traversal over its consumed/produced edge table.
func (s *Store) GetLineageView(ctx context.Context, itemID uuid.UUID) (*types.LineageProvenanceView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := &types.LineageProvenanceView{
		Lineage:    map[string]types.LineageEntry{},
		Provenance: map[string]types.Provenance{},
	}

	visited := map[uuid.UUID]bool{itemID: true}
	frontier := []uuid.UUID{itemID}

	for len(frontier) > 0 {
		var next []uuid.UUID
		for _, id := range frontier {
			for _, l := range s.lineages {
				touches := containsID(l.Consumes, id) || containsID(l.Produces, id)
				if !touches {
					continue
				}
				entry := types.LineageEntry{TfrmType: l.TfrmType}
				for _, c := range l.Consumes {
					entry.Consumes = append(entry.Consumes, c.String())
					if !visited[c] {
						visited[c] = true
						next = append(next, c)
					}
				}
				for _, p := range l.Produces {
					entry.Produces = append(entry.Produces, p.String())
					if !visited[p] {
						visited[p] = true
						next = append(next, p)
					}
				}
				view.Lineage[l.ID.String()] = entry
			}
		}
		frontier = next
	}

	for id := range visited {
		if snap := s.latestProvenance(id); snap != nil {
			view.Provenance[id.String()] = *snap
		}
	}

	if len(view.Lineage) == 0 {
		if _, ok := s.items[itemID]; !ok {
			return nil, fmt.Errorf("%w: item %s", store.ErrNotFound, itemID)
		}
	}
	return view, nil
}

func (s *Store) latestProvenance(itemID uuid.UUID) *types.Provenance {
	var latest *types.Provenance
	for i := range s.provenances {
		p := s.provenances[i]
		if p.ItemID != itemID {
			continue
		}
		if latest == nil || p.SnapshotTime.After(latest.SnapshotTime) {
			latest = &s.provenances[i]
		}
	}
	return latest
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
