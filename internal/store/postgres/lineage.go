package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

func (db *DB) RecordLineage(ctx context.Context, l *types.Lineage, snapshots []types.Provenance) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return wrapDBError(err, "begin record lineage")
	}
	defer tx.Rollback(ctx)

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if _, err := tx.Exec(ctx, `INSERT INTO lineage (id, consumes, produces, tfrm_type) VALUES ($1,$2,$3,$4)`,
		l.ID, l.Consumes, l.Produces, l.TfrmType); err != nil {
		return wrapDBError(err, "insert lineage %s", l.ID)
	}
	for _, snap := range snapshots {
		if snap.ID == uuid.Nil {
			snap.ID = uuid.New()
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO provenance (id, lineage_id, item_id, parent, parent_path, restore_path, status, type,
				zone, name, size, owner, container_code, container_type, snapshot_time)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14, now())`,
			snap.ID, l.ID, snap.ItemID, snap.Parent, snap.ParentPath, snap.RestorePath, snap.Status, snap.Type,
			snap.Zone, snap.Name, snap.Size, snap.Owner, snap.ContainerCode, snap.ContainerType); err != nil {
			return wrapDBError(err, "insert provenance for item %s", snap.ItemID)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapDBError(err, "commit record lineage")
	}
	return nil
}

// GetLineageView walks the lineage graph outward from itemID in both
// directions (consumed-by and produced-from) until no new items are
// discovered, then attaches each touched item's latest provenance
// snapshot — the SQL analogue of internal/store/memory's in-memory
// breadth-first walk.
func (db *DB) GetLineageView(ctx context.Context, itemID uuid.UUID) (*types.LineageProvenanceView, error) {
	view := &types.LineageProvenanceView{
		Lineage:    map[string]types.LineageEntry{},
		Provenance: map[string]types.Provenance{},
	}
	visited := map[uuid.UUID]bool{itemID: true}
	frontier := []uuid.UUID{itemID}

	for len(frontier) > 0 {
		rows, err := db.pool.Query(ctx, `
			SELECT id, consumes, produces, tfrm_type FROM lineage
			WHERE consumes && $1 OR produces && $1`, frontier)
		if err != nil {
			return nil, wrapDBError(err, "query lineage")
		}
		var next []uuid.UUID
		for rows.Next() {
			var id uuid.UUID
			var consumes, produces []uuid.UUID
			var tfrm string
			if err := rows.Scan(&id, &consumes, &produces, &tfrm); err != nil {
				rows.Close()
				return nil, err
			}
			entry := types.LineageEntry{TfrmType: types.TransformationType(tfrm)}
			for _, c := range consumes {
				entry.Consumes = append(entry.Consumes, c.String())
				if !visited[c] {
					visited[c] = true
					next = append(next, c)
				}
			}
			for _, p := range produces {
				entry.Produces = append(entry.Produces, p.String())
				if !visited[p] {
					visited[p] = true
					next = append(next, p)
				}
			}
			view.Lineage[id.String()] = entry
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
		frontier = next
	}

	for id := range visited {
		row := db.pool.QueryRow(ctx, `
			SELECT id, lineage_id, item_id, parent, parent_path, restore_path, status, type, zone, name,
				size, owner, container_code, container_type, snapshot_time
			FROM provenance WHERE item_id = $1 ORDER BY snapshot_time DESC LIMIT 1`, id)
		var p types.Provenance
		if err := row.Scan(&p.ID, &p.LineageID, &p.ItemID, &p.Parent, &p.ParentPath, &p.RestorePath, &p.Status,
			&p.Type, &p.Zone, &p.Name, &p.Size, &p.Owner, &p.ContainerCode, &p.ContainerType, &p.SnapshotTime); err == nil {
			view.Provenance[id.String()] = p
		}
	}

	if len(view.Lineage) == 0 {
		var exists bool
		if err := db.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM items WHERE id = $1)`, itemID).Scan(&exists); err != nil || !exists {
			return nil, wrapDBError(store.ErrNotFound, "get lineage for item %s", itemID)
		}
	}
	return view, nil
}
