package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hdc-platform/metadata-catalog/internal/catalogpath"
	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// fetchSubtree loads every descendant under root, root itself excluded (same
// container/zone/status), matched by a LIKE prefix against whichever
// location column is live for that status — the SQL-side equivalent of
// get_item_children's lquery wildcard search. tx must be a live
// transaction; rows are locked FOR UPDATE so the whole subtree mutates
// atomically with no other writer racing it.
func fetchSubtree(ctx context.Context, tx pgx.Tx, root *types.Item) ([]*types.Item, error) {
	locationColumn := "parent_path"
	loc := root.ParentPath
	if root.Status == types.StatusArchived {
		locationColumn = "restore_path"
		loc = root.RestorePath
	}
	fullPath := catalogpath.Join(loc, root.Name)

	rows, err := tx.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM items
		WHERE container_code = $1 AND zone = $2 AND status = $3
		  AND (%s = $4 OR %s LIKE $5)
		  AND id <> $6
		FOR UPDATE`, itemColumns, locationColumn, locationColumn),
		root.ContainerCode, root.Zone, root.Status, fullPath, fullPath+"/%", root.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func lockItem(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*types.Item, error) {
	row := tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, id)
	return scanItem(row)
}

func persistItem(ctx context.Context, tx pgx.Tx, it *types.Item) error {
	_, err := tx.Exec(ctx, `
		UPDATE items SET parent = $2, parent_path = $3, restore_path = $4, status = $5, name = $6,
			owner = $7, deleted = $8, deleted_by = $9, deleted_at = $10, last_updated_time = now()
		WHERE id = $1`,
		it.ID, it.Parent, it.ParentPath, it.RestorePath, it.Status, it.Name, it.Owner, it.Deleted, it.DeletedBy, it.DeletedAt)
	return err
}

func siblingNames(ctx context.Context, tx pgx.Tx, containerCode string, zone types.Zone, parentPath string, status types.ItemStatus, exclude uuid.UUID) (map[string]bool, error) {
	locationColumn := "parent_path"
	if status == types.StatusArchived {
		locationColumn = "restore_path"
	}
	rows, err := tx.Query(ctx, fmt.Sprintf(`SELECT name FROM items WHERE container_code = $1 AND zone = $2 AND status = $3 AND %s = $4 AND id <> $5`, locationColumn),
		containerCode, zone, status, parentPath, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	taken := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		taken[name] = true
	}
	return taken, rows.Err()
}

func (db *DB) MoveItem(ctx context.Context, id uuid.UUID, in store.MoveInput) (*types.Combined, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, wrapDBError(err, "begin move")
	}
	defer tx.Rollback(ctx)

	root, err := lockItem(ctx, tx, id)
	if err != nil {
		return nil, wrapDBError(err, "lock item %s", id)
	}
	taken, err := siblingNames(ctx, tx, root.ContainerCode, root.Zone, in.NewParentPath, root.Status, root.ID)
	if err != nil {
		return nil, wrapDBError(err, "check move destination")
	}
	if taken[root.Name] {
		return nil, fmt.Errorf("%w: %q already exists at the destination", store.ErrDuplicate, root.Name)
	}
	desc, err := fetchSubtree(ctx, tx, root)
	if err != nil {
		return nil, wrapDBError(err, "fetch subtree for move")
	}
	store.ApplyMove(root.Name, root.ParentPath, in.NewParentPath, desc)
	root.ParentPath = in.NewParentPath
	root.Parent = in.NewParentID
	if err := persistItem(ctx, tx, root); err != nil {
		return nil, wrapDBError(err, "persist moved root")
	}
	for _, d := range desc {
		if err := persistItem(ctx, tx, d); err != nil {
			return nil, wrapDBError(err, "persist moved descendant %s", d.ID)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, wrapDBError(err, "commit move")
	}
	return db.GetItemByID(ctx, id)
}

func (db *DB) RenameItem(ctx context.Context, id uuid.UUID, in store.RenameInput) (*types.Combined, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, wrapDBError(err, "begin rename")
	}
	defer tx.Rollback(ctx)

	root, err := lockItem(ctx, tx, id)
	if err != nil {
		return nil, wrapDBError(err, "lock item %s", id)
	}
	taken, err := siblingNames(ctx, tx, root.ContainerCode, root.Zone, root.ParentPath, root.Status, root.ID)
	if err != nil {
		return nil, wrapDBError(err, "check rename collision")
	}
	if taken[in.NewName] {
		return nil, fmt.Errorf("%w: %q already exists at this location", store.ErrDuplicate, in.NewName)
	}
	desc, err := fetchSubtree(ctx, tx, root)
	if err != nil {
		return nil, wrapDBError(err, "fetch subtree for rename")
	}
	store.ApplyRename(root.ParentPath, in.NewName, desc)
	root.Name = in.NewName
	if err := persistItem(ctx, tx, root); err != nil {
		return nil, wrapDBError(err, "persist renamed root")
	}
	for _, d := range desc {
		if err := persistItem(ctx, tx, d); err != nil {
			return nil, wrapDBError(err, "persist renamed descendant %s", d.ID)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, wrapDBError(err, "commit rename")
	}
	return db.GetItemByID(ctx, id)
}

func (db *DB) ArchiveRestoreItem(ctx context.Context, id uuid.UUID, in store.ArchiveRestoreInput) (*types.Combined, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, wrapDBError(err, "begin archive/restore")
	}
	defer tx.Rollback(ctx)

	root, err := lockItem(ctx, tx, id)
	if err != nil {
		return nil, wrapDBError(err, "lock item %s", id)
	}
	if root.Status == in.TargetStatus {
		tx.Rollback(ctx)
		return db.GetItemByID(ctx, id)
	}
	desc, err := fetchSubtree(ctx, tx, root)
	if err != nil {
		return nil, wrapDBError(err, "fetch subtree")
	}

	if in.TargetStatus == types.StatusArchived {
		// Archived items all sit at parent_path '', so the collision set is
		// every other archived name in this container/zone.
		rows, err := tx.Query(ctx, `SELECT name FROM items WHERE container_code = $1 AND zone = $2 AND status = 'ARCHIVED' AND parent_path = '' AND id <> $3`,
			root.ContainerCode, root.Zone, root.ID)
		if err != nil {
			return nil, wrapDBError(err, "check archive collision")
		}
		taken := map[string]bool{}
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return nil, wrapDBError(err, "check archive collision")
			}
			taken[name] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, wrapDBError(err, "check archive collision")
		}
		newName := store.AvailableName(root.Name, taken, nowUnix())
		store.ApplyArchive(root, newName, desc)
		root.Deleted = true
		root.DeletedBy = in.DeletedBy
		now := nowTime()
		root.DeletedAt = &now
	} else {
		destName, destParentPath := store.RestoreDestination(root.RestorePath)
		row := tx.QueryRow(ctx, `SELECT id FROM items WHERE container_code = $1 AND zone = $2 AND status = 'ACTIVE' AND parent_path = $3 AND name = $4`,
			root.ContainerCode, root.Zone, destParentPath, destName)
		var destID uuid.UUID
		if err := row.Scan(&destID); err != nil {
			return nil, fmt.Errorf("%w: restore destination %q no longer exists", store.ErrBadRequest, root.RestorePath)
		}
		taken, err := siblingNames(ctx, tx, root.ContainerCode, root.Zone, root.RestorePath, types.StatusActive, root.ID)
		if err != nil {
			return nil, wrapDBError(err, "check restore collision")
		}
		newName := store.AvailableName(root.Name, taken, nowUnix())
		store.ApplyRestore(root, &destID, newName, desc)
		root.Deleted = false
		root.DeletedBy = ""
		root.DeletedAt = nil
	}

	if err := persistItem(ctx, tx, root); err != nil {
		return nil, wrapDBError(err, "persist archived/restored root")
	}
	for _, d := range desc {
		if err := persistItem(ctx, tx, d); err != nil {
			return nil, wrapDBError(err, "persist archived/restored descendant %s", d.ID)
		}
	}

	if in.TargetStatus == types.StatusArchived {
		ids := []uuid.UUID{id}
		for _, d := range desc {
			ids = append(ids, d.ID)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM favourites WHERE item_id = ANY($1)`, ids); err != nil {
			return nil, wrapDBError(err, "cascade-delete favourites for archived subtree")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapDBError(err, "commit archive/restore")
	}
	return db.GetItemByID(ctx, id)
}

// bequeathExtended reads an item's current extended row (a zero-value
// Extended if none exists yet), applies in, and upserts the result, the
// same select-then-overwrite shape UpdateItemExtended uses outside a
// transaction.
func bequeathExtended(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, in store.BequeathInput) error {
	var attrsJSON []byte
	ext := types.Extended{ItemID: itemID}
	row := tx.QueryRow(ctx, `SELECT tags, system_tags, attributes FROM extended WHERE item_id = $1`, itemID)
	if err := row.Scan(&ext.Tags, &ext.SystemTags, &attrsJSON); err != nil && err != pgx.ErrNoRows {
		return err
	}
	ext.Attributes = attributesFromJSON(attrsJSON)

	store.ApplyBequeath(&ext, in)

	_, err := tx.Exec(ctx, `
		INSERT INTO extended (item_id, tags, system_tags, attributes) VALUES ($1,$2,$3,$4)
		ON CONFLICT (item_id) DO UPDATE SET tags = $2, system_tags = $3, attributes = $4`,
		itemID, ext.Tags, ext.SystemTags, attributesToJSON(ext.Attributes))
	return err
}

func (db *DB) BequeathSubtree(ctx context.Context, id uuid.UUID, in store.BequeathInput) ([]types.Combined, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, wrapDBError(err, "begin bequeath")
	}
	defer tx.Rollback(ctx)

	root, err := lockItem(ctx, tx, id)
	if err != nil {
		return nil, wrapDBError(err, "lock item %s", id)
	}
	if root.Type != types.TypeFolder {
		return nil, fmt.Errorf("%w: properties can only be bequeathed from folders", store.ErrBadRequest)
	}
	desc, err := fetchSubtree(ctx, tx, root)
	if err != nil {
		return nil, wrapDBError(err, "fetch subtree for bequeath")
	}
	for _, d := range desc {
		if err := bequeathExtended(ctx, tx, d.ID, in); err != nil {
			return nil, wrapDBError(err, "bequeath extended for descendant %s", d.ID)
		}
		if err := tx.QueryRow(ctx, `UPDATE items SET last_updated_time = now() WHERE id = $1 RETURNING last_updated_time`, d.ID).Scan(&d.LastUpdatedTime); err != nil {
			return nil, wrapDBError(err, "touch bequeathed descendant %s", d.ID)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, wrapDBError(err, "commit bequeath")
	}

	ids := make([]uuid.UUID, 0, len(desc))
	for _, d := range desc {
		ids = append(ids, d.ID)
	}
	return db.BatchGetItems(ctx, ids)
}
