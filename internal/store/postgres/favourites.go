package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// CreateFavourite mirrors the asymmetric ownership rule in
// internal/store/memory/favourites.go: items need no ownership check,
// collections must belong to the caller.
func (db *DB) CreateFavourite(ctx context.Context, f *types.Favourite) (*types.Favourite, error) {
	if f.ItemID != nil {
		var status string
		var itemType string
		err := db.pool.QueryRow(ctx, `SELECT status, type FROM items WHERE id = $1`, *f.ItemID).Scan(&status, &itemType)
		if err != nil {
			return nil, fmt.Errorf("%w: item %s", store.ErrNotFound, *f.ItemID)
		}
		if types.ItemStatus(status) != types.StatusActive {
			return nil, fmt.Errorf("%w: cannot favourite an archived or incomplete item", store.ErrBadRequest)
		}
		if types.ItemType(itemType) == types.TypeNameFolder {
			return nil, fmt.Errorf("%w: cannot favourite an item of type name_folder", store.ErrBadRequest)
		}
	} else if f.CollectionID != nil {
		var owner string
		err := db.pool.QueryRow(ctx, `SELECT owner FROM collections WHERE id = $1`, *f.CollectionID).Scan(&owner)
		if err != nil {
			return nil, fmt.Errorf("%w: collection %s", store.ErrNotFound, *f.CollectionID)
		}
		if owner != f.User {
			return nil, fmt.Errorf("%w: %s does not own collection %s", store.ErrForbidden, f.User, *f.CollectionID)
		}
	} else {
		return nil, fmt.Errorf("%w: favourite must target an item or a collection", store.ErrBadRequest)
	}

	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	_, err := db.pool.Exec(ctx, `INSERT INTO favourites (id, "user", item_id, collection_id, pinned, created_time) VALUES ($1,$2,$3,$4,$5, now())`,
		f.ID, f.User, f.ItemID, f.CollectionID, f.Pinned)
	if err != nil {
		return nil, wrapDBError(err, "create favourite for %s", f.User)
	}
	row := db.pool.QueryRow(ctx, `SELECT id, "user", item_id, collection_id, pinned, created_time FROM favourites WHERE id = $1`, f.ID)
	var out types.Favourite
	if err := row.Scan(&out.ID, &out.User, &out.ItemID, &out.CollectionID, &out.Pinned, &out.CreatedTime); err != nil {
		return nil, wrapDBError(err, "load created favourite %s", f.ID)
	}
	return &out, nil
}

func (db *DB) DeleteFavourite(ctx context.Context, user string, itemID, collectionID *uuid.UUID) error {
	var tag interface{ RowsAffected() int64 }
	var err error
	if itemID != nil {
		t, e := db.pool.Exec(ctx, `DELETE FROM favourites WHERE "user" = $1 AND item_id = $2`, user, *itemID)
		tag, err = t, e
	} else if collectionID != nil {
		t, e := db.pool.Exec(ctx, `DELETE FROM favourites WHERE "user" = $1 AND collection_id = $2`, user, *collectionID)
		tag, err = t, e
	} else {
		return fmt.Errorf("%w: must specify an item or collection to unfavourite", store.ErrBadRequest)
	}
	if err != nil {
		return wrapDBError(err, "delete favourite for %s", user)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: favourite not found", store.ErrNotFound)
	}
	return nil
}

func (db *DB) ListFavourites(ctx context.Context, user string) ([]types.Favourite, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT f.id, f."user", f.item_id, f.collection_id, f.pinned, f.created_time
		FROM favourites f
		LEFT JOIN items i ON i.id = f.item_id
		WHERE f."user" = $1 AND (f.item_id IS NULL OR i.status = 'ACTIVE')
		ORDER BY f.pinned DESC, f.created_time DESC`, user)
	if err != nil {
		return nil, wrapDBError(err, "list favourites for %s", user)
	}
	defer rows.Close()
	var out []types.Favourite
	for rows.Next() {
		var f types.Favourite
		if err := rows.Scan(&f.ID, &f.User, &f.ItemID, &f.CollectionID, &f.Pinned, &f.CreatedTime); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
