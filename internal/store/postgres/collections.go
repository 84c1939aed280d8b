package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

func scanCollection(row interface{ Scan(...interface{}) error }) (*types.Collection, error) {
	var c types.Collection
	if err := row.Scan(&c.ID, &c.Name, &c.Owner, &c.ContainerCode, &c.CreatedTime, &c.LastUpdatedTime); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) CreateCollection(ctx context.Context, c *types.Collection) (*types.Collection, error) {
	if !types.ValidCollectionName(c.Name) {
		return nil, fmt.Errorf("%w: collection name contains a reserved character", store.ErrValidation)
	}
	var count int
	if err := db.pool.QueryRow(ctx, `SELECT count(*) FROM collections WHERE owner = $1 AND container_code = $2`, c.Owner, c.ContainerCode).Scan(&count); err != nil {
		return nil, wrapDBError(err, "count collections for %s", c.Owner)
	}
	if count >= db.limits.MaxCollectionsPerOwner {
		return nil, fmt.Errorf("%w: %s already owns the maximum of %d collections in this container", store.ErrValidation, c.Owner, db.limits.MaxCollectionsPerOwner)
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := db.pool.Exec(ctx, `INSERT INTO collections (id, name, owner, container_code, created_time, last_updated_time) VALUES ($1,$2,$3,$4, now(), now())`,
		c.ID, c.Name, c.Owner, c.ContainerCode)
	if err != nil {
		return nil, wrapDBError(err, "create collection %s", c.Name)
	}
	return db.GetCollection(ctx, c.ID)
}

func (db *DB) GetCollection(ctx context.Context, id uuid.UUID) (*types.Collection, error) {
	row := db.pool.QueryRow(ctx, `SELECT id, name, owner, container_code, created_time, last_updated_time FROM collections WHERE id = $1`, id)
	c, err := scanCollection(row)
	if err != nil {
		return nil, wrapDBError(err, "get collection %s", id)
	}
	return c, nil
}

func (db *DB) ListCollections(ctx context.Context, filter store.CollectionFilter, favUser string) ([]types.Collection, error) {
	var clauses []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.ContainerCode != "" {
		clauses = append(clauses, "container_code = "+arg(filter.ContainerCode))
	}
	if filter.Owner != nil {
		clauses = append(clauses, "owner = "+arg(*filter.Owner))
	}
	if filter.NameContains != nil {
		clauses = append(clauses, "name ILIKE "+arg("%"+*filter.NameContains+"%"))
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE "
		for i, c := range clauses {
			if i > 0 {
				where += " AND "
			}
			where += c
		}
	}
	rows, err := db.pool.Query(ctx, fmt.Sprintf(`SELECT id, name, owner, container_code, created_time, last_updated_time FROM collections %s`, where), args...)
	if err != nil {
		return nil, wrapDBError(err, "list collections")
	}
	defer rows.Close()
	var out []types.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		if favUser != "" {
			var fav bool
			_ = db.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM favourites WHERE "user" = $1 AND collection_id = $2)`, favUser, c.ID).Scan(&fav)
			c.Favourite = fav
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (db *DB) RenameCollection(ctx context.Context, id uuid.UUID, newName string) (*types.Collection, error) {
	if !types.ValidCollectionName(newName) {
		return nil, fmt.Errorf("%w: collection name contains a reserved character", store.ErrValidation)
	}
	tag, err := db.pool.Exec(ctx, `UPDATE collections SET name = $2, last_updated_time = now() WHERE id = $1`, id, newName)
	if err != nil {
		return nil, wrapDBError(err, "rename collection %s", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, wrapDBError(store.ErrNotFound, "rename collection %s", id)
	}
	return db.GetCollection(ctx, id)
}

func (db *DB) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return wrapDBError(err, "delete collection %s", id)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBError(store.ErrNotFound, "delete collection %s", id)
	}
	return nil
}

func (db *DB) AddItemToCollection(ctx context.Context, collectionID, itemID uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `INSERT INTO collection_items (collection_id, item_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`, collectionID, itemID)
	if err != nil {
		return wrapDBError(err, "add item %s to collection %s", itemID, collectionID)
	}
	return nil
}

func (db *DB) RemoveItemFromCollection(ctx context.Context, collectionID, itemID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM collection_items WHERE collection_id = $1 AND item_id = $2`, collectionID, itemID)
	if err != nil {
		return wrapDBError(err, "remove item %s from collection %s", itemID, collectionID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: item %s is not in collection %s", store.ErrNotFound, itemID, collectionID)
	}
	return nil
}

func (db *DB) ListCollectionItems(ctx context.Context, collectionID uuid.UUID, page store.Page) (*store.PageResult, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+prefixed("i.", itemColumns)+` FROM items i
		JOIN collection_items ci ON ci.item_id = i.id WHERE ci.collection_id = $1`, collectionID)
	if err != nil {
		return nil, wrapDBError(err, "list items in collection %s", collectionID)
	}
	defer rows.Close()
	result := &store.PageResult{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		c, err := db.hydrate(ctx, it, "")
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, *c)
	}
	result.Total = len(result.Items)
	result.NumPages = 1
	return result, rows.Err()
}
