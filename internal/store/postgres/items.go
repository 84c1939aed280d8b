package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/telemetry"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

func (db *DB) validateExtended(ext *types.Extended) error {
	if ext == nil {
		return nil
	}
	if len(ext.Tags) > db.limits.MaxTags {
		return fmt.Errorf("%w: at most %d tags allowed, got %d", store.ErrValidation, db.limits.MaxTags, len(ext.Tags))
	}
	if len(ext.SystemTags) > db.limits.MaxSystemTags {
		return fmt.Errorf("%w: at most %d system tags allowed, got %d", store.ErrValidation, db.limits.MaxSystemTags, len(ext.SystemTags))
	}
	for _, attrs := range ext.Attributes {
		for k, v := range attrs {
			if len(v) > db.limits.MaxAttributeLength {
				return fmt.Errorf("%w: attribute %q exceeds max length %d", store.ErrValidation, k, db.limits.MaxAttributeLength)
			}
		}
	}
	return nil
}

const itemColumns = `id, parent, parent_path, restore_path, status, type, zone, name, size, owner,
	container_code, container_type, deleted, deleted_by, deleted_at, created_time, last_updated_time`

// prefixed renders a comma-separated column list with alias prepended to
// each column, for queries that join items against another table.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func scanItem(row pgx.Row) (*types.Item, error) {
	var it types.Item
	if err := row.Scan(&it.ID, &it.Parent, &it.ParentPath, &it.RestorePath, &it.Status, &it.Type, &it.Zone,
		&it.Name, &it.Size, &it.Owner, &it.ContainerCode, &it.ContainerType, &it.Deleted, &it.DeletedBy,
		&it.DeletedAt, &it.CreatedTime, &it.LastUpdatedTime); err != nil {
		return nil, err
	}
	return &it, nil
}

func (db *DB) CreateItem(ctx context.Context, item *types.Item, storage *types.Storage, ext *types.Extended) (c *types.Combined, err error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "catalog.create_item",
		attribute.String("item.container_code", item.ContainerCode),
		attribute.String("item.type", string(item.Type)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if !item.Status.Valid() || !item.Type.Valid() || !item.ContainerType.Valid() {
		return nil, fmt.Errorf("%w: invalid item fields", store.ErrBadRequest)
	}
	if err := db.validateExtended(ext); err != nil {
		return nil, err
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, wrapDBError(err, "begin create item")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15, now(), now())`,
		item.ID, item.Parent, item.ParentPath, item.RestorePath, item.Status, item.Type, item.Zone,
		item.Name, item.Size, item.Owner, item.ContainerCode, item.ContainerType, item.Deleted,
		item.DeletedBy, item.DeletedAt)
	if err != nil {
		return nil, wrapDBError(err, "insert item %s", item.Name)
	}

	if storage != nil {
		if _, err := tx.Exec(ctx, `INSERT INTO storage (item_id, location_uri, version, upload_id) VALUES ($1,$2,$3,$4)`,
			item.ID, storage.LocationURI, storage.Version, storage.UploadID); err != nil {
			return nil, wrapDBError(err, "insert storage for item %s", item.ID)
		}
	}
	if ext != nil {
		if _, err := tx.Exec(ctx, `INSERT INTO extended (item_id, tags, system_tags, attributes) VALUES ($1,$2,$3,$4)`,
			item.ID, ext.Tags, ext.SystemTags, attributesToJSON(ext.Attributes)); err != nil {
			return nil, wrapDBError(err, "insert extended for item %s", item.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapDBError(err, "commit create item")
	}
	return db.GetItemByID(ctx, item.ID)
}

func (db *DB) GetItemByID(ctx context.Context, id uuid.UUID) (*types.Combined, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	it, err := scanItem(row)
	if err != nil {
		return nil, wrapDBError(err, "get item %s", id)
	}
	return db.hydrate(ctx, it, "")
}

func (db *DB) GetItemByLocation(ctx context.Context, containerCode string, zone types.Zone, parentPath string, name string) (*types.Combined, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items
		WHERE container_code = $1 AND zone = $2 AND parent_path = $3 AND name = $4 AND status IN ('ACTIVE','REGISTERED')
		ORDER BY status DESC LIMIT 1`, containerCode, zone, parentPath, name)
	it, err := scanItem(row)
	if err != nil {
		return nil, wrapDBError(err, "get item at %s/%s", parentPath, name)
	}
	return db.hydrate(ctx, it, "")
}

func (db *DB) hydrate(ctx context.Context, it *types.Item, favUser string) (*types.Combined, error) {
	c := &types.Combined{Item: *it}
	row := db.pool.QueryRow(ctx, `SELECT location_uri, version, upload_id FROM storage WHERE item_id = $1`, it.ID)
	_ = row.Scan(&c.Storage.LocationURI, &c.Storage.Version, &c.Storage.UploadID)
	c.Storage.ItemID = it.ID

	var attrsJSON []byte
	row = db.pool.QueryRow(ctx, `SELECT tags, system_tags, attributes FROM extended WHERE item_id = $1`, it.ID)
	_ = row.Scan(&c.Extended.Tags, &c.Extended.SystemTags, &attrsJSON)
	c.Extended.ItemID = it.ID
	c.Extended.Attributes = attributesFromJSON(attrsJSON)

	if favUser != "" {
		var exists bool
		_ = db.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM favourites WHERE "user" = $1 AND item_id = $2)`, favUser, it.ID).Scan(&exists)
		c.Favourite = exists
	}
	return c, nil
}

func (db *DB) BatchGetItems(ctx context.Context, ids []uuid.UUID) ([]types.Combined, error) {
	out := make([]types.Combined, 0, len(ids))
	for _, id := range ids {
		c, err := db.GetItemByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (db *DB) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return wrapDBError(err, "delete item %s", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: item %s", store.ErrNotFound, id)
	}
	return nil
}

func (db *DB) BulkDeleteItems(ctx context.Context, ids []uuid.UUID) []error {
	errs := make([]error, len(ids))
	for i, id := range ids {
		errs[i] = db.DeleteItem(ctx, id)
	}
	return errs
}

func (db *DB) BulkCreateItems(ctx context.Context, items []*types.Item, skipDuplicates bool) ([]types.Combined, []error) {
	results := make([]types.Combined, 0, len(items))
	errs := make([]error, len(items))
	for i, it := range items {
		c, err := db.CreateItem(ctx, it, nil, nil)
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

func (db *DB) UpdateItemExtended(ctx context.Context, id uuid.UUID, ext *types.Extended) (*types.Combined, error) {
	if err := db.validateExtended(ext); err != nil {
		return nil, err
	}
	_, err := db.pool.Exec(ctx, `
		INSERT INTO extended (item_id, tags, system_tags, attributes) VALUES ($1,$2,$3,$4)
		ON CONFLICT (item_id) DO UPDATE SET tags = $2, system_tags = $3, attributes = $4`,
		id, ext.Tags, ext.SystemTags, attributesToJSON(ext.Attributes))
	if err != nil {
		return nil, wrapDBError(err, "update extended for item %s", id)
	}
	if _, err := db.pool.Exec(ctx, `UPDATE items SET last_updated_time = now() WHERE id = $1`, id); err != nil {
		return nil, wrapDBError(err, "touch item %s", id)
	}
	return db.GetItemByID(ctx, id)
}

func (db *DB) UpdateItemStorage(ctx context.Context, id uuid.UUID, st *types.Storage) (*types.Combined, error) {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO storage (item_id, location_uri, version, upload_id) VALUES ($1,$2,$3,$4)
		ON CONFLICT (item_id) DO UPDATE SET location_uri = $2, version = $3, upload_id = $4`,
		id, st.LocationURI, st.Version, st.UploadID)
	if err != nil {
		return nil, wrapDBError(err, "update storage for item %s", id)
	}
	if _, err := db.pool.Exec(ctx, `UPDATE items SET last_updated_time = now() WHERE id = $1`, id); err != nil {
		return nil, wrapDBError(err, "touch item %s", id)
	}
	return db.GetItemByID(ctx, id)
}
