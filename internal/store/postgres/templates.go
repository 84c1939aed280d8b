package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

func scanTemplate(row interface{ Scan(...interface{}) error }) (*types.AttributeTemplate, error) {
	var t types.AttributeTemplate
	var raw []byte
	if err := row.Scan(&t.ID, &t.Name, &t.ProjectCode, &raw); err != nil {
		return nil, err
	}
	_ = json.Unmarshal(raw, &t.Attributes)
	return &t, nil
}

func (db *DB) CreateTemplate(ctx context.Context, t *types.AttributeTemplate) (*types.AttributeTemplate, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	raw, _ := json.Marshal(t.Attributes)
	_, err := db.pool.Exec(ctx, `INSERT INTO attribute_templates (id, name, project_code, attributes) VALUES ($1,$2,$3,$4)`,
		t.ID, t.Name, t.ProjectCode, raw)
	if err != nil {
		return nil, wrapDBError(err, "create template %s", t.Name)
	}
	return db.GetTemplate(ctx, t.ID)
}

func (db *DB) GetTemplate(ctx context.Context, id uuid.UUID) (*types.AttributeTemplate, error) {
	row := db.pool.QueryRow(ctx, `SELECT id, name, project_code, attributes FROM attribute_templates WHERE id = $1`, id)
	t, err := scanTemplate(row)
	if err != nil {
		return nil, wrapDBError(err, "get template %s", id)
	}
	return t, nil
}

func (db *DB) ListTemplates(ctx context.Context, projectCode string) ([]types.AttributeTemplate, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, name, project_code, attributes FROM attribute_templates WHERE project_code = $1`, projectCode)
	if err != nil {
		return nil, wrapDBError(err, "list templates for %s", projectCode)
	}
	defer rows.Close()
	var out []types.AttributeTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (db *DB) UpdateTemplate(ctx context.Context, t *types.AttributeTemplate) (*types.AttributeTemplate, error) {
	raw, _ := json.Marshal(t.Attributes)
	tag, err := db.pool.Exec(ctx, `UPDATE attribute_templates SET name = $2, attributes = $3 WHERE id = $1`, t.ID, t.Name, raw)
	if err != nil {
		return nil, wrapDBError(err, "update template %s", t.ID)
	}
	if tag.RowsAffected() == 0 {
		return nil, wrapDBError(store.ErrNotFound, "update template %s", t.ID)
	}
	return db.GetTemplate(ctx, t.ID)
}

func (db *DB) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM attribute_templates WHERE id = $1`, id)
	if err != nil {
		return wrapDBError(err, "delete template %s", id)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBError(store.ErrNotFound, "delete template %s", id)
	}
	return nil
}
