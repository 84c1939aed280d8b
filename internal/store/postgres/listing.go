package postgres

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/hdc-platform/metadata-catalog/internal/permission"
	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/telemetry"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// ListItems builds one parameterized query: the caller's filter and the
// permission decision are AND-ed into a single WHERE clause — never a
// separate permission query — mirroring §4.3's "rewrite as a predicate conjunction"
// requirement.
func (db *DB) ListItems(ctx context.Context, filter store.ItemFilter, decision *permission.Decision, page store.Page) (result *store.PageResult, err error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "catalog.list_items",
		attribute.String("item.container_code", filter.ContainerCode),
		attribute.String("item.status", string(filter.Status)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	var clauses []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ContainerCode != "" {
		clauses = append(clauses, "container_code = "+arg(filter.ContainerCode))
	}
	clauses = append(clauses, "status = "+arg(string(filter.Status)))
	if filter.Zone != nil {
		clauses = append(clauses, "zone = "+arg(int(*filter.Zone)))
	}
	if filter.Type != nil {
		clauses = append(clauses, "type = "+arg(string(*filter.Type)))
	}
	if filter.Owner != nil {
		clauses = append(clauses, "owner = "+arg(*filter.Owner))
	}
	if filter.NameContains != nil {
		clauses = append(clauses, "name ILIKE "+arg("%"+*filter.NameContains+"%"))
	}
	if filter.ParentID != nil {
		clauses = append(clauses, "parent = "+arg(*filter.ParentID))
	}

	locationColumn := "parent_path"
	if filter.Status == types.StatusArchived {
		locationColumn = "restore_path"
	}
	if filter.ParentPath != nil {
		if filter.Recursive {
			if *filter.ParentPath == "" {
				// no restriction: every path is "under" the root
			} else {
				p := arg(*filter.ParentPath)
				pPrefix := arg(*filter.ParentPath + "/%")
				clauses = append(clauses, fmt.Sprintf("(%s = %s OR %s LIKE %s)", locationColumn, p, locationColumn, pPrefix))
			}
		} else {
			clauses = append(clauses, locationColumn+" = "+arg(*filter.ParentPath))
		}
	}
	if filter.UpdatedAfter != nil {
		clauses = append(clauses, "last_updated_time > "+arg(*filter.UpdatedAfter))
	}
	if filter.UpdatedBefore != nil {
		clauses = append(clauses, "last_updated_time < "+arg(*filter.UpdatedBefore))
	}

	if decision != nil {
		argStart := len(args) + 1
		clause, permArgs, next := decision.SQLClause("zone", "parent_path", "restore_path", filter.Shape(), argStart)
		if clause != "" {
			clauses = append(clauses, clause)
			args = append(args, permArgs...)
			_ = next
		}
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	sortCol := "created_time"
	switch page.SortBy {
	case "name", "size", "last_updated_time":
		sortCol = page.SortBy
	}
	order := "ASC"
	if page.SortDesc {
		order = "DESC"
	}

	var total int
	countSQL := fmt.Sprintf(`SELECT count(*) FROM items %s`, where)
	if err := db.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, wrapDBError(err, "count items")
	}

	pageSize := page.Size
	if pageSize <= 0 {
		pageSize = total
		if pageSize == 0 {
			pageSize = 1
		}
	}
	offset := 0
	if page.Number > 1 {
		offset = (page.Number - 1) * pageSize
	}
	limitArg := arg(pageSize)
	offsetArg := arg(offset)

	querySQL := fmt.Sprintf(`SELECT %s FROM items %s ORDER BY %s %s LIMIT %s OFFSET %s`,
		itemColumns, where, sortCol, order, limitArg, offsetArg)
	rows, err := db.pool.Query(ctx, querySQL, args...)
	if err != nil {
		return nil, wrapDBError(err, "list items")
	}
	defer rows.Close()

	result = &store.PageResult{Total: total}
	if pageSize > 0 {
		result.NumPages = (total + pageSize - 1) / pageSize
	}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, wrapDBError(err, "scan item row")
		}
		c, err := db.hydrate(ctx, it, filter.FavouriteUser)
		if err != nil {
			return nil, err
		}
		if filter.FavouritesOnly && !c.Favourite {
			continue
		}
		result.Items = append(result.Items, *c)
	}
	return result, rows.Err()
}
