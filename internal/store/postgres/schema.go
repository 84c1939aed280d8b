package postgres

// Schema is the DDL catalogd's migrate command applies. Hierarchical path
// columns are `text`, holding the decoded "/"-joined path (not the Base32
// labels internal/catalogpath produces) — see the package doc in db.go for
// why ltree itself isn't used.
const Schema = `
CREATE TABLE IF NOT EXISTS items (
	id               uuid PRIMARY KEY,
	parent           uuid NULL REFERENCES items(id),
	parent_path      text NOT NULL DEFAULT '',
	restore_path     text NOT NULL DEFAULT '',
	status           text NOT NULL,
	type             text NOT NULL,
	zone             smallint NOT NULL,
	name             text NOT NULL,
	size             bigint NOT NULL DEFAULT 0,
	owner            text NOT NULL,
	container_code   text NOT NULL,
	container_type   text NOT NULL,
	deleted          boolean NOT NULL DEFAULT false,
	deleted_by       text NOT NULL DEFAULT '',
	deleted_at       timestamptz NULL,
	created_time     timestamptz NOT NULL,
	last_updated_time timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_parent_path ON items (container_code, zone, status, parent_path);
CREATE INDEX IF NOT EXISTS idx_items_restore_path ON items (container_code, zone, status, restore_path);
CREATE UNIQUE INDEX IF NOT EXISTS idx_items_location ON items (container_code, zone, status, parent_path, name);

CREATE TABLE IF NOT EXISTS storage (
	item_id      uuid PRIMARY KEY REFERENCES items(id) ON DELETE CASCADE,
	location_uri text NOT NULL DEFAULT '',
	version      text NOT NULL DEFAULT '',
	upload_id    text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS extended (
	item_id     uuid PRIMARY KEY REFERENCES items(id) ON DELETE CASCADE,
	tags        text[] NOT NULL DEFAULT '{}',
	system_tags text[] NOT NULL DEFAULT '{}',
	attributes  jsonb NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS attribute_templates (
	id           uuid PRIMARY KEY,
	name         text NOT NULL,
	project_code text NOT NULL,
	attributes   jsonb NOT NULL DEFAULT '[]',
	UNIQUE (project_code, name)
);

CREATE TABLE IF NOT EXISTS collections (
	id                uuid PRIMARY KEY,
	name              text NOT NULL,
	owner             text NOT NULL,
	container_code    text NOT NULL,
	created_time      timestamptz NOT NULL,
	last_updated_time timestamptz NOT NULL,
	UNIQUE (owner, container_code, name)
);

CREATE TABLE IF NOT EXISTS collection_items (
	collection_id uuid NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
	item_id       uuid NOT NULL REFERENCES items(id) ON DELETE CASCADE,
	PRIMARY KEY (collection_id, item_id)
);

CREATE TABLE IF NOT EXISTS favourites (
	id            uuid PRIMARY KEY,
	"user"        text NOT NULL,
	item_id       uuid NULL REFERENCES items(id) ON DELETE CASCADE,
	collection_id uuid NULL REFERENCES collections(id) ON DELETE CASCADE,
	pinned        boolean NOT NULL DEFAULT false,
	created_time  timestamptz NOT NULL,
	CHECK (num_nonnulls(item_id, collection_id) = 1)
);

CREATE TABLE IF NOT EXISTS lineage (
	id        uuid PRIMARY KEY,
	consumes  uuid[] NOT NULL DEFAULT '{}',
	produces  uuid[] NOT NULL DEFAULT '{}',
	tfrm_type text NOT NULL
);

CREATE TABLE IF NOT EXISTS provenance (
	id                uuid PRIMARY KEY,
	lineage_id        uuid NULL REFERENCES lineage(id),
	item_id           uuid NOT NULL,
	parent            uuid NULL,
	parent_path       text NOT NULL DEFAULT '',
	restore_path      text NOT NULL DEFAULT '',
	status            text NOT NULL,
	type              text NOT NULL,
	zone              smallint NOT NULL,
	name              text NOT NULL,
	size              bigint NOT NULL DEFAULT 0,
	owner             text NOT NULL,
	container_code    text NOT NULL,
	container_type    text NOT NULL,
	snapshot_time     timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_provenance_item_id ON provenance (item_id, snapshot_time DESC);
`
