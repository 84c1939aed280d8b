package types

import (
	"time"

	"github.com/google/uuid"
)

// TransformationType names a provenance-bearing event.
type TransformationType string

const (
	TfrmCopyToZone TransformationType = "copy_to_zone"
	TfrmArchive    TransformationType = "archive"
)

// Lineage records one transformation: a set of consumed items producing a
// (possibly empty) set of produced items. Written at most once per
// transformation and never updated.
type Lineage struct {
	ID       uuid.UUID
	Consumes []uuid.UUID
	Produces []uuid.UUID // nil for archive
	TfrmType TransformationType
}

// Provenance is an append-only snapshot of an item's state at the moment of
// a write, optionally tied to a Lineage row.
type Provenance struct {
	ID              uuid.UUID
	LineageID       *uuid.UUID
	ItemID          uuid.UUID
	Parent          *uuid.UUID
	ParentPath      string
	RestorePath     string
	Status          ItemStatus
	Type            ItemType
	Zone            Zone
	Name            string
	Size            int64
	Owner           string
	ContainerCode   string
	ContainerType   ContainerType
	SnapshotTime    time.Time
}

// LineageProvenanceView is the response shape for GET /v1/lineage/{item_id}/:
// lineage rows keyed by lineage id, provenance snapshots keyed by item id.
type LineageProvenanceView struct {
	Lineage    map[string]LineageEntry
	Provenance map[string]Provenance
}

// LineageEntry is the string-keyed projection of a Lineage row for the view.
type LineageEntry struct {
	TfrmType TransformationType
	Consumes []string
	Produces []string // nil when the transformation produced nothing
}
