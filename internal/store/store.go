// Package store defines the persistence boundary for the catalog and the
// tree algorithms (move, rename, archive, restore, bequeath) shared
// by every backend, grounded on the teacher's internal/storage provider
// abstraction (internal/storage/provider.go, internal/storage/factory).
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/permission"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// Page carries pagination input shared by every listing operation.
type Page struct {
	Number   int // 1-indexed
	Size     int
	SortBy   string
	SortDesc bool
}

// PageResult wraps a page of results with the counts callers need to render
// APIResponse's page/total/num_of_pages triple.
type PageResult struct {
	Total        int
	NumPages     int
	Items        []types.Combined
}

// ItemFilter selects the items a listing or search operation should return,
// before the permission.Decision is applied.
type ItemFilter struct {
	ContainerCode  string
	ContainerType  types.ContainerType
	Zone           *types.Zone
	Status         types.ItemStatus
	Type           *types.ItemType
	Owner          *string
	NameContains   *string
	ParentID       *uuid.UUID
	ParentPath     *string // decoded; "" means root-level
	Recursive      bool
	RestorePath    *string // decoded; used when Status == Archived and browsing by former location
	UpdatedAfter   *time.Time
	UpdatedBefore  *time.Time
	FavouritesOnly bool
	FavouriteUser  string
}

// Shape derives the permission.ListingShape this filter corresponds to.
func (f ItemFilter) Shape() permission.ListingShape {
	shape := permission.ListingShape{Status: f.Status, Recursive: f.Recursive}
	if f.ParentPath != nil {
		shape.ParentPath = *f.ParentPath
	}
	if f.RestorePath != nil {
		shape.RestorePath = *f.RestorePath
	}
	return shape
}

// MoveInput is the payload of a plain subtree move (no rename).
type MoveInput struct {
	NewParentID   *uuid.UUID
	NewParentPath string // decoded destination parent path
}

// RenameInput is the payload of a subtree rename (no relocation).
type RenameInput struct {
	NewName string
}

// ArchiveRestoreInput drives the trash/restore state transition.
type ArchiveRestoreInput struct {
	TargetStatus types.ItemStatus // StatusArchived or StatusActive
	DeletedBy    string
}

// BequeathInput overwrites extended metadata on every descendant of a
// folder. TemplateID is nil when Attributes is not being set.
type BequeathInput struct {
	TemplateID *uuid.UUID
	Attributes map[string]string
	SystemTags []string
}

// CollectionFilter selects collections for listing/search.
type CollectionFilter struct {
	ContainerCode string
	Owner         *string
	NameContains  *string
}

// Store is the full persistence surface the catalog service depends on.
// Every backend (memory, postgres) implements it in full; algorithmic
// helpers that are identical regardless of backend live in treeops.go and
// are called from each backend's mutating methods.
type Store interface {
	// Items
	CreateItem(ctx context.Context, item *types.Item, storage *types.Storage, ext *types.Extended) (*types.Combined, error)
	GetItemByID(ctx context.Context, id uuid.UUID) (*types.Combined, error)
	GetItemByLocation(ctx context.Context, containerCode string, zone types.Zone, parentPath string, name string) (*types.Combined, error)
	BatchGetItems(ctx context.Context, ids []uuid.UUID) ([]types.Combined, error)
	ListItems(ctx context.Context, filter ItemFilter, decision *permission.Decision, page Page) (*PageResult, error)
	UpdateItemExtended(ctx context.Context, id uuid.UUID, ext *types.Extended) (*types.Combined, error)
	UpdateItemStorage(ctx context.Context, id uuid.UUID, st *types.Storage) (*types.Combined, error)
	MoveItem(ctx context.Context, id uuid.UUID, in MoveInput) (*types.Combined, error)
	RenameItem(ctx context.Context, id uuid.UUID, in RenameInput) (*types.Combined, error)
	ArchiveRestoreItem(ctx context.Context, id uuid.UUID, in ArchiveRestoreInput) (*types.Combined, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	BequeathSubtree(ctx context.Context, id uuid.UUID, in BequeathInput) ([]types.Combined, error)
	BulkCreateItems(ctx context.Context, items []*types.Item, skipDuplicates bool) ([]types.Combined, []error)
	BulkDeleteItems(ctx context.Context, ids []uuid.UUID) []error

	// Attribute templates
	CreateTemplate(ctx context.Context, t *types.AttributeTemplate) (*types.AttributeTemplate, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*types.AttributeTemplate, error)
	ListTemplates(ctx context.Context, projectCode string) ([]types.AttributeTemplate, error)
	UpdateTemplate(ctx context.Context, t *types.AttributeTemplate) (*types.AttributeTemplate, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error

	// Collections
	CreateCollection(ctx context.Context, c *types.Collection) (*types.Collection, error)
	GetCollection(ctx context.Context, id uuid.UUID) (*types.Collection, error)
	ListCollections(ctx context.Context, filter CollectionFilter, favUser string) ([]types.Collection, error)
	RenameCollection(ctx context.Context, id uuid.UUID, newName string) (*types.Collection, error)
	DeleteCollection(ctx context.Context, id uuid.UUID) error
	AddItemToCollection(ctx context.Context, collectionID, itemID uuid.UUID) error
	RemoveItemFromCollection(ctx context.Context, collectionID, itemID uuid.UUID) error
	ListCollectionItems(ctx context.Context, collectionID uuid.UUID, page Page) (*PageResult, error)

	// Favourites
	CreateFavourite(ctx context.Context, f *types.Favourite) (*types.Favourite, error)
	DeleteFavourite(ctx context.Context, user string, itemID, collectionID *uuid.UUID) error
	ListFavourites(ctx context.Context, user string) ([]types.Favourite, error)

	// Lineage / provenance
	RecordLineage(ctx context.Context, l *types.Lineage, snapshots []types.Provenance) error
	GetLineageView(ctx context.Context, itemID uuid.UUID) (*types.LineageProvenanceView, error)

	// Health
	Ping(ctx context.Context) error
}
