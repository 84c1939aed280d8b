package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// itemDTO is the wire shape of types.Combined returned from every item
// endpoint.
type itemDTO struct {
	ID              uuid.UUID                    `json:"id"`
	Parent          *uuid.UUID                    `json:"parent,omitempty"`
	ParentPath      string                        `json:"parent_path,omitempty"`
	RestorePath     string                        `json:"restore_path,omitempty"`
	Status          string                        `json:"status"`
	Type            string                        `json:"type"`
	Zone            int                           `json:"zone"`
	Name            string                        `json:"name"`
	Size            int64                         `json:"size"`
	Owner           string                        `json:"owner"`
	ContainerCode   string                        `json:"container_code"`
	ContainerType   string                        `json:"container_type"`
	Deleted         bool                          `json:"deleted"`
	DeletedBy       string                        `json:"deleted_by,omitempty"`
	CreatedTime     time.Time                     `json:"created_time"`
	LastUpdatedTime time.Time                     `json:"last_updated_time"`
	Storage         storageDTO                    `json:"storage"`
	Extended        extendedDTO                   `json:"extended"`
	Favourite       bool                          `json:"favourite"`
}

type storageDTO struct {
	LocationURI string `json:"location_uri,omitempty"`
	Version     string `json:"version,omitempty"`
	UploadID    string `json:"upload_id,omitempty"`
}

type extendedDTO struct {
	Tags       []string                      `json:"tags"`
	SystemTags []string                      `json:"system_tags"`
	Attributes map[string]map[string]string `json:"attributes,omitempty"`
}

func toItemDTO(c *types.Combined) itemDTO {
	return itemDTO{
		ID:              c.Item.ID,
		Parent:          c.Item.Parent,
		ParentPath:      c.Item.ParentPath,
		RestorePath:     c.Item.RestorePath,
		Status:          string(c.Item.Status),
		Type:            string(c.Item.Type),
		Zone:            int(c.Item.Zone),
		Name:            c.Item.Name,
		Size:            c.Item.Size,
		Owner:           c.Item.Owner,
		ContainerCode:   c.Item.ContainerCode,
		ContainerType:   string(c.Item.ContainerType),
		Deleted:         c.Item.Deleted,
		DeletedBy:       c.Item.DeletedBy,
		CreatedTime:     c.Item.CreatedTime,
		LastUpdatedTime: c.Item.LastUpdatedTime,
		Storage: storageDTO{
			LocationURI: c.Storage.LocationURI,
			Version:     c.Storage.Version,
			UploadID:    c.Storage.UploadID,
		},
		Extended: extendedDTO{
			Tags:       c.Extended.Tags,
			SystemTags: c.Extended.SystemTags,
			Attributes: c.Extended.Attributes,
		},
		Favourite: c.Favourite,
	}
}

func toItemDTOs(cs []types.Combined) []itemDTO {
	out := make([]itemDTO, len(cs))
	for i := range cs {
		out[i] = toItemDTO(&cs[i])
	}
	return out
}

type collectionDTO struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Owner           string    `json:"owner"`
	ContainerCode   string    `json:"container_code"`
	CreatedTime     time.Time `json:"created_time"`
	LastUpdatedTime time.Time `json:"last_updated_time"`
	Favourite       bool      `json:"favourite"`
}

func toCollectionDTO(c *types.Collection) collectionDTO {
	return collectionDTO{
		ID: c.ID, Name: c.Name, Owner: c.Owner, ContainerCode: c.ContainerCode,
		CreatedTime: c.CreatedTime, LastUpdatedTime: c.LastUpdatedTime, Favourite: c.Favourite,
	}
}

func toCollectionDTOs(cs []types.Collection) []collectionDTO {
	out := make([]collectionDTO, len(cs))
	for i := range cs {
		out[i] = toCollectionDTO(&cs[i])
	}
	return out
}

type favouriteDTO struct {
	ID           uuid.UUID  `json:"id"`
	User         string     `json:"user"`
	ItemID       *uuid.UUID `json:"item_id,omitempty"`
	CollectionID *uuid.UUID `json:"collection_id,omitempty"`
	Pinned       bool       `json:"pinned"`
	CreatedTime  time.Time  `json:"created_time"`
}

func toFavouriteDTO(f *types.Favourite) favouriteDTO {
	return favouriteDTO{ID: f.ID, User: f.User, ItemID: f.ItemID, CollectionID: f.CollectionID, Pinned: f.Pinned, CreatedTime: f.CreatedTime}
}

func toFavouriteDTOs(fs []types.Favourite) []favouriteDTO {
	out := make([]favouriteDTO, len(fs))
	for i := range fs {
		out[i] = toFavouriteDTO(&fs[i])
	}
	return out
}

type templateDTO struct {
	ID          uuid.UUID               `json:"id"`
	Name        string                  `json:"name"`
	ProjectCode string                  `json:"project_code"`
	Attributes  []attributeFieldDTO     `json:"attributes"`
}

type attributeFieldDTO struct {
	Name     string   `json:"name"`
	Optional bool     `json:"optional"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
}

func toTemplateDTO(t *types.AttributeTemplate) templateDTO {
	fields := make([]attributeFieldDTO, len(t.Attributes))
	for i, f := range t.Attributes {
		fields[i] = attributeFieldDTO{Name: f.Name, Optional: f.Optional, Type: string(f.Type), Options: f.Options}
	}
	return templateDTO{ID: t.ID, Name: t.Name, ProjectCode: t.ProjectCode, Attributes: fields}
}

func toTemplateDTOs(ts []types.AttributeTemplate) []templateDTO {
	out := make([]templateDTO, len(ts))
	for i := range ts {
		out[i] = toTemplateDTO(&ts[i])
	}
	return out
}

type lineageViewDTO struct {
	Lineage    map[string]lineageEntryDTO  `json:"lineage"`
	Provenance map[string]provenanceDTO    `json:"provenance"`
}

type lineageEntryDTO struct {
	TfrmType string   `json:"tfrm_type"`
	Consumes []string `json:"consumes,omitempty"`
	Produces []string `json:"produces,omitempty"`
}

type provenanceDTO struct {
	ID            uuid.UUID `json:"id"`
	ItemID        uuid.UUID `json:"item_id"`
	ParentPath    string    `json:"parent_path,omitempty"`
	RestorePath   string    `json:"restore_path,omitempty"`
	Status        string    `json:"status"`
	Type          string    `json:"type"`
	Zone          int       `json:"zone"`
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	Owner         string    `json:"owner"`
	ContainerCode string    `json:"container_code"`
	ContainerType string    `json:"container_type"`
	SnapshotTime  time.Time `json:"snapshot_time"`
}

func toLineageViewDTO(v *types.LineageProvenanceView) lineageViewDTO {
	out := lineageViewDTO{Lineage: map[string]lineageEntryDTO{}, Provenance: map[string]provenanceDTO{}}
	for id, e := range v.Lineage {
		out.Lineage[id] = lineageEntryDTO{TfrmType: string(e.TfrmType), Consumes: e.Consumes, Produces: e.Produces}
	}
	for id, p := range v.Provenance {
		out.Provenance[id] = provenanceDTO{
			ID: p.ID, ItemID: p.ItemID, ParentPath: p.ParentPath, RestorePath: p.RestorePath,
			Status: string(p.Status), Type: string(p.Type), Zone: int(p.Zone), Name: p.Name,
			Size: p.Size, Owner: p.Owner, ContainerCode: p.ContainerCode, ContainerType: string(p.ContainerType),
			SnapshotTime: p.SnapshotTime,
		}
	}
	return out
}
