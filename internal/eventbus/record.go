package eventbus

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// RecordVersion is the schema version stamped onto every published item
// record, so downstream consumers can evolve independently of the catalog.
const RecordVersion = 1

// ExtendedRecord is the wire shape of Extended, with attribute-template
// identity resolved and attached — the Avro schema the original service
// published is replaced here by a versioned JSON struct (DESIGN.md:
// event-bus payload codec).
type ExtendedRecord struct {
	Tags           []string                     `json:"tags"`
	SystemTags     []string                     `json:"system_tags"`
	Attributes     map[string]map[string]string `json:"attributes,omitempty"`
	TemplateID     string                       `json:"template_id,omitempty"`
	TemplateName   string                       `json:"template_name,omitempty"`
}

// ItemRecord is the canonical, normalized record published to the bus for
// every item mutation. Timestamps are always reparsed as UTC; attribute
// templates are resolved only when the item carries attributes.
type ItemRecord struct {
	Version         int            `json:"version"`
	ID              string         `json:"id"`
	Parent          string         `json:"parent,omitempty"`
	ParentPath      string         `json:"parent_path,omitempty"`
	RestorePath     string         `json:"restore_path,omitempty"`
	Status          string         `json:"status"`
	Type            string         `json:"type"`
	Zone            int            `json:"zone"`
	Name            string         `json:"name"`
	Size            int64          `json:"size"`
	Owner           string         `json:"owner"`
	ContainerCode   string         `json:"container_code"`
	ContainerType   string         `json:"container_type"`
	Deleted         bool           `json:"deleted"`
	DeletedBy       string         `json:"deleted_by,omitempty"`
	DisplayPath     string         `json:"display_path"`
	Storage         *StorageRecord `json:"storage,omitempty"`
	Extended        ExtendedRecord `json:"extended"`
	CreatedTime     time.Time      `json:"created_time"`
	LastUpdatedTime time.Time      `json:"last_updated_time"`
	PublishedAt     time.Time      `json:"published_at"`
	ToDelete        bool           `json:"to_delete,omitempty"`
}

// StorageRecord is the wire shape of Storage.
type StorageRecord struct {
	LocationURI string `json:"location_uri,omitempty"`
	Version     string `json:"version,omitempty"`
	UploadID    string `json:"upload_id,omitempty"`
}

// TemplateResolver looks up an attribute template's name by id; ok is false
// when no template with that id can be found.
type TemplateResolver interface {
	ResolveTemplateName(id uuid.UUID) (name string, ok bool)
}

// NewItemRecord normalizes a Combined into the canonical record shape.
// Template id/name are resolved and attached only when attributes is
// non-empty, matching the original service's behavior. A resolution
// failure returns an error; callers publish after the database commit, so
// this is a delivery-seam failure, not a transactional one.
func NewItemRecord(c *types.Combined, resolver TemplateResolver, templateID *uuid.UUID) (*ItemRecord, error) {
	it := c.Item
	rec := &ItemRecord{
		Version:       RecordVersion,
		ID:            it.ID.String(),
		ParentPath:    it.ParentPath,
		RestorePath:   it.RestorePath,
		Status:        string(it.Status),
		Type:          string(it.Type),
		Zone:          int(it.Zone),
		Name:          it.Name,
		Size:          it.Size,
		Owner:         it.Owner,
		ContainerCode: it.ContainerCode,
		ContainerType: string(it.ContainerType),
		Deleted:       it.Deleted,
		DeletedBy:     it.DeletedBy,
		DisplayPath:   it.DisplayPath(),
		Extended: ExtendedRecord{
			Tags:       c.Extended.Tags,
			SystemTags: c.Extended.SystemTags,
			Attributes: c.Extended.Attributes,
		},
		CreatedTime:     it.CreatedTime.UTC(),
		LastUpdatedTime: it.LastUpdatedTime.UTC(),
		PublishedAt:     nowUTC(),
	}
	if it.Parent != nil {
		rec.Parent = it.Parent.String()
	}
	if c.Storage.LocationURI != "" || c.Storage.Version != "" || c.Storage.UploadID != "" {
		rec.Storage = &StorageRecord{
			LocationURI: c.Storage.LocationURI,
			Version:     c.Storage.Version,
			UploadID:    c.Storage.UploadID,
		}
	}
	if len(c.Extended.Attributes) > 0 && templateID != nil && resolver != nil {
		name, ok := resolver.ResolveTemplateName(*templateID)
		if !ok {
			return nil, fmt.Errorf("eventbus: attribute template %s could not be resolved", templateID)
		}
		rec.Extended.TemplateID = templateID.String()
		rec.Extended.TemplateName = name
	}
	return rec, nil
}

// DeleteRecord builds the minimal record published for a permanent delete:
// the item identity plus the to_delete marker, mirroring the original
// service's "emit one event per deleted item with a to_delete=true marker".
func DeleteRecord(it *types.Item) *ItemRecord {
	rec := &ItemRecord{
		Version:       RecordVersion,
		ID:            it.ID.String(),
		ParentPath:    it.ParentPath,
		Status:        string(it.Status),
		Type:          string(it.Type),
		Zone:          int(it.Zone),
		Name:          it.Name,
		Owner:         it.Owner,
		ContainerCode: it.ContainerCode,
		ContainerType: string(it.ContainerType),
		DisplayPath:   it.DisplayPath(),
		ToDelete:      true,
		PublishedAt:   nowUTC(),
	}
	if it.Parent != nil {
		rec.Parent = it.Parent.String()
	}
	return rec
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
