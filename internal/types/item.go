// Package types holds the entities and enums shared by the store, the
// permission filter, the event bus, and the HTTP layer.
package types

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus is the lifecycle state of an Item.
//
//   - REGISTERED: created by an upload flow but not yet complete.
//   - ACTIVE: upload complete, visible in listings, movable/renamable.
//   - ARCHIVED: soft-deleted (trashed); restore_path holds its former location.
type ItemStatus string

const (
	StatusRegistered ItemStatus = "REGISTERED"
	StatusActive     ItemStatus = "ACTIVE"
	StatusArchived   ItemStatus = "ARCHIVED"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case StatusRegistered, StatusActive, StatusArchived:
		return true
	}
	return false
}

// ItemType distinguishes name-folders (per-user roots), folders, and files.
type ItemType string

const (
	TypeNameFolder ItemType = "name_folder"
	TypeFolder     ItemType = "folder"
	TypeFile       ItemType = "file"
)

func (t ItemType) Valid() bool {
	switch t {
	case TypeNameFolder, TypeFolder, TypeFile:
		return true
	}
	return false
}

// ContainerType is the outermost ownership namespace for an item.
type ContainerType string

const (
	ContainerProject ContainerType = "project"
	ContainerDataset ContainerType = "dataset"
)

func (c ContainerType) Valid() bool {
	switch c {
	case ContainerProject, ContainerDataset:
		return true
	}
	return false
}

// Zone partitions a container into a staging area (0) and a published area (1).
type Zone int

const (
	ZoneGreenroom Zone = 0
	ZoneCore      Zone = 1
)

// ZoneLabel returns the display name for a zone, mirroring the original
// service's get_zone_label helper. Used only for display_path/logging.
func ZoneLabel(z Zone) string {
	switch z {
	case ZoneGreenroom:
		return "Greenroom"
	case ZoneCore:
		return "Core"
	default:
		return "Unknown"
	}
}

// Item is a node in the zone-partitioned tree (data model §3).
type Item struct {
	ID              uuid.UUID
	Parent          *uuid.UUID
	ParentPath      string // decoded ("/"-joined); empty means NULL
	RestorePath     string // decoded; empty means NULL
	Status          ItemStatus
	Type            ItemType
	Zone            Zone
	Name            string
	Size            int64
	Owner           string
	ContainerCode   string
	ContainerType   ContainerType
	Deleted         bool
	DeletedBy       string
	DeletedAt       *time.Time
	CreatedTime     time.Time
	LastUpdatedTime time.Time
}

// DisplayPath mirrors the original's construct_display_path: a
// human-readable location string, never persisted, used for logging and
// for the event-bus record.
func (it *Item) DisplayPath() string {
	p := it.ParentPath
	return it.ContainerCode + "/" + ZoneLabel(it.Zone) + "/" + p
}

// Storage is 1:1 with Item.
type Storage struct {
	ItemID      uuid.UUID
	LocationURI string
	Version     string
	UploadID    string
}

// Extended is 1:1 with Item; Attributes is keyed by attribute-template id.
type Extended struct {
	ItemID     uuid.UUID
	Tags       []string
	SystemTags []string
	Attributes map[string]map[string]string
}

// Combined bundles an Item with its Storage/Extended rows and caller-scoped
// favourite flag, the unit every read-path operation returns.
type Combined struct {
	Item      Item
	Storage   Storage
	Extended  Extended
	Favourite bool
}
