package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Collection is a user-owned named bag of items, bounded per (owner, container_code).
type Collection struct {
	ID              uuid.UUID
	Name            string
	Owner           string
	ContainerCode   string
	CreatedTime     time.Time
	LastUpdatedTime time.Time
	Favourite       bool // caller-scoped projection, not persisted
}

// reservedCollectionNameChars are forbidden in a collection name per §3.
const reservedCollectionNameChars = `/:?*<>|"'`

// ValidCollectionName reports whether name avoids every reserved character.
func ValidCollectionName(name string) bool {
	return !strings.ContainsAny(name, reservedCollectionNameChars)
}

// Favourite is a per-user pinnable marker over an item XOR a collection.
type Favourite struct {
	ID           uuid.UUID
	User         string
	ItemID       *uuid.UUID
	CollectionID *uuid.UUID
	Pinned       bool
	CreatedTime  time.Time
}

// FavouriteTargetType names which side of the XOR a Favourite request targets.
type FavouriteTargetType string

const (
	FavouriteTargetItem       FavouriteTargetType = "item"
	FavouriteTargetCollection FavouriteTargetType = "collection"
)
