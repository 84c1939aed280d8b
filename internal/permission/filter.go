// Package permission implements the zone-and-namefolder visibility filter
// (C3): every item listing is rewritten, as a predicate conjunction, to
// reflect what the caller may see in each zone. Grounded on the original
// service's app/routers/v1/items/permissions_items.py.
package permission

import (
	"context"
	"fmt"
	"strings"

	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// Capability names consulted against the external authority, mirroring the
// original's has_permission(..., 'file_any'|'file_in_own_namefolder', ...).
const (
	CapabilityFileAny           = "file_any"
	CapabilityFileInOwnNameFolder = "file_in_own_namefolder"
)

// ZoneMode is the caller's visibility into one zone.
type ZoneMode int

const (
	// ZoneDenied: the zone is filtered out of listings entirely.
	ZoneDenied ZoneMode = iota
	// ZoneOwnNameFolderOnly: only items beneath the caller's own name-folder are visible.
	ZoneOwnNameFolderOnly
	// ZoneFull: every item in the zone is visible (file_any granted).
	ZoneFull
)

// Authority is the external permission-decision service (has_permission),
// out of scope per spec.md §1 — this is the interface this package consults.
type Authority interface {
	HasPermission(ctx context.Context, containerCode, capability string, zone types.Zone, action string, identity Identity) (bool, error)
}

// Identity is the caller's resolved identity (username at minimum), decoded
// upstream from a JWT by the out-of-scope auth layer.
type Identity struct {
	Username string
}

// Decision is the rewritten query predicate for one listing request: per
// zone, how much the caller may see.
type Decision struct {
	ZoneAccess map[types.Zone]ZoneMode
	Username   string
}

// Resolve consults the external authority for both zones and builds a
// Decision. containerType bypasses the filter entirely for dataset
// containers per §4.3.
func Resolve(ctx context.Context, authority Authority, containerCode string, containerType types.ContainerType, identity Identity) (*Decision, error) {
	d := &Decision{ZoneAccess: map[types.Zone]ZoneMode{}, Username: identity.Username}
	if containerType == types.ContainerDataset {
		d.ZoneAccess[types.ZoneGreenroom] = ZoneFull
		d.ZoneAccess[types.ZoneCore] = ZoneFull
		return d, nil
	}
	for _, zone := range []types.Zone{types.ZoneGreenroom, types.ZoneCore} {
		mode, err := resolveZone(ctx, authority, containerCode, zone, identity)
		if err != nil {
			return nil, err
		}
		d.ZoneAccess[zone] = mode
	}
	return d, nil
}

func resolveZone(ctx context.Context, authority Authority, containerCode string, zone types.Zone, identity Identity) (ZoneMode, error) {
	any, err := authority.HasPermission(ctx, containerCode, CapabilityFileAny, zone, "view", identity)
	if err != nil {
		return ZoneDenied, err
	}
	if any {
		return ZoneFull, nil
	}
	own, err := authority.HasPermission(ctx, containerCode, CapabilityFileInOwnNameFolder, zone, "view", identity)
	if err != nil {
		return ZoneDenied, err
	}
	if own {
		return ZoneOwnNameFolderOnly, nil
	}
	return ZoneDenied, nil
}

// ListingShape describes the request-specific detail the filter needs to
// decide which location column (parent_path vs restore_path) governs
// visibility, and whether the degenerate name-folder-level mode applies.
type ListingShape struct {
	Status     types.ItemStatus
	ParentPath string
	RestorePath string
	Recursive  bool
}

// locationIsRestorePath reports whether restore_path (not parent_path) is
// the location attribute being filtered, per §4.3: archived listings key
// off restore_path.
func (s ListingShape) locationIsRestorePath() bool {
	return s.Status == types.StatusArchived
}

// nameFolderLevel is the degenerate mode: no parent_path, no restore_path,
// non-recursive — own-namefolder visibility degrades to "name == username".
func (s ListingShape) nameFolderLevel() bool {
	return s.ParentPath == "" && s.RestorePath == "" && !s.Recursive
}

// Allows reports whether a fully-materialized item is visible to the
// caller under this decision — used by the in-memory store backend, which
// filters in Go rather than building a SQL predicate.
func (d *Decision) Allows(item *types.Item, shape ListingShape) bool {
	mode, ok := d.ZoneAccess[item.Zone]
	if !ok {
		mode = ZoneDenied
	}
	switch mode {
	case ZoneFull:
		return true
	case ZoneOwnNameFolderOnly:
		if shape.nameFolderLevel() {
			return item.Name == d.Username
		}
		location := item.ParentPath
		if shape.locationIsRestorePath() {
			location = item.RestorePath
		}
		return location == d.Username || strings.HasPrefix(location, d.Username+"/")
	default:
		return false
	}
}

// SQLClause builds a parenthesized SQL predicate over the zone and location
// columns, to be AND-ed onto the rest of a listing query's WHERE clause —
// "a predicate conjunction ... never a second query" per §4.3. argStart is
// the first free positional-parameter index ($N) to use; it returns the
// next free index after consuming its own parameters.
func (d *Decision) SQLClause(zoneColumn, parentPathColumn, restorePathColumn string, shape ListingShape, argStart int) (clause string, args []interface{}, nextArg int) {
	locationColumn := parentPathColumn
	if shape.locationIsRestorePath() {
		locationColumn = restorePathColumn
	}
	nextArg = argStart
	var zoneClauses []string
	for _, zone := range []types.Zone{types.ZoneGreenroom, types.ZoneCore} {
		mode := d.ZoneAccess[zone]
		switch mode {
		case ZoneFull:
			continue // no restriction needed for this zone
		case ZoneDenied:
			zoneClauses = append(zoneClauses, fmt.Sprintf("%s <> %d", zoneColumn, int(zone)))
		case ZoneOwnNameFolderOnly:
			if shape.nameFolderLevel() {
				c := fmt.Sprintf("(%s <> %d OR name = $%d)", zoneColumn, int(zone), nextArg)
				args = append(args, d.Username)
				nextArg++
				zoneClauses = append(zoneClauses, c)
			} else {
				c := fmt.Sprintf("(%s <> %d OR %s = $%d OR %s LIKE $%d)", zoneColumn, int(zone), locationColumn, nextArg, locationColumn, nextArg+1)
				args = append(args, d.Username, d.Username+"/%")
				nextArg += 2
				zoneClauses = append(zoneClauses, c)
			}
		}
	}
	if len(zoneClauses) == 0 {
		return "", nil, nextArg
	}
	return "(" + strings.Join(zoneClauses, " AND ") + ")", args, nextArg
}
