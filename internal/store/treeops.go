package store

import (
	"strings"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/catalogpath"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// TreeMutation is the pure, backend-agnostic part of a subtree operation:
// given the root's old and new state plus its already-fetched descendants,
// it computes each descendant's new path fields in place. Every backend
// fetches the subtree its own way (a Go map scan for memory, a LIKE
// prefix SELECT for postgres) and then calls these functions to compute
// the actual field mutations, so the hard part of the algorithm — the path
// splicing described in the original service's crud_items.py — is written
// exactly once.

// ApplyMove rewrites every descendant's ParentPath after root moves from
// oldRootParentPath to newRootParentPath (both decoded, neither including
// root's own name). Descendant paths are rewritten by replacing the
// (decoded) prefix belonging to root's old full path with root's new full
// path — equivalent to, but simpler than, the recursive depth-by-depth
// relabeling the original performs, since a plain move never changes any
// node's own name.
func ApplyMove(rootName, oldRootParentPath, newRootParentPath string, descendants []*types.Item) {
	oldRootFullPath := catalogpath.Join(oldRootParentPath, rootName)
	newRootFullPath := catalogpath.Join(newRootParentPath, rootName)
	for _, d := range descendants {
		d.ParentPath = rebase(d.ParentPath, oldRootFullPath, newRootFullPath)
	}
}

// rebase replaces the oldPrefix a path starts with with newPrefix. Callers
// guarantee path always has oldPrefix as a full-label prefix (it was
// fetched via a prefix query against that exact root).
func rebase(path, oldPrefix, newPrefix string) string {
	if path == oldPrefix {
		return newPrefix
	}
	suffix := strings.TrimPrefix(path, oldPrefix+"/")
	if suffix == path {
		// Defensive: path wasn't actually under oldPrefix; leave unchanged.
		return path
	}
	return catalogpath.Join(newPrefix, suffix)
}

// ApplyRename splices newName into every descendant's ParentPath at the
// label position root's own name occupies, i.e. Depth(rootParentPath).
// Root's own ParentPath is untouched by a rename — only its Name field
// changes, which the caller sets directly.
func ApplyRename(rootParentPath, newName string, descendants []*types.Item) {
	index := catalogpath.Depth(rootParentPath)
	for _, d := range descendants {
		d.ParentPath = catalogpath.SpliceLabel(d.ParentPath, index, newName)
	}
}

// ApplyArchive transitions root and its descendants from ACTIVE to
// ARCHIVED. root's Name may change if its desired new name collides with
// an existing archived item at the top level (the caller computes
// newRootName with AvailableName to account for that). Every archived
// item — root and descendant alike — ends with ParentPath cleared and
// RestorePath holding the path it can be restored to, per the invariant
// that ARCHIVED items always have parent_path = NULL.
func ApplyArchive(root *types.Item, newRootName string, descendants []*types.Item) {
	index := catalogpath.Depth(root.ParentPath)
	root.RestorePath = root.ParentPath
	root.Name = newRootName
	root.Parent = nil
	root.ParentPath = ""
	root.Status = types.StatusArchived

	for _, d := range descendants {
		d.RestorePath = catalogpath.SpliceLabel(d.ParentPath, index, newRootName)
		d.ParentPath = ""
		d.Status = types.StatusArchived
	}
}

// ApplyRestore transitions root and its descendants from ARCHIVED back to
// ACTIVE. destinationID/newRootName are resolved by the caller (the
// restore destination lookup and name-collision check both need live
// queries the backend performs before calling this). Every restored item's
// RestorePath is cleared.
func ApplyRestore(root *types.Item, destinationID *uuid.UUID, newRootName string, descendants []*types.Item) {
	index := catalogpath.Depth(root.RestorePath)
	root.ParentPath = root.RestorePath
	root.Name = newRootName
	root.Parent = destinationID
	root.RestorePath = ""
	root.Status = types.StatusActive

	for _, d := range descendants {
		d.ParentPath = catalogpath.SpliceLabel(d.RestorePath, index, newRootName)
		d.RestorePath = ""
		d.Status = types.StatusActive
	}
}

// ApplyBequeath overwrites extended.attributes and/or extended.system_tags
// on ext in place, per the original service's bequeath_to_children: when a
// template id and attributes are supplied, the entire attributes map is
// replaced with a single entry keyed by that template id (never merged with
// whatever template the descendant previously carried); when system tags
// are supplied, they wholesale-replace the descendant's system tags. A nil
// TemplateID/Attributes or nil SystemTags in in leaves that field untouched.
func ApplyBequeath(ext *types.Extended, in BequeathInput) {
	if in.TemplateID != nil && in.Attributes != nil {
		ext.Attributes = map[string]map[string]string{in.TemplateID.String(): in.Attributes}
	}
	if in.SystemTags != nil {
		ext.SystemTags = in.SystemTags
	}
}

// RestoreDestination splits a decoded restore_path into the name and
// parent path of the folder the item should be restored under, mirroring
// get_restore_destination_id's path-splitting.
func RestoreDestination(decodedRestorePath string) (destName string, destParentPath string) {
	if decodedRestorePath == "" {
		return "", ""
	}
	idx := strings.LastIndex(decodedRestorePath, "/")
	if idx < 0 {
		return decodedRestorePath, ""
	}
	return decodedRestorePath[idx+1:], decodedRestorePath[:idx]
}
