package permission

import (
	"testing"

	"github.com/hdc-platform/metadata-catalog/internal/types"
)

func TestDecisionAllows_FullZoneSeesEverything(t *testing.T) {
	d := &Decision{Username: "alice", ZoneAccess: map[types.Zone]ZoneMode{
		types.ZoneGreenroom: ZoneFull,
	}}
	item := &types.Item{Zone: types.ZoneGreenroom, ParentPath: "bob/stuff", Name: "file.txt"}
	if !d.Allows(item, ListingShape{Status: types.StatusActive, Recursive: true}) {
		t.Fatal("expected file_any to see another user's item")
	}
}

func TestDecisionAllows_OwnNameFolderOnly(t *testing.T) {
	d := &Decision{Username: "alice", ZoneAccess: map[types.Zone]ZoneMode{
		types.ZoneGreenroom: ZoneOwnNameFolderOnly,
	}}
	mine := &types.Item{Zone: types.ZoneGreenroom, ParentPath: "alice/docs", Name: "a.txt"}
	theirs := &types.Item{Zone: types.ZoneGreenroom, ParentPath: "bob/docs", Name: "b.txt"}
	shape := ListingShape{Status: types.StatusActive, Recursive: true}
	if !d.Allows(mine, shape) {
		t.Error("expected own name-folder item to be visible")
	}
	if d.Allows(theirs, shape) {
		t.Error("expected other user's item to be denied")
	}
}

func TestDecisionAllows_DeniedZone(t *testing.T) {
	d := &Decision{Username: "alice", ZoneAccess: map[types.Zone]ZoneMode{
		types.ZoneGreenroom: ZoneDenied,
	}}
	item := &types.Item{Zone: types.ZoneGreenroom, ParentPath: "alice/docs", Name: "a.txt"}
	if d.Allows(item, ListingShape{Status: types.StatusActive, Recursive: true}) {
		t.Error("expected denied zone to hide even the caller's own item")
	}
}

func TestDecisionAllows_NameFolderLevelDegenerate(t *testing.T) {
	d := &Decision{Username: "alice", ZoneAccess: map[types.Zone]ZoneMode{
		types.ZoneGreenroom: ZoneOwnNameFolderOnly,
	}}
	mine := &types.Item{Zone: types.ZoneGreenroom, Type: types.TypeNameFolder, Name: "alice"}
	theirs := &types.Item{Zone: types.ZoneGreenroom, Type: types.TypeNameFolder, Name: "bob"}
	shape := ListingShape{Status: types.StatusActive} // no ParentPath, not recursive: degenerate
	if !d.Allows(mine, shape) {
		t.Error("expected own name-folder to be visible at name-folder level")
	}
	if d.Allows(theirs, shape) {
		t.Error("expected other user's name-folder to be denied at name-folder level")
	}
}

func TestDecisionAllows_ArchivedUsesRestorePath(t *testing.T) {
	d := &Decision{Username: "alice", ZoneAccess: map[types.Zone]ZoneMode{
		types.ZoneGreenroom: ZoneOwnNameFolderOnly,
	}}
	item := &types.Item{Zone: types.ZoneGreenroom, RestorePath: "alice/docs", ParentPath: ""}
	shape := ListingShape{Status: types.StatusArchived, RestorePath: "alice/docs", Recursive: true}
	if !d.Allows(item, shape) {
		t.Error("expected archived listing to key off restore_path")
	}
}

func TestDecisionSQLClause_FullZoneProducesNoClause(t *testing.T) {
	d := &Decision{Username: "alice", ZoneAccess: map[types.Zone]ZoneMode{
		types.ZoneGreenroom: ZoneFull,
		types.ZoneCore:      ZoneFull,
	}}
	clause, args, next := d.SQLClause("zone", "parent_path", "restore_path", ListingShape{Status: types.StatusActive, Recursive: true}, 1)
	if clause != "" || len(args) != 0 || next != 1 {
		t.Errorf("expected empty clause for full access, got %q args=%v next=%d", clause, args, next)
	}
}

func TestDecisionSQLClause_DeniedAndOwnMixed(t *testing.T) {
	d := &Decision{Username: "alice", ZoneAccess: map[types.Zone]ZoneMode{
		types.ZoneGreenroom: ZoneDenied,
		types.ZoneCore:      ZoneOwnNameFolderOnly,
	}}
	clause, args, next := d.SQLClause("zone", "parent_path", "restore_path", ListingShape{Status: types.StatusActive, Recursive: true}, 1)
	if clause == "" {
		t.Fatal("expected a non-empty predicate")
	}
	if len(args) != 2 {
		t.Errorf("expected 2 bound args (username, username-prefix), got %d: %v", len(args), args)
	}
	if next != 3 {
		t.Errorf("expected next arg index 3, got %d", next)
	}
}
