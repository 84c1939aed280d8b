package store

import (
	"testing"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/types"
)

func TestApplyMove_RewritesDescendantPrefixes(t *testing.T) {
	descendants := []*types.Item{
		{ParentPath: "alice/reports"},        // direct child of root
		{ParentPath: "alice/reports/2024"},   // grandchild
	}
	ApplyMove("reports", "alice", "bob/archive", descendants)

	if descendants[0].ParentPath != "bob/archive/reports" {
		t.Errorf("direct child: got %q", descendants[0].ParentPath)
	}
	if descendants[1].ParentPath != "bob/archive/reports/2024" {
		t.Errorf("grandchild: got %q", descendants[1].ParentPath)
	}
}

func TestApplyMove_RootToEmptyParent(t *testing.T) {
	descendants := []*types.Item{{ParentPath: "alice/reports"}}
	ApplyMove("reports", "alice", "", descendants)
	if descendants[0].ParentPath != "reports" {
		t.Errorf("got %q, want %q", descendants[0].ParentPath, "reports")
	}
}

func TestApplyRename_SplicesLabelAtRootDepth(t *testing.T) {
	// root sits at "alice" (depth 1 parent path), so its own name occupies
	// index 1 in any descendant's path.
	descendants := []*types.Item{
		{ParentPath: "alice/old_name"},
		{ParentPath: "alice/old_name/2024"},
	}
	ApplyRename("alice", "new_name", descendants)
	if descendants[0].ParentPath != "alice/new_name" {
		t.Errorf("got %q", descendants[0].ParentPath)
	}
	if descendants[1].ParentPath != "alice/new_name/2024" {
		t.Errorf("got %q", descendants[1].ParentPath)
	}
}

func TestApplyArchive_ClearsParentPathSetsRestorePath(t *testing.T) {
	root := &types.Item{Name: "reports", ParentPath: "alice", Status: types.StatusActive}
	descendants := []*types.Item{
		{ParentPath: "alice/reports", Status: types.StatusActive},
		{ParentPath: "alice/reports/2024", Status: types.StatusActive},
	}
	ApplyArchive(root, "reports", descendants)

	if root.Status != types.StatusArchived || root.ParentPath != "" || root.RestorePath != "alice" || root.Parent != nil {
		t.Errorf("root not archived correctly: %+v", root)
	}
	if descendants[0].ParentPath != "" || descendants[0].RestorePath != "alice/reports" || descendants[0].Status != types.StatusArchived {
		t.Errorf("descendant 0 not archived correctly: %+v", descendants[0])
	}
	if descendants[1].RestorePath != "alice/reports/2024" || descendants[1].ParentPath != "" {
		t.Errorf("descendant 1 not archived correctly: %+v", descendants[1])
	}
}

func TestApplyArchive_RenameOnCollisionPropagatesToDescendants(t *testing.T) {
	root := &types.Item{Name: "reports", ParentPath: "alice", Status: types.StatusActive}
	descendants := []*types.Item{{ParentPath: "alice/reports/2024", Status: types.StatusActive}}
	ApplyArchive(root, "reports_1700000000", descendants)

	if root.Name != "reports_1700000000" {
		t.Errorf("expected renamed root, got %q", root.Name)
	}
	if descendants[0].RestorePath != "alice/reports_1700000000/2024" {
		t.Errorf("expected descendant restore path to use renamed root, got %q", descendants[0].RestorePath)
	}
}

func TestApplyRestore_RoundTripsArchive(t *testing.T) {
	root := &types.Item{Name: "reports", ParentPath: "alice", Status: types.StatusActive}
	descendants := []*types.Item{
		{ParentPath: "alice/reports", Status: types.StatusActive},
		{ParentPath: "alice/reports/2024", Status: types.StatusActive},
	}
	ApplyArchive(root, "reports", descendants)

	destID := uuid.New()
	ApplyRestore(root, &destID, "reports", descendants)

	if root.Status != types.StatusActive || root.ParentPath != "alice" || root.RestorePath != "" || root.Parent == nil || *root.Parent != destID {
		t.Errorf("root not restored correctly: %+v", root)
	}
	if descendants[0].ParentPath != "alice/reports" || descendants[0].RestorePath != "" {
		t.Errorf("descendant 0 not restored correctly: %+v", descendants[0])
	}
	if descendants[1].ParentPath != "alice/reports/2024" || descendants[1].RestorePath != "" {
		t.Errorf("descendant 1 not restored correctly: %+v", descendants[1])
	}
}

func TestApplyBequeath_OverwritesAttributesWholesale(t *testing.T) {
	templateID := uuid.New()
	ext := &types.Extended{
		SystemTags: []string{"old-tag"},
		Attributes: map[string]map[string]string{uuid.New().String(): {"stale": "value"}},
	}
	ApplyBequeath(ext, BequeathInput{
		TemplateID: &templateID,
		Attributes: map[string]string{"attribute_1": "val1"},
		SystemTags: []string{"copied-to-core"},
	})
	if len(ext.Attributes) != 1 {
		t.Fatalf("expected the stale template entry replaced, got %+v", ext.Attributes)
	}
	if ext.Attributes[templateID.String()]["attribute_1"] != "val1" {
		t.Errorf("expected new template attributes applied, got %+v", ext.Attributes)
	}
	if len(ext.SystemTags) != 1 || ext.SystemTags[0] != "copied-to-core" {
		t.Errorf("expected system tags replaced wholesale, got %+v", ext.SystemTags)
	}
}

func TestApplyBequeath_NilFieldsLeaveExistingValuesUntouched(t *testing.T) {
	ext := &types.Extended{SystemTags: []string{"keep-me"}}
	ApplyBequeath(ext, BequeathInput{})
	if len(ext.Attributes) != 0 {
		t.Errorf("expected attributes untouched, got %+v", ext.Attributes)
	}
	if len(ext.SystemTags) != 1 || ext.SystemTags[0] != "keep-me" {
		t.Errorf("expected system tags untouched, got %+v", ext.SystemTags)
	}
}

func TestRestoreDestination(t *testing.T) {
	name, parent := RestoreDestination("alice/test_folder")
	if name != "test_folder" || parent != "alice" {
		t.Errorf("got name=%q parent=%q", name, parent)
	}
	name, parent = RestoreDestination("alice")
	if name != "alice" || parent != "" {
		t.Errorf("root-level destination: got name=%q parent=%q", name, parent)
	}
	name, parent = RestoreDestination("")
	if name != "" || parent != "" {
		t.Errorf("empty restore path: got name=%q parent=%q", name, parent)
	}
}
