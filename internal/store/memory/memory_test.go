package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

func newTestStore() *Store {
	return New(DefaultLimits())
}

func createItem(t *testing.T, s *Store, name, parentPath string, status types.ItemStatus, typ types.ItemType) *types.Combined {
	t.Helper()
	c, err := s.CreateItem(context.Background(), &types.Item{
		Name:          name,
		ParentPath:    parentPath,
		Status:        status,
		Type:          typ,
		Zone:          types.ZoneCore,
		Owner:         "alice",
		ContainerCode: "proj1",
		ContainerType: types.ContainerProject,
	}, nil, nil)
	if err != nil {
		t.Fatalf("CreateItem(%s): %v", name, err)
	}
	return c
}

func TestCreateItem_RejectsDuplicateLocation(t *testing.T) {
	s := newTestStore()
	createItem(t, s, "reports", "alice", types.StatusActive, types.TypeFolder)
	_, err := s.CreateItem(context.Background(), &types.Item{
		Name: "reports", ParentPath: "alice", Status: types.StatusActive, Type: types.TypeFolder,
		Zone: types.ZoneCore, Owner: "alice", ContainerCode: "proj1", ContainerType: types.ContainerProject,
	}, nil, nil)
	if !store.IsDuplicateErr(err) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestArchiveThenRestore_RoundTripsTree(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	createItem(t, s, "alice", "", types.StatusActive, types.TypeNameFolder)
	root := createItem(t, s, "reports", "alice", types.StatusActive, types.TypeFolder)
	child := createItem(t, s, "2024", "alice/reports", types.StatusActive, types.TypeFolder)
	grandchild := createItem(t, s, "jan.csv", "alice/reports/2024", types.StatusActive, types.TypeFile)

	archived, err := s.ArchiveRestoreItem(ctx, root.Item.ID, store.ArchiveRestoreInput{TargetStatus: types.StatusArchived, DeletedBy: "alice"})
	if err != nil {
		t.Fatalf("archive root: %v", err)
	}
	if archived.Item.Status != types.StatusArchived || archived.Item.ParentPath != "" || archived.Item.RestorePath != "alice" {
		t.Fatalf("root not archived correctly: %+v", archived.Item)
	}

	childAfter, _ := s.GetItemByID(ctx, child.Item.ID)
	if childAfter.Item.Status != types.StatusArchived || childAfter.Item.RestorePath != "alice/reports" {
		t.Fatalf("child not archived correctly: %+v", childAfter.Item)
	}
	grandAfter, _ := s.GetItemByID(ctx, grandchild.Item.ID)
	if grandAfter.Item.RestorePath != "alice/reports/2024" {
		t.Fatalf("grandchild not archived correctly: %+v", grandAfter.Item)
	}

	restored, err := s.ArchiveRestoreItem(ctx, root.Item.ID, store.ArchiveRestoreInput{TargetStatus: types.StatusActive})
	if err != nil {
		t.Fatalf("restore root: %v", err)
	}
	if restored.Item.Status != types.StatusActive || restored.Item.ParentPath != "alice" || restored.Item.RestorePath != "" {
		t.Fatalf("root not restored correctly: %+v", restored.Item)
	}
	childRestored, _ := s.GetItemByID(ctx, child.Item.ID)
	if childRestored.Item.ParentPath != "alice/reports" || childRestored.Item.Status != types.StatusActive {
		t.Fatalf("child not restored correctly: %+v", childRestored.Item)
	}
}

func TestArchive_CollisionRenamesRootAndPropagatesToDescendants(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	first := createItem(t, s, "reports", "alice", types.StatusActive, types.TypeFolder)
	_, err := s.ArchiveRestoreItem(ctx, first.Item.ID, store.ArchiveRestoreInput{TargetStatus: types.StatusArchived})
	if err != nil {
		t.Fatalf("archive first: %v", err)
	}

	second := createItem(t, s, "reports", "bob", types.StatusActive, types.TypeFolder)
	child := createItem(t, s, "file.txt", "bob/reports", types.StatusActive, types.TypeFile)
	archivedSecond, err := s.ArchiveRestoreItem(ctx, second.Item.ID, store.ArchiveRestoreInput{TargetStatus: types.StatusArchived})
	if err != nil {
		t.Fatalf("archive second: %v", err)
	}
	if archivedSecond.Item.Name == "reports" {
		t.Fatalf("expected renamed root to avoid collision with first archived reports, got %q", archivedSecond.Item.Name)
	}
	childAfter, _ := s.GetItemByID(ctx, child.Item.ID)
	wantPrefix := "bob/" + archivedSecond.Item.Name
	if childAfter.Item.RestorePath != wantPrefix {
		t.Fatalf("expected descendant restore path %q, got %q", wantPrefix, childAfter.Item.RestorePath)
	}
}

func TestMoveItem_RewritesDescendants(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	root := createItem(t, s, "reports", "alice", types.StatusActive, types.TypeFolder)
	child := createItem(t, s, "2024", "alice/reports", types.StatusActive, types.TypeFolder)

	_, err := s.MoveItem(ctx, root.Item.ID, store.MoveInput{NewParentPath: "bob/archive"})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	childAfter, _ := s.GetItemByID(ctx, child.Item.ID)
	if childAfter.Item.ParentPath != "bob/archive/reports" {
		t.Fatalf("expected child moved under new root path, got %q", childAfter.Item.ParentPath)
	}
}

func TestRenameItem_RejectsCollisionAtSameLocation(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	createItem(t, s, "a", "alice", types.StatusActive, types.TypeFolder)
	b := createItem(t, s, "b", "alice", types.StatusActive, types.TypeFolder)
	_, err := s.RenameItem(ctx, b.Item.ID, store.RenameInput{NewName: "a"})
	if !store.IsDuplicateErr(err) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestBequeathSubtree_OverwritesDescendantExtendedOnly(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	root := createItem(t, s, "reports", "alice", types.StatusActive, types.TypeFolder)
	child := createItem(t, s, "2024", "alice/reports", types.StatusActive, types.TypeFolder)

	templateID := uuid.New()
	results, err := s.BequeathSubtree(ctx, root.Item.ID, store.BequeathInput{
		TemplateID: &templateID,
		Attributes: map[string]string{"attribute_1": "val1"},
		SystemTags: []string{"copied-to-core"},
	})
	if err != nil {
		t.Fatalf("bequeath: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 descendant (root excluded), got %d", len(results))
	}
	if results[0].Item.ID != child.Item.ID {
		t.Fatalf("expected the descendant, got %s", results[0].Item.Name)
	}
	if results[0].Extended.Attributes[templateID.String()]["attribute_1"] != "val1" {
		t.Errorf("expected descendant attributes overwritten, got %+v", results[0].Extended.Attributes)
	}
	if len(results[0].Extended.SystemTags) != 1 || results[0].Extended.SystemTags[0] != "copied-to-core" {
		t.Errorf("expected descendant system tags overwritten, got %+v", results[0].Extended.SystemTags)
	}

	rootAfter, _ := s.GetItemByID(ctx, root.Item.ID)
	if len(rootAfter.Extended.Attributes) != 0 {
		t.Errorf("expected root's own extended metadata untouched, got %+v", rootAfter.Extended.Attributes)
	}
}

func TestBequeathSubtree_RejectsNonFolderRoot(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	file := createItem(t, s, "notes.txt", "alice", types.StatusActive, types.TypeFile)

	_, err := s.BequeathSubtree(ctx, file.Item.ID, store.BequeathInput{})
	if !errors.Is(err, store.ErrBadRequest) {
		t.Fatalf("expected bad request error for non-folder root, got %v", err)
	}
}

func TestCreateFavourite_ItemHasNoOwnershipCheck(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	item := createItem(t, s, "shared.txt", "alice", types.StatusActive, types.TypeFile)
	fav, err := s.CreateFavourite(ctx, &types.Favourite{User: "bob", ItemID: &item.Item.ID})
	if err != nil {
		t.Fatalf("expected bob to favourite alice's item without ownership check: %v", err)
	}
	if fav.User != "bob" {
		t.Fatalf("unexpected favourite: %+v", fav)
	}
}

func TestCreateFavourite_CollectionRequiresOwnership(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	coll, err := s.CreateCollection(ctx, &types.Collection{Name: "my-stuff", Owner: "alice", ContainerCode: "proj1"})
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
	_, err = s.CreateFavourite(ctx, &types.Favourite{User: "bob", CollectionID: &coll.ID})
	if err == nil {
		t.Fatal("expected forbidden error for non-owner favouriting a collection")
	}
}

func TestCollectionCap_EnforcedPerOwnerAndContainer(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	for i := 0; i < s.limits.MaxCollectionsPerOwner; i++ {
		_, err := s.CreateCollection(ctx, &types.Collection{Name: uuid.NewString(), Owner: "alice", ContainerCode: "proj1"})
		if err != nil {
			t.Fatalf("collection %d: %v", i, err)
		}
	}
	_, err := s.CreateCollection(ctx, &types.Collection{Name: "one-too-many", Owner: "alice", ContainerCode: "proj1"})
	if err == nil {
		t.Fatal("expected cap to be enforced")
	}
}

func TestDeleteItem_CascadesCollectionMembershipAndFavourites(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	item := createItem(t, s, "shared.txt", "alice", types.StatusActive, types.TypeFile)
	coll, err := s.CreateCollection(ctx, &types.Collection{Name: "my-stuff", Owner: "alice", ContainerCode: "proj1"})
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
	if err := s.AddItemToCollection(ctx, coll.ID, item.Item.ID); err != nil {
		t.Fatalf("add to collection: %v", err)
	}
	if _, err := s.CreateFavourite(ctx, &types.Favourite{User: "bob", ItemID: &item.Item.ID}); err != nil {
		t.Fatalf("favourite: %v", err)
	}

	if err := s.DeleteItem(ctx, item.Item.ID); err != nil {
		t.Fatalf("delete item: %v", err)
	}

	if s.collectionItems[coll.ID][item.Item.ID] {
		t.Error("expected collection membership removed on delete")
	}
	favs, err := s.ListFavourites(ctx, "bob")
	if err != nil {
		t.Fatalf("list favourites: %v", err)
	}
	for _, f := range favs {
		if f.ItemID != nil && *f.ItemID == item.Item.ID {
			t.Error("expected favourite removed on delete")
		}
	}
}

func TestArchiveItem_CascadesFavouritesForSubtree(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	root := createItem(t, s, "reports", "alice", types.StatusActive, types.TypeFolder)
	child := createItem(t, s, "2024", "alice/reports", types.StatusActive, types.TypeFolder)
	if _, err := s.CreateFavourite(ctx, &types.Favourite{User: "bob", ItemID: &root.Item.ID}); err != nil {
		t.Fatalf("favourite root: %v", err)
	}
	if _, err := s.CreateFavourite(ctx, &types.Favourite{User: "bob", ItemID: &child.Item.ID}); err != nil {
		t.Fatalf("favourite child: %v", err)
	}

	if _, err := s.ArchiveRestoreItem(ctx, root.Item.ID, store.ArchiveRestoreInput{TargetStatus: types.StatusArchived, DeletedBy: "alice"}); err != nil {
		t.Fatalf("archive: %v", err)
	}

	// ListFavourites already masks archived-item favourites at list time;
	// check the underlying rows directly to confirm they were actually
	// deleted, not merely filtered out here.
	for _, f := range s.favourites {
		if f.ItemID != nil && (*f.ItemID == root.Item.ID || *f.ItemID == child.Item.ID) {
			t.Errorf("expected favourite row referencing archived subtree member %s to be deleted, found %+v", *f.ItemID, f)
		}
	}
}
