package eventbus

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/types"
)

type fakeResolver map[uuid.UUID]string

func (f fakeResolver) ResolveTemplateName(id uuid.UUID) (string, bool) {
	name, ok := f[id]
	return name, ok
}

func TestNewItemRecord_ResolvesTemplateOnlyWhenAttributesPresent(t *testing.T) {
	tplID := uuid.New()
	resolver := fakeResolver{tplID: "genomics-v1"}

	combined := &types.Combined{
		Item: types.Item{
			ID:              uuid.New(),
			Status:          types.StatusActive,
			Type:            types.TypeFile,
			Name:            "sample.bam",
			ContainerCode:   "proj1",
			ContainerType:   types.ContainerProject,
			ParentPath:      "raw",
			CreatedTime:     time.Now(),
			LastUpdatedTime: time.Now(),
		},
		Extended: types.Extended{
			Attributes: map[string]map[string]string{"sample": {"species": "human"}},
		},
	}

	rec, err := NewItemRecord(combined, resolver, &tplID)
	if err != nil {
		t.Fatalf("NewItemRecord: %v", err)
	}
	if rec.Extended.TemplateID != tplID.String() {
		t.Fatalf("expected template id %s, got %q", tplID, rec.Extended.TemplateID)
	}
	if rec.Extended.TemplateName != "genomics-v1" {
		t.Fatalf("expected template name genomics-v1, got %q", rec.Extended.TemplateName)
	}
	if rec.Version != RecordVersion {
		t.Fatalf("expected version %d, got %d", RecordVersion, rec.Version)
	}
	if rec.CreatedTime.Location() != time.UTC {
		t.Fatalf("expected created_time normalized to UTC")
	}
}

func TestNewItemRecord_NoAttributesSkipsTemplateResolution(t *testing.T) {
	combined := &types.Combined{
		Item: types.Item{
			ID:            uuid.New(),
			Status:        types.StatusActive,
			Type:          types.TypeFile,
			Name:          "plain.txt",
			ContainerCode: "proj1",
			ContainerType: types.ContainerProject,
		},
	}
	tplID := uuid.New()
	rec, err := NewItemRecord(combined, fakeResolver{tplID: "unused"}, &tplID)
	if err != nil {
		t.Fatalf("NewItemRecord: %v", err)
	}
	if rec.Extended.TemplateID != "" || rec.Extended.TemplateName != "" {
		t.Fatalf("expected no template resolution without attributes, got %+v", rec.Extended)
	}
}

func TestDeleteRecord_SetsToDeleteMarker(t *testing.T) {
	it := &types.Item{
		ID:            uuid.New(),
		Status:        types.StatusArchived,
		Type:          types.TypeFile,
		Name:          "gone.txt",
		ContainerCode: "proj1",
		ContainerType: types.ContainerProject,
	}
	rec := DeleteRecord(it)
	if !rec.ToDelete {
		t.Fatalf("expected to_delete marker set")
	}
	if rec.ID != it.ID.String() {
		t.Fatalf("expected id %s, got %s", it.ID, rec.ID)
	}
}
