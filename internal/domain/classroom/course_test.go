package classroom

import (
	"testing"

	"gorm.io/datatypes"
)

func TestCourseVisible(t *testing.T) {
	cases := []struct {
		meta string
		want bool
	}{
		{``, false},
		{`{}`, false},
		{`{"visibility":"private"}`, false},
		{`{"visibility":"public"}`, true},
		{`{"visibility":"unlisted"}`, true},
		{`{"visibility":3}`, false},
		{`not json`, false},
	}
	for _, tc := range cases {
		c := &Course{Meta: datatypes.JSON([]byte(tc.meta))}
		if got := c.Visible(); got != tc.want {
			t.Fatalf("Visible(%s): want=%v got=%v", tc.meta, tc.want, got)
		}
	}
}

func TestMergeBagIsShallow(t *testing.T) {
	base := datatypes.JSON([]byte(`{"code":"CS101","ingestion":{"status":"queued","started_at":5}}`))
	merged := DecodeBag(MergeBag(base, map[string]any{
		"ingestion": map[string]any{"status": "done"},
	}))
	if merged["code"] != "CS101" {
		t.Fatalf("untouched key lost: %v", merged)
	}
	ing := merged["ingestion"].(map[string]any)
	if _, ok := ing["started_at"]; ok {
		t.Fatalf("nested keys must be replaced, not merged: %v", ing)
	}
}

func TestStatusIsBackward(t *testing.T) {
	if !CourseStatusArchived.IsBackward(CourseStatusDraft) {
		t.Fatalf("archived -> draft should be backward")
	}
	if CourseStatusDraft.IsBackward(CourseStatusArchived) {
		t.Fatalf("draft -> archived is forward")
	}
	if CourseStatusActive.IsBackward(CourseStatusActive) {
		t.Fatalf("same status is not backward")
	}
}

func TestMaterialIngestionRecord(t *testing.T) {
	m := &Material{Kind: MaterialKindDoc, URIOrBlobID: "f1"}
	if _, ok := m.IngestionRecord(); ok {
		t.Fatalf("expected no record")
	}
	m.Meta = MergeBag(nil, map[string]any{MetaIngestion: Ingestion{
		Status: IngestionDone, StartedAt: 10, CompletedAt: 12, Collection: "course-x",
	}.AsMap()})
	rec, ok := m.IngestionRecord()
	if !ok || rec.Status != IngestionDone || rec.StartedAt != 10 || rec.CompletedAt != 12 || rec.Collection != "course-x" {
		t.Fatalf("record: ok=%v rec=%+v", ok, rec)
	}
	if !m.NeedsIngestion() {
		t.Fatalf("doc with blob id needs ingestion")
	}
}
