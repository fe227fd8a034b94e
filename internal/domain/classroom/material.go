package classroom

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MaterialKind string

const (
	MaterialKindDoc   MaterialKind = "doc"
	MaterialKindLink  MaterialKind = "link"
	MaterialKindVideo MaterialKind = "video"
)

func ParseMaterialKind(s string) (MaterialKind, bool) {
	k := MaterialKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case MaterialKindDoc, MaterialKindLink, MaterialKindVideo:
		return k, true
	default:
		return "", false
	}
}

type Material struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	Kind        MaterialKind   `gorm:"column:kind;type:varchar(16);not null" json:"kind"`
	Title       string         `gorm:"column:title;type:text;not null" json:"title"`
	URIOrBlobID string         `gorm:"column:uri_or_blob_id;type:text" json:"uri_or_blob_id,omitempty"`
	Meta        datatypes.JSON `gorm:"column:meta;type:jsonb" json:"meta_json"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (Material) TableName() string { return "course_material" }

func (m *Material) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// NeedsIngestion is true for documents backed by an uploaded file.
func (m *Material) NeedsIngestion() bool {
	return m.Kind == MaterialKindDoc && strings.TrimSpace(m.URIOrBlobID) != ""
}

type IngestionStatus string

const (
	IngestionQueued IngestionStatus = "queued"
	IngestionDone   IngestionStatus = "done"
	IngestionError  IngestionStatus = "error"
)

// MetaIngestion is the material meta key holding an Ingestion record.
const MetaIngestion = "ingestion"

// Ingestion is the status record stored under meta.ingestion. Times are unix seconds.
type Ingestion struct {
	Status      IngestionStatus `json:"status"`
	StartedAt   int64           `json:"started_at,omitempty"`
	CompletedAt int64           `json:"completed_at,omitempty"`
	Collection  string          `json:"collection,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// AsMap renders the record the way it is stored in the meta bag.
func (in Ingestion) AsMap() map[string]any {
	out := map[string]any{"status": string(in.Status)}
	if in.StartedAt != 0 {
		out["started_at"] = in.StartedAt
	}
	if in.CompletedAt != 0 {
		out["completed_at"] = in.CompletedAt
	}
	if in.Collection != "" {
		out["collection"] = in.Collection
	}
	if in.Error != "" {
		out["error"] = in.Error
	}
	return out
}

// IngestionRecord reads meta.ingestion back; ok is false when absent.
func (m *Material) IngestionRecord() (Ingestion, bool) {
	raw, ok := DecodeBag(m.Meta)[MetaIngestion].(map[string]any)
	if !ok {
		return Ingestion{}, false
	}
	rec := Ingestion{}
	if s, ok := raw["status"].(string); ok {
		rec.Status = IngestionStatus(s)
	}
	rec.StartedAt = toInt64(raw["started_at"])
	rec.CompletedAt = toInt64(raw["completed_at"])
	rec.Collection, _ = raw["collection"].(string)
	rec.Error, _ = raw["error"].(string)
	return rec, true
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
