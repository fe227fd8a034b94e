package classroom

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CourseStatus string

const (
	CourseStatusDraft    CourseStatus = "draft"
	CourseStatusActive   CourseStatus = "active"
	CourseStatusArchived CourseStatus = "archived"
)

func (s CourseStatus) Valid() bool {
	switch s {
	case CourseStatusDraft, CourseStatusActive, CourseStatusArchived:
		return true
	default:
		return false
	}
}

// rank orders statuses along the forward lifecycle.
func (s CourseStatus) rank() int {
	switch s {
	case CourseStatusDraft:
		return 0
	case CourseStatusActive:
		return 1
	case CourseStatusArchived:
		return 2
	default:
		return -1
	}
}

// IsBackward reports whether moving from s to next walks the lifecycle backwards.
func (s CourseStatus) IsBackward(next CourseStatus) bool {
	return next.rank() < s.rank()
}

// Course meta keys with meaning outside the free-form bag.
const (
	MetaVisibility  = "visibility"
	MetaKnowledgeID = "knowledge_id"
	MetaBaseModelID = "base_model_id"
	MetaFileIDs     = "file_ids"

	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

type Course struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string         `gorm:"column:title;type:text;not null" json:"title"`
	Description string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Status      CourseStatus   `gorm:"column:status;type:varchar(16);not null;default:'draft';index" json:"status"`
	CreatedBy   uuid.UUID      `gorm:"column:created_by;type:uuid;not null;index" json:"created_by"`
	Meta        datatypes.JSON `gorm:"column:meta;type:jsonb" json:"meta,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CourseStatusDraft
	}
	return nil
}

// MetaMap decodes the meta bag; a malformed or empty bag yields an empty map.
func (c *Course) MetaMap() map[string]any {
	return DecodeBag(c.Meta)
}

// Visible reports whether the course is listed for someone without a relationship to it.
func (c *Course) Visible() bool {
	vis, ok := c.MetaMap()[MetaVisibility].(string)
	return ok && vis != VisibilityPrivate
}

func (c *Course) KnowledgeID() string {
	s, _ := c.MetaMap()[MetaKnowledgeID].(string)
	return s
}

// DecodeBag parses a JSON object column into a map, tolerating null and garbage.
func DecodeBag(raw datatypes.JSON) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

// EncodeBag is the inverse of DecodeBag; nil maps encode as {}.
func EncodeBag(m map[string]any) datatypes.JSON {
	if m == nil {
		return datatypes.JSON([]byte("{}"))
	}
	b, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(b)
}

// MergeBag shallow-merges patch over base; top-level keys in patch replace base's.
func MergeBag(base datatypes.JSON, patch map[string]any) datatypes.JSON {
	m := DecodeBag(base)
	for k, v := range patch {
		m[k] = v
	}
	return EncodeBag(m)
}
