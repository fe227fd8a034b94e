package classroom

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Preset configures a course's assistant. Optional columns are pointers so an
// unset value survives a merge untouched.
type Preset struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Name      *string   `gorm:"column:name" json:"name"`
	IsDefault bool      `gorm:"column:is_default;not null;default:false;index" json:"is_default"`

	Provider       *string        `gorm:"column:provider" json:"provider"`
	ModelID        *string        `gorm:"column:model_id" json:"model_id"`
	Temperature    *float64       `gorm:"column:temperature" json:"temperature"`
	MaxTokens      *int           `gorm:"column:max_tokens" json:"max_tokens"`
	SystemPromptMD *string        `gorm:"column:system_prompt_md;type:text" json:"system_prompt_md"`
	Tools          datatypes.JSON `gorm:"column:tools_json;type:jsonb" json:"tools_json"`
	KnowledgeID    *string        `gorm:"column:knowledge_id;index" json:"knowledge_id"`
	Retrieval      datatypes.JSON `gorm:"column:retrieval_json;type:jsonb" json:"retrieval_json"`
	Safety         datatypes.JSON `gorm:"column:safety_json;type:jsonb" json:"safety_json"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Preset) TableName() string { return "course_preset" }

func (p *Preset) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Preset) ModelIDValue() string     { return deref(p.ModelID) }
func (p *Preset) KnowledgeIDValue() string { return deref(p.KnowledgeID) }

// Activatable reports whether the preset names both a model and a knowledge base.
func (p *Preset) Activatable() bool {
	return p != nil && p.ModelIDValue() != "" && p.KnowledgeIDValue() != ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
