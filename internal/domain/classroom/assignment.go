package classroom

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Assignment struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	Title       string         `gorm:"column:title;type:text;not null" json:"title"`
	BodyMD      *string        `gorm:"column:body_md;type:text" json:"body_md"`
	DueAt       *int64         `gorm:"column:due_at" json:"due_at"`
	Attachments datatypes.JSON `gorm:"column:attachments_json;type:jsonb" json:"attachments_json"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (Assignment) TableName() string { return "assignment" }

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionReturned  SubmissionStatus = "returned"
)

func (s SubmissionStatus) Valid() bool {
	return s == SubmissionSubmitted || s == SubmissionReturned
}

type Submission struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID        `gorm:"type:uuid;not null;index" json:"assignment_id"`
	UserID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Text         *string          `gorm:"column:text;type:text" json:"text"`
	Files        datatypes.JSON   `gorm:"column:files_json;type:jsonb" json:"files_json"`
	Status       SubmissionStatus `gorm:"column:status;type:varchar(16);not null;default:'submitted'" json:"status"`
	Grade        datatypes.JSON   `gorm:"column:grade_json;type:jsonb" json:"grade_json"`
	SubmittedAt  time.Time        `gorm:"not null;autoCreateTime" json:"submitted_at"`
}

func (Submission) TableName() string { return "submission" }

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SubmissionSubmitted
	}
	return nil
}
