package domain

import (
	"github.com/yungbote/classroom-backend/internal/domain/classroom"
	"github.com/yungbote/classroom-backend/internal/domain/library"
	"github.com/yungbote/classroom-backend/internal/domain/user"
)

type (
	User      = user.User
	Role      = user.Role
	Principal = user.Principal

	Course           = classroom.Course
	CourseStatus     = classroom.CourseStatus
	Enrollment       = classroom.Enrollment
	Preset           = classroom.Preset
	Material         = classroom.Material
	MaterialKind     = classroom.MaterialKind
	Ingestion        = classroom.Ingestion
	IngestionStatus  = classroom.IngestionStatus
	Assignment       = classroom.Assignment
	Submission       = classroom.Submission
	SubmissionStatus = classroom.SubmissionStatus
	Feedback         = classroom.Feedback

	File       = library.File
	Knowledge  = library.Knowledge
	Model      = library.Model
	AppSetting = library.AppSetting
	Segment    = library.Segment
)

const (
	CourseStatusDraft    = classroom.CourseStatusDraft
	CourseStatusActive   = classroom.CourseStatusActive
	CourseStatusArchived = classroom.CourseStatusArchived

	MaterialKindDoc   = classroom.MaterialKindDoc
	MaterialKindLink  = classroom.MaterialKindLink
	MaterialKindVideo = classroom.MaterialKindVideo

	IngestionQueued = classroom.IngestionQueued
	IngestionDone   = classroom.IngestionDone
	IngestionError  = classroom.IngestionError

	SubmissionSubmitted = classroom.SubmissionSubmitted
	SubmissionReturned  = classroom.SubmissionReturned
)

// Models lists every table the service owns, in creation order.
func Models() []any {
	return []any{
		&user.User{},
		&library.Model{},
		&library.File{},
		&library.Knowledge{},
		&library.AppSetting{},
		&classroom.Course{},
		&classroom.Enrollment{},
		&classroom.Preset{},
		&classroom.Material{},
		&classroom.Assignment{},
		&classroom.Submission{},
		&classroom.Feedback{},
	}
}
