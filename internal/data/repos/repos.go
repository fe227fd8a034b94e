package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/repos/classroom"
	"github.com/yungbote/classroom-backend/internal/data/repos/library"
	"github.com/yungbote/classroom-backend/internal/data/repos/settings"
	"github.com/yungbote/classroom-backend/internal/data/repos/user"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type CourseRepo = classroom.CourseRepo
type EnrollmentRepo = classroom.EnrollmentRepo
type PresetRepo = classroom.PresetRepo
type MaterialRepo = classroom.MaterialRepo
type AssignmentRepo = classroom.AssignmentRepo
type SubmissionRepo = classroom.SubmissionRepo
type FeedbackRepo = classroom.FeedbackRepo

type FileRepo = library.FileRepo
type KnowledgeRepo = library.KnowledgeRepo
type ModelRepo = library.ModelRepo

type AppSettingRepo = settings.AppSettingRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return classroom.NewCourseRepo(db, baseLog)
}
func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return classroom.NewEnrollmentRepo(db, baseLog)
}
func NewPresetRepo(db *gorm.DB, baseLog *logger.Logger) PresetRepo {
	return classroom.NewPresetRepo(db, baseLog)
}
func NewMaterialRepo(db *gorm.DB, baseLog *logger.Logger) MaterialRepo {
	return classroom.NewMaterialRepo(db, baseLog)
}
func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	return classroom.NewAssignmentRepo(db, baseLog)
}
func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return classroom.NewSubmissionRepo(db, baseLog)
}
func NewFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackRepo {
	return classroom.NewFeedbackRepo(db, baseLog)
}

func NewFileRepo(db *gorm.DB, baseLog *logger.Logger) FileRepo {
	return library.NewFileRepo(db, baseLog)
}
func NewKnowledgeRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeRepo {
	return library.NewKnowledgeRepo(db, baseLog)
}
func NewModelRepo(db *gorm.DB, baseLog *logger.Logger) ModelRepo {
	return library.NewModelRepo(db, baseLog)
}

func NewAppSettingRepo(db *gorm.DB, baseLog *logger.Logger) AppSettingRepo {
	return settings.NewAppSettingRepo(db, baseLog)
}
