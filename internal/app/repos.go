package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/repos"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

type Repos struct {
	User        repos.UserRepo
	Course      repos.CourseRepo
	Enrollment  repos.EnrollmentRepo
	Preset      repos.PresetRepo
	Material    repos.MaterialRepo
	Assignment  repos.AssignmentRepo
	Submission  repos.SubmissionRepo
	Feedback    repos.FeedbackRepo
	File        repos.FileRepo
	Knowledge   repos.KnowledgeRepo
	Model       repos.ModelRepo
	AppSettings repos.AppSettingRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:        repos.NewUserRepo(db, log),
		Course:      repos.NewCourseRepo(db, log),
		Enrollment:  repos.NewEnrollmentRepo(db, log),
		Preset:      repos.NewPresetRepo(db, log),
		Material:    repos.NewMaterialRepo(db, log),
		Assignment:  repos.NewAssignmentRepo(db, log),
		Submission:  repos.NewSubmissionRepo(db, log),
		Feedback:    repos.NewFeedbackRepo(db, log),
		File:        repos.NewFileRepo(db, log),
		Knowledge:   repos.NewKnowledgeRepo(db, log),
		Model:       repos.NewModelRepo(db, log),
		AppSettings: repos.NewAppSettingRepo(db, log),
	}
}
