package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	Guard        services.Guard
	FeatureFlags services.FeatureFlagService
	Vectors      *services.VectorIndex
	Presets      services.PresetManager
	Courses      services.CourseService
	Ingestion    *services.IngestionPipeline
	Materials    services.MaterialService
	Assignments  services.AssignmentService
	Enrollments  services.EnrollmentService
	Feedback     services.FeedbackService
	Chat         services.ChatService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) (Services, error) {
	log.Info("Wiring services...")

	vectors := services.NewVectorIndex(log, c.Vectors, c.Embedder)
	guard := services.NewGuard(log, r.Course, r.Enrollment)

	presets, err := services.NewPresetManager(db, log, r.Preset, r.Knowledge, c.Locker)
	if err != nil {
		return Services{}, fmt.Errorf("init preset manager: %w", err)
	}

	ingestion := services.NewIngestionPipeline(log, r.File, r.Material, c.Blobs, c.Extractor, vectors, cfg.IngestionTimeout)

	return Services{
		Auth:         services.NewAuthService(log, r.User, cfg.JWTSecretKey),
		Guard:        guard,
		FeatureFlags: services.NewFeatureFlagService(log, r.AppSettings, cfg.ClassroomOverride),
		Vectors:      vectors,
		Presets:      presets,
		Courses: services.NewCourseService(db, log, guard, services.CourseDeps{
			Courses:     r.Course,
			Enrollments: r.Enrollment,
			Presets:     r.Preset,
			Materials:   r.Material,
			Assignments: r.Assignment,
			Submissions: r.Submission,
			Feedback:    r.Feedback,
			Files:       r.File,
			Knowledge:   r.Knowledge,
			Models:      r.Model,
		}, vectors),
		Ingestion:   ingestion,
		Materials:   services.NewMaterialService(db, log, r.Material, ingestion, vectors),
		Assignments: services.NewAssignmentService(db, log, guard, r.Assignment, r.Submission),
		Enrollments: services.NewEnrollmentService(log, r.Enrollment, r.User),
		Feedback:    services.NewFeedbackService(log, r.Feedback, r.User),
		Chat:        services.NewChatService(log, r.Course, r.Preset),
	}, nil
}
