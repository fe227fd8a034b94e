package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/data/repos"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/pkg/dbctx"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

type EnrollmentService interface {
	List(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Enrollment, error)
	// Add enrolls userID, or flips is_teacher when already enrolled.
	Add(dbc dbctx.Context, courseID, userID uuid.UUID, isTeacher bool) (*types.Enrollment, error)
	Remove(dbc dbctx.Context, courseID, userID uuid.UUID) error
}

type enrollmentService struct {
	log         *logger.Logger
	enrollments repos.EnrollmentRepo
	users       repos.UserRepo
}

func NewEnrollmentService(baseLog *logger.Logger, enrollments repos.EnrollmentRepo, users repos.UserRepo) EnrollmentService {
	return &enrollmentService{
		log:         baseLog.With("service", "EnrollmentService"),
		enrollments: enrollments,
		users:       users,
	}
}

func (s *enrollmentService) List(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Enrollment, error) {
	return s.enrollments.ListByCourse(dbc.Ctx, dbc.Tx, courseID)
}

func (s *enrollmentService) Add(dbc dbctx.Context, courseID, userID uuid.UUID, isTeacher bool) (*types.Enrollment, error) {
	u, err := s.users.GetByID(dbc.Ctx, dbc.Tx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, invalid("unknown user_id %s", userID)
	}
	e, err := s.enrollments.Upsert(dbc.Ctx, dbc.Tx, &types.Enrollment{
		CourseID:  courseID,
		UserID:    userID,
		IsTeacher: isTeacher,
	})
	if err != nil {
		return nil, fmt.Errorf("enroll user: %w", err)
	}
	s.log.Info("enrollment saved", "course_id", courseID, "user_id", userID, "is_teacher", isTeacher)
	return e, nil
}

func (s *enrollmentService) Remove(dbc dbctx.Context, courseID, userID uuid.UUID) error {
	removed, err := s.enrollments.Delete(dbc.Ctx, dbc.Tx, courseID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return notFound("enrollment")
	}
	return nil
}
