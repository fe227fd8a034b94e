package services

import (
	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/data/repos"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/domain/user"
	"github.com/yungbote/classroom-backend/internal/pkg/dbctx"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

// CourseCapability is a per-course permission.
type CourseCapability uint8

const (
	// CapEnrolled: any relationship with the course (creator, student, teacher).
	CapEnrolled CourseCapability = iota + 1
	// CapTeach: creator or teacher enrollment.
	CapTeach
	// CapAdmin: system administrator only.
	CapAdmin
)

func (c CourseCapability) String() string {
	switch c {
	case CapEnrolled:
		return "enrolled"
	case CapTeach:
		return "teach"
	case CapAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

const (
	reasonNotEnrolled = "not enrolled in this course"
	reasonNotTeacher  = "not a teacher of this course"
	reasonNotAdmin    = "administrator required"
)

// Guard answers capability checks. It has no side effects.
type Guard interface {
	CheckCapability(dbc dbctx.Context, p types.Principal, courseID uuid.UUID, c CourseCapability) (types.Principal, error)
	RequireRole(p types.Principal, c user.Capability) error
}

type guard struct {
	log         *logger.Logger
	courses     repos.CourseRepo
	enrollments repos.EnrollmentRepo
}

func NewGuard(log *logger.Logger, courses repos.CourseRepo, enrollments repos.EnrollmentRepo) Guard {
	return &guard{
		log:         log.With("service", "Guard"),
		courses:     courses,
		enrollments: enrollments,
	}
}

// CheckCapability returns the principal unchanged on success. A missing course
// yields the same AuthorizationError as a missing relationship.
func (g *guard) CheckCapability(dbc dbctx.Context, p types.Principal, courseID uuid.UUID, c CourseCapability) (types.Principal, error) {
	deny := func() (types.Principal, error) {
		switch c {
		case CapTeach:
			return p, forbidden(reasonNotTeacher)
		case CapAdmin:
			return p, forbidden(reasonNotAdmin)
		default:
			return p, forbidden(reasonNotEnrolled)
		}
	}
	if p.IsAdmin() {
		return p, nil
	}
	if c == CapAdmin || p.ID == uuid.Nil {
		return deny()
	}

	course, err := g.courses.GetByID(dbc.Ctx, dbc.Tx, courseID)
	if err != nil {
		return p, err
	}
	if course == nil {
		return deny()
	}
	if course.CreatedBy == p.ID {
		return p, nil
	}

	e, err := g.enrollments.Get(dbc.Ctx, dbc.Tx, courseID, p.ID)
	if err != nil {
		return p, err
	}
	if e == nil {
		return deny()
	}
	if c == CapTeach && !e.IsTeacher {
		return deny()
	}
	return p, nil
}

// RequireRole checks a course-independent role capability such as CapInstruct.
func (g *guard) RequireRole(p types.Principal, c user.Capability) error {
	if p.Role.Can(c) {
		return nil
	}
	return forbidden("role " + p.Role.String() + " lacks " + c.String())
}
