package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/repos"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/domain/classroom"
	"github.com/yungbote/classroom-backend/internal/pkg/dbctx"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

// AssignmentInput creates an assignment (Title required) or patches one (nil fields kept).
type AssignmentInput struct {
	Title       *string        `json:"title"`
	BodyMD      *string        `json:"body_md"`
	DueAt       *int64         `json:"due_at"`
	Attachments map[string]any `json:"attachments_json"`
}

// SubmissionInput carries a submission write. Status and Grade are honoured
// only for teachers.
type SubmissionInput struct {
	Text   *string        `json:"text"`
	Files  map[string]any `json:"files_json"`
	Status *string        `json:"status"`
	Grade  map[string]any `json:"grade_json"`
}

type AssignmentService interface {
	List(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Assignment, error)
	Create(dbc dbctx.Context, courseID uuid.UUID, in AssignmentInput) (*types.Assignment, error)
	Get(dbc dbctx.Context, p types.Principal, assignmentID uuid.UUID) (*types.Assignment, error)
	Update(dbc dbctx.Context, p types.Principal, assignmentID uuid.UUID, in AssignmentInput) (*types.Assignment, error)
	Delete(dbc dbctx.Context, p types.Principal, assignmentID uuid.UUID) error

	ListSubmissions(dbc dbctx.Context, p types.Principal, assignmentID uuid.UUID) ([]*types.Submission, error)
	Submit(dbc dbctx.Context, p types.Principal, assignmentID uuid.UUID, in SubmissionInput) (*types.Submission, error)
	GetSubmission(dbc dbctx.Context, p types.Principal, submissionID uuid.UUID) (*types.Submission, error)
	UpdateSubmission(dbc dbctx.Context, p types.Principal, submissionID uuid.UUID, in SubmissionInput) (*types.Submission, error)
	DeleteSubmission(dbc dbctx.Context, p types.Principal, submissionID uuid.UUID) error
}

type assignmentService struct {
	db          *gorm.DB
	log         *logger.Logger
	guard       Guard
	assignments repos.AssignmentRepo
	submissions repos.SubmissionRepo
}

func NewAssignmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	guard Guard,
	assignments repos.AssignmentRepo,
	submissions repos.SubmissionRepo,
) AssignmentService {
	return &assignmentService{
		db:          db,
		log:         baseLog.With("service", "AssignmentService"),
		guard:       guard,
		assignments: assignments,
		submissions: submissions,
	}
}

// =====================================
// Assignments
// =====================================

func (s *assignmentService) List(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Assignment, error) {
	return s.assignments.ListByCourse(dbc.Ctx, dbc.Tx, courseID)
}

func (s *assignmentService) Create(dbc dbctx.Context, courseID uuid.UUID, in AssignmentInput) (*types.Assignment, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, invalid("title is required")
	}
	a := &types.Assignment{
		CourseID:    courseID,
		Title:       strings.TrimSpace(*in.Title),
		BodyMD:      in.BodyMD,
		DueAt:       in.DueAt,
		Attachments: classroom.EncodeBag(in.Attachments),
	}
	if _, err := s.assignments.Create(dbc.Ctx, dbc.Tx, a); err != nil {
		return nil, fmt.Errorf("create assignment: %w", err)
	}
	return a, nil
}

func (s *assignmentService) Get(dbc dbctx.Context, p types.Principal, assignmentID uuid.UUID) (*types.Assignment, error) {
	a, err := s.loadAssignment(dbc, assignmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.CheckCapability(dbc, p, a.CourseID, CapEnrolled); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *assignmentService) Update(dbc dbctx.Context, p types.Principal, assignmentID uuid.UUID, in AssignmentInput) (*types.Assignment, error) {
	a, err := s.loadAssignment(dbc, assignmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.CheckCapability(dbc, p, a.CourseID, CapTeach); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, invalid("title must not be empty")
		}
		updates["title"] = title
	}
	if in.BodyMD != nil {
		updates["body_md"] = *in.BodyMD
	}
	if in.DueAt != nil {
		updates["due_at"] = *in.DueAt
	}
	if in.Attachments != nil {
		updates["attachments_json"] = classroom.EncodeBag(in.Attachments)
	}
	if len(updates) > 0 {
		if err := s.assignments.UpdateFields(dbc.Ctx, dbc.Tx, assignmentID, updates); err != nil {
			return nil, fmt.Errorf("update assignment: %w", err)
		}
	}
	return s.loadAssignment(dbc, assignmentID)
}

// Delete removes the assignment together with its submissions.
func (s *assignmentService) Delete(dbc dbctx.Context, p types.Principal, assignmentID uuid.UUID) error {
	a, err := s.loadAssignment(dbc, assignmentID)
	if err != nil {
		return err
	}
	if _, err := s.guard.CheckCapability(dbc, p, a.CourseID, CapTeach); err != nil {
		return err
	}
	return dbc.InTx(s.db, func(tx *gorm.DB) error {
		if err := s.submissions.DeleteByAssignmentIDs(dbc.Ctx, tx, []uuid.UUID{assignmentID}); err != nil {
			return err
		}
		return s.assignments.Delete(dbc.Ctx, tx, assignmentID)
	})
}

func (s *assignmentService) loadAssignment(dbc dbctx.Context, assignmentID uuid.UUID) (*types.Assignment, error) {
	a, err := s.assignments.GetByID(dbc.Ctx, dbc.Tx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, notFound("assignment")
	}
	return a, nil
}

// =====================================
// Submissions
// =====================================

// ListSubmissions: teachers and admins see every submission, others only their own.
func (s *assignmentService) ListSubmissions(dbc dbctx.Context, p types.Principal, assignmentID uuid.UUID) ([]*types.Submission, error) {
	a, err := s.loadAssignment(dbc, assignmentID)
	if err != nil {
		return nil, err
	}
	teacher, err := s.isTeacher(dbc, p, a.CourseID)
	if err != nil {
		return nil, err
	}
	if teacher {
		return s.submissions.ListByAssignment(dbc.Ctx, dbc.Tx, assignmentID, nil)
	}
	own := p.ID
	return s.submissions.ListByAssignment(dbc.Ctx, dbc.Tx, assignmentID, &own)
}

func (s *assignmentService) Submit(dbc dbctx.Context, p types.Principal, assignmentID uuid.UUID, in SubmissionInput) (*types.Submission, error) {
	a, err := s.loadAssignment(dbc, assignmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.CheckCapability(dbc, p, a.CourseID, CapEnrolled); err != nil {
		return nil, err
	}
	sub := &types.Submission{
		AssignmentID: assignmentID,
		UserID:       p.ID,
		Text:         in.Text,
		Files:        classroom.EncodeBag(in.Files),
		Status:       types.SubmissionSubmitted,
	}
	if _, err := s.submissions.Create(dbc.Ctx, dbc.Tx, sub); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	s.log.Info("submission created", "assignment_id", assignmentID, "submission_id", sub.ID, "user_id", p.ID)
	return sub, nil
}

func (s *assignmentService) GetSubmission(dbc dbctx.Context, p types.Principal, submissionID uuid.UUID) (*types.Submission, error) {
	sub, teacher, err := s.loadSubmission(dbc, p, submissionID)
	if err != nil {
		return nil, err
	}
	if !teacher && sub.UserID != p.ID {
		return nil, forbidden("not your submission")
	}
	return sub, nil
}

// UpdateSubmission: teachers may change every field; the owner may change
// text and files while the submission has not been returned.
func (s *assignmentService) UpdateSubmission(dbc dbctx.Context, p types.Principal, submissionID uuid.UUID, in SubmissionInput) (*types.Submission, error) {
	sub, teacher, err := s.loadSubmission(dbc, p, submissionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Text != nil {
		updates["text"] = *in.Text
	}
	if in.Files != nil {
		updates["files_json"] = classroom.EncodeBag(in.Files)
	}
	if teacher {
		if in.Status != nil {
			status := types.SubmissionStatus(strings.ToLower(strings.TrimSpace(*in.Status)))
			if !status.Valid() {
				return nil, invalid("invalid status %q: must be submitted or returned", *in.Status)
			}
			updates["status"] = status
		}
		if in.Grade != nil {
			updates["grade_json"] = classroom.EncodeBag(in.Grade)
		}
	} else {
		if sub.UserID != p.ID {
			return nil, forbidden("not your submission")
		}
		if sub.Status != types.SubmissionSubmitted {
			return nil, forbidden("submission has already been returned")
		}
	}

	if len(updates) > 0 {
		if err := s.submissions.UpdateFields(dbc.Ctx, dbc.Tx, submissionID, updates); err != nil {
			return nil, fmt.Errorf("update submission: %w", err)
		}
	}
	out, err := s.submissions.GetByID(dbc.Ctx, dbc.Tx, submissionID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, notFound("submission")
	}
	return out, nil
}

// DeleteSubmission: teachers delete any; the owner only while still submitted.
func (s *assignmentService) DeleteSubmission(dbc dbctx.Context, p types.Principal, submissionID uuid.UUID) error {
	sub, teacher, err := s.loadSubmission(dbc, p, submissionID)
	if err != nil {
		return err
	}
	if !teacher && (sub.UserID != p.ID || sub.Status != types.SubmissionSubmitted) {
		return forbidden("only the owner may delete a submission that has not been returned")
	}
	return s.submissions.Delete(dbc.Ctx, dbc.Tx, submissionID)
}

// loadSubmission fetches the submission and its assignment and reports
// whether p teaches the course.
func (s *assignmentService) loadSubmission(dbc dbctx.Context, p types.Principal, submissionID uuid.UUID) (*types.Submission, bool, error) {
	sub, err := s.submissions.GetByID(dbc.Ctx, dbc.Tx, submissionID)
	if err != nil {
		return nil, false, err
	}
	if sub == nil {
		return nil, false, notFound("submission")
	}
	a, err := s.loadAssignment(dbc, sub.AssignmentID)
	if err != nil {
		return nil, false, err
	}
	teacher, err := s.isTeacher(dbc, p, a.CourseID)
	if err != nil {
		return nil, false, err
	}
	return sub, teacher, nil
}

func (s *assignmentService) isTeacher(dbc dbctx.Context, p types.Principal, courseID uuid.UUID) (bool, error) {
	_, err := s.guard.CheckCapability(dbc, p, courseID, CapTeach)
	switch {
	case err == nil:
		return true, nil
	case IsAuthorization(err):
		return false, nil
	default:
		return false, err
	}
}
