package classroom

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/dberr"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

type SubmissionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, submission *types.Submission) (*types.Submission, error)
	GetByID(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) (*types.Submission, error)
	// ListByAssignment filters to one submitter when userID is non-nil.
	ListByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID, userID *uuid.UUID) ([]*types.Submission, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error
	DeleteByAssignmentIDs(ctx context.Context, tx *gorm.DB, assignmentIDs []uuid.UUID) error
}

type submissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	repoLog := baseLog.With("repo", "SubmissionRepo")
	return &submissionRepo{db: db, log: repoLog}
}

func (r *submissionRepo) Create(ctx context.Context, tx *gorm.DB, submission *types.Submission) (*types.Submission, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(submission).Error; err != nil {
		return nil, dberr.Translate(err)
	}
	return submission, nil
}

// GetByID returns nil, nil when the submission does not exist.
func (r *submissionRepo) GetByID(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) (*types.Submission, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Submission
	if err := transaction.WithContext(ctx).
		Where("id = ?", submissionID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *submissionRepo) ListByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID, userID *uuid.UUID) ([]*types.Submission, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Where("assignment_id = ?", assignmentID)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var results []*types.Submission
	if err := q.Order("submitted_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *submissionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Submission{}).
		Where("id = ?", submissionID).
		Updates(updates).Error
}

func (r *submissionRepo) Delete(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", submissionID).
		Delete(&types.Submission{}).Error
}

func (r *submissionRepo) DeleteByAssignmentIDs(ctx context.Context, tx *gorm.DB, assignmentIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(assignmentIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("assignment_id IN ?", assignmentIDs).
		Delete(&types.Submission{}).Error
}
