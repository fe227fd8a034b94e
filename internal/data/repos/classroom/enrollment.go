package classroom

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/classroom-backend/internal/data/dberr"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

type EnrollmentRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, e *types.Enrollment) (*types.Enrollment, error)
	Get(ctx context.Context, tx *gorm.DB, courseID, userID uuid.UUID) (*types.Enrollment, error)
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Enrollment, error)
	ListCourseIDsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
	Delete(ctx context.Context, tx *gorm.DB, courseID, userID uuid.UUID) (bool, error)
	DeleteByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	repoLog := baseLog.With("repo", "EnrollmentRepo")
	return &enrollmentRepo{db: db, log: repoLog}
}

// Upsert inserts the (course, user) pair or updates is_teacher on an existing one.
func (r *enrollmentRepo) Upsert(ctx context.Context, tx *gorm.DB, e *types.Enrollment) (*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_teacher"}),
		}).
		Create(e).Error; err != nil {
		return nil, dberr.Translate(err)
	}
	return r.Get(ctx, transaction, e.CourseID, e.UserID)
}

// Get returns nil, nil when the user is not enrolled.
func (r *enrollmentRepo) Get(ctx context.Context, tx *gorm.DB, courseID, userID uuid.UUID) (*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Enrollment
	if err := transaction.WithContext(ctx).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *enrollmentRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Enrollment
	if err := transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *enrollmentRepo) ListCourseIDsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Enrollment
	if err := transaction.WithContext(ctx).
		Select("course_id").
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.CourseID)
	}
	return out, nil
}

func (r *enrollmentRepo) Delete(ctx context.Context, tx *gorm.DB, courseID, userID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Delete(&types.Enrollment{})
	return res.RowsAffected > 0, res.Error
}

func (r *enrollmentRepo) DeleteByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Delete(&types.Enrollment{}).Error
}
