package classroom

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/dberr"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

type PresetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, preset *types.Preset) (*types.Preset, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Preset, error)
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Preset, error)
	Save(ctx context.Context, tx *gorm.DB, preset *types.Preset) error
	ClearDefaultExcept(ctx context.Context, tx *gorm.DB, courseID, keepID uuid.UUID) error
	DeleteByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error
}

type presetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPresetRepo(db *gorm.DB, baseLog *logger.Logger) PresetRepo {
	repoLog := baseLog.With("repo", "PresetRepo")
	return &presetRepo{db: db, log: repoLog}
}

func (r *presetRepo) Create(ctx context.Context, tx *gorm.DB, preset *types.Preset) (*types.Preset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(preset).Error; err != nil {
		return nil, dberr.Translate(err)
	}
	return preset, nil
}

// GetByCourse returns the course's primary preset: the default one if any,
// else the oldest. nil, nil when the course has none.
func (r *presetRepo) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Preset, error) {
	rows, err := r.ListByCourse(ctx, tx, courseID)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	for _, p := range rows {
		if p.IsDefault {
			return p, nil
		}
	}
	return rows[0], nil
}

// ListByCourse returns presets oldest first.
func (r *presetRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Preset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Preset
	if err := transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Save writes every column of preset, including nil pointers.
func (r *presetRepo) Save(ctx context.Context, tx *gorm.DB, preset *types.Preset) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return dberr.Translate(transaction.WithContext(ctx).Save(preset).Error)
}

func (r *presetRepo) ClearDefaultExcept(ctx context.Context, tx *gorm.DB, courseID, keepID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Preset{}).
		Where("course_id = ? AND id <> ? AND is_default = ?", courseID, keepID, true).
		Update("is_default", false).Error
}

func (r *presetRepo) DeleteByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Delete(&types.Preset{}).Error
}
