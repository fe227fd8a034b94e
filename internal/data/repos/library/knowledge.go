package library

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/dberr"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

type KnowledgeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, k *types.Knowledge) (*types.Knowledge, error)
	GetByID(ctx context.Context, tx *gorm.DB, knowledgeID uuid.UUID) (*types.Knowledge, error)
	// Exists accepts the raw id stored on presets; malformed ids do not exist.
	Exists(ctx context.Context, tx *gorm.DB, knowledgeID string) (bool, error)
	Delete(ctx context.Context, tx *gorm.DB, knowledgeID uuid.UUID) error
}

type knowledgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKnowledgeRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeRepo {
	repoLog := baseLog.With("repo", "KnowledgeRepo")
	return &knowledgeRepo{db: db, log: repoLog}
}

func (r *knowledgeRepo) Create(ctx context.Context, tx *gorm.DB, k *types.Knowledge) (*types.Knowledge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(k).Error; err != nil {
		return nil, dberr.Translate(err)
	}
	return k, nil
}

func (r *knowledgeRepo) GetByID(ctx context.Context, tx *gorm.DB, knowledgeID uuid.UUID) (*types.Knowledge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Knowledge
	if err := transaction.WithContext(ctx).
		Where("id = ?", knowledgeID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *knowledgeRepo) Exists(ctx context.Context, tx *gorm.DB, knowledgeID string) (bool, error) {
	id, err := uuid.Parse(knowledgeID)
	if err != nil {
		return false, nil
	}
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Knowledge{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *knowledgeRepo) Delete(ctx context.Context, tx *gorm.DB, knowledgeID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", knowledgeID).
		Delete(&types.Knowledge{}).Error
}
