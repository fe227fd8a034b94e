package library

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/classroom-backend/internal/data/dberr"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

type ModelRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, m *types.Model) error
	GetByID(ctx context.Context, tx *gorm.DB, modelID string) (*types.Model, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Model, error)
}

type modelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModelRepo(db *gorm.DB, baseLog *logger.Logger) ModelRepo {
	return &modelRepo{db: db, log: baseLog.With("repo", "ModelRepo")}
}

func (r *modelRepo) Upsert(ctx context.Context, tx *gorm.DB, m *types.Model) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return dberr.Translate(transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "base_model_id", "provider"}),
		}).
		Create(m).Error)
}

// GetByID returns nil, nil for unknown or blank ids.
func (r *modelRepo) GetByID(ctx context.Context, tx *gorm.DB, modelID string) (*types.Model, error) {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, nil
	}
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Model
	if err := transaction.WithContext(ctx).
		Where("id = ?", modelID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *modelRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Model, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Model
	if err := transaction.WithContext(ctx).Order("id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
