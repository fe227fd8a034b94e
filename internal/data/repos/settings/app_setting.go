package settings

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/classroom-backend/internal/data/dberr"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

type AppSettingRepo interface {
	Get(ctx context.Context, tx *gorm.DB, key string) (*types.AppSetting, error)
	Put(ctx context.Context, tx *gorm.DB, key string, value datatypes.JSON) error
}

type appSettingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAppSettingRepo(db *gorm.DB, baseLog *logger.Logger) AppSettingRepo {
	repoLog := baseLog.With("repo", "AppSettingRepo")
	return &appSettingRepo{db: db, log: repoLog}
}

// Get returns nil, nil for unknown keys.
func (r *appSettingRepo) Get(ctx context.Context, tx *gorm.DB, key string) (*types.AppSetting, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.AppSetting
	if err := transaction.WithContext(ctx).
		Where("key = ?", key).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *appSettingRepo) Put(ctx context.Context, tx *gorm.DB, key string, value datatypes.JSON) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	row := &types.AppSetting{Key: key, Value: value}
	return dberr.Translate(transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(row).Error)
}
