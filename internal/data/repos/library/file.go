package library

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/dberr"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

type FileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, files []*types.File) ([]*types.File, error)
	GetByID(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) (*types.File, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) ([]*types.File, error)
	UpdateContent(ctx context.Context, tx *gorm.DB, fileID uuid.UUID, hash string, data datatypes.JSON) error
}

type fileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFileRepo(db *gorm.DB, baseLog *logger.Logger) FileRepo {
	repoLog := baseLog.With("repo", "FileRepo")
	return &fileRepo{db: db, log: repoLog}
}

func (r *fileRepo) Create(ctx context.Context, tx *gorm.DB, files []*types.File) ([]*types.File, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(files) == 0 {
		return []*types.File{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&files).Error; err != nil {
		return nil, dberr.Translate(err)
	}
	return files, nil
}

// GetByID returns nil, nil when the file does not exist.
func (r *fileRepo) GetByID(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) (*types.File, error) {
	rows, err := r.GetByIDs(ctx, tx, []uuid.UUID{fileID})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *fileRepo) GetByIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) ([]*types.File, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.File
	if len(fileIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", fileIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *fileRepo) UpdateContent(ctx context.Context, tx *gorm.DB, fileID uuid.UUID, hash string, data datatypes.JSON) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.File{}).
		Where("id = ?", fileID).
		Updates(map[string]interface{}{
			"hash": hash,
			"data": data,
		}).Error
}
