package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/types"
)

type WorkshopRepo interface {
	Create(ctx context.Context, tx *gorm.DB, workshop *types.Workshop) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Workshop, error)
	GetByTitle(ctx context.Context, tx *gorm.DB, title string) (*types.Workshop, error)
	List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.Workshop, error)
	Save(ctx context.Context, tx *gorm.DB, workshop *types.Workshop) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type workshopRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkshopRepo(db *gorm.DB, baseLog *logger.Logger) WorkshopRepo {
	return &workshopRepo{db: db, log: baseLog.With("repo", "WorkshopRepo")}
}

func (wr *workshopRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return wr.db
}

func (wr *workshopRepo) Create(ctx context.Context, tx *gorm.DB, workshop *types.Workshop) error {
	if workshop.ID == uuid.Nil {
		workshop.ID = uuid.New()
	}
	return wr.conn(tx).WithContext(ctx).Create(workshop).Error
}

func (wr *workshopRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Workshop, error) {
	var workshop types.Workshop
	err := wr.conn(tx).WithContext(ctx).Where("id = ?", id).First(&workshop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &workshop, nil
}

// GetByTitle matches certificates to their workshop. Certificates carry the
// workshop title by value rather than a foreign key, so a workshop rename
// silently orphans its certificates. Kept for parity with the stored data.
func (wr *workshopRepo) GetByTitle(ctx context.Context, tx *gorm.DB, title string) (*types.Workshop, error) {
	var workshop types.Workshop
	err := wr.conn(tx).WithContext(ctx).Where("title = ?", title).First(&workshop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &workshop, nil
}

func (wr *workshopRepo) List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.Workshop, error) {
	var results []*types.Workshop
	if err := wr.conn(tx).WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (wr *workshopRepo) Save(ctx context.Context, tx *gorm.DB, workshop *types.Workshop) error {
	return wr.conn(tx).WithContext(ctx).Save(workshop).Error
}

func (wr *workshopRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := wr.conn(tx).WithContext(ctx).Where("id = ?", id).Delete(&types.Workshop{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
