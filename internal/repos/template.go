package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/types"
)

type TemplateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tpl *types.CertificateTemplate) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CertificateTemplate, error)
	ListByWorkshop(ctx context.Context, tx *gorm.DB, workshopID uuid.UUID) ([]*types.CertificateTemplate, error)
	GetNewestByWorkshop(ctx context.Context, tx *gorm.DB, workshopID uuid.UUID) (*types.CertificateTemplate, error)
	GetByWorkshopAndImageURL(ctx context.Context, tx *gorm.DB, workshopID uuid.UUID, imageURL string) (*types.CertificateTemplate, error)
	Save(ctx context.Context, tx *gorm.DB, tpl *types.CertificateTemplate) error
	Delete(ctx context.Context, tx *gorm.DB, workshopID, templateID uuid.UUID) (bool, error)
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	return &templateRepo{db: db, log: baseLog.With("repo", "TemplateRepo")}
}

func (tr *templateRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return tr.db
}

func (tr *templateRepo) Create(ctx context.Context, tx *gorm.DB, tpl *types.CertificateTemplate) error {
	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	return tr.conn(tx).WithContext(ctx).Create(tpl).Error
}

func (tr *templateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CertificateTemplate, error) {
	var tpl types.CertificateTemplate
	err := tr.conn(tx).WithContext(ctx).Where("id = ?", id).First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (tr *templateRepo) ListByWorkshop(ctx context.Context, tx *gorm.DB, workshopID uuid.UUID) ([]*types.CertificateTemplate, error) {
	var results []*types.CertificateTemplate
	if err := tr.conn(tx).WithContext(ctx).
		Where("workshop_id = ?", workshopID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetNewestByWorkshop picks the template generation uses. A workshop may
// accumulate several templates; the most recently created one wins.
func (tr *templateRepo) GetNewestByWorkshop(ctx context.Context, tx *gorm.DB, workshopID uuid.UUID) (*types.CertificateTemplate, error) {
	var tpl types.CertificateTemplate
	err := tr.conn(tx).WithContext(ctx).
		Where("workshop_id = ?", workshopID).
		Order("created_at DESC").
		First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (tr *templateRepo) GetByWorkshopAndImageURL(ctx context.Context, tx *gorm.DB, workshopID uuid.UUID, imageURL string) (*types.CertificateTemplate, error) {
	var tpl types.CertificateTemplate
	err := tr.conn(tx).WithContext(ctx).
		Where("workshop_id = ? AND image_url = ?", workshopID, imageURL).
		First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (tr *templateRepo) Save(ctx context.Context, tx *gorm.DB, tpl *types.CertificateTemplate) error {
	return tr.conn(tx).WithContext(ctx).Save(tpl).Error
}

func (tr *templateRepo) Delete(ctx context.Context, tx *gorm.DB, workshopID, templateID uuid.UUID) (bool, error) {
	res := tr.conn(tx).WithContext(ctx).
		Where("id = ? AND workshop_id = ?", templateID, workshopID).
		Delete(&types.CertificateTemplate{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
