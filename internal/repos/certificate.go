package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/types"
)

type CertificateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, cert *types.Certificate) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Certificate, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Certificate, error)
	ListByEmail(ctx context.Context, tx *gorm.DB, email string) ([]*types.Certificate, error)
	ListByWorkshopName(ctx context.Context, tx *gorm.DB, workshopName string) ([]*types.Certificate, error)
	ListEligibleForEmail(ctx context.Context, tx *gorm.DB, workshopName string, includeSent bool, limit int) ([]*types.Certificate, error)
	List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.Certificate, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	CodeExists(ctx context.Context, tx *gorm.DB, code string) (bool, error)
	Save(ctx context.Context, tx *gorm.DB, cert *types.Certificate) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type certificateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return &certificateRepo{db: db, log: baseLog.With("repo", "CertificateRepo")}
}

func (cr *certificateRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return cr.db
}

func (cr *certificateRepo) Create(ctx context.Context, tx *gorm.DB, cert *types.Certificate) error {
	if cert.ID == uuid.Nil {
		cert.ID = uuid.New()
	}
	return cr.conn(tx).WithContext(ctx).Create(cert).Error
}

func (cr *certificateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Certificate, error) {
	var cert types.Certificate
	err := cr.conn(tx).WithContext(ctx).Where("id = ?", id).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (cr *certificateRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Certificate, error) {
	var cert types.Certificate
	err := cr.conn(tx).WithContext(ctx).Where("code = ?", code).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (cr *certificateRepo) ListByEmail(ctx context.Context, tx *gorm.DB, email string) ([]*types.Certificate, error) {
	var results []*types.Certificate
	if err := cr.conn(tx).WithContext(ctx).
		Where("email = ?", email).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *certificateRepo) ListByWorkshopName(ctx context.Context, tx *gorm.DB, workshopName string) ([]*types.Certificate, error) {
	var results []*types.Certificate
	if err := cr.conn(tx).WithContext(ctx).
		Where("workshop_name = ?", workshopName).
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListEligibleForEmail returns GENERATED certificates for a workshop, capped
// at limit. Unless includeSent is set, rows already marked SENT are excluded.
func (cr *certificateRepo) ListEligibleForEmail(ctx context.Context, tx *gorm.DB, workshopName string, includeSent bool, limit int) ([]*types.Certificate, error) {
	q := cr.conn(tx).WithContext(ctx).
		Where("workshop_name = ?", workshopName).
		Where("status = ?", types.GenerationGenerated)
	if !includeSent {
		q = q.Where("email_status <> ?", types.EmailSent)
	}
	var results []*types.Certificate
	if err := q.Order("created_at").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *certificateRepo) List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.Certificate, error) {
	var results []*types.Certificate
	if err := cr.conn(tx).WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *certificateRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := cr.conn(tx).WithContext(ctx).
		Model(&types.Certificate{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (cr *certificateRepo) CodeExists(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	var count int64
	if err := cr.conn(tx).WithContext(ctx).
		Model(&types.Certificate{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (cr *certificateRepo) Save(ctx context.Context, tx *gorm.DB, cert *types.Certificate) error {
	return cr.conn(tx).WithContext(ctx).Save(cert).Error
}

func (cr *certificateRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := cr.conn(tx).WithContext(ctx).Where("id = ?", id).Delete(&types.Certificate{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
