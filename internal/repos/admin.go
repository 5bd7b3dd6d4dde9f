package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/types"
)

type AdminRepo interface {
	Create(ctx context.Context, tx *gorm.DB, admin *types.Admin) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Admin, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Admin, error)
}

type adminRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdminRepo(db *gorm.DB, baseLog *logger.Logger) AdminRepo {
	return &adminRepo{db: db, log: baseLog.With("repo", "AdminRepo")}
}

func (ar *adminRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ar.db
}

func (ar *adminRepo) Create(ctx context.Context, tx *gorm.DB, admin *types.Admin) error {
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	return ar.conn(tx).WithContext(ctx).Create(admin).Error
}

func (ar *adminRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Admin, error) {
	var admin types.Admin
	err := ar.conn(tx).WithContext(ctx).Where("id = ?", id).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (ar *adminRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Admin, error) {
	var admin types.Admin
	err := ar.conn(tx).WithContext(ctx).Where("email = ?", email).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}
