package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/repos"
	"github.com/acmclub/certhub/internal/types"
)

// TemplateInput is the layout payload saved from the template editor. Missing
// placeholder fields fall back to the model defaults.
type TemplateInput struct {
	ImageURL        string                 `json:"image_url" binding:"required"`
	NamePlaceholder *types.PlaceholderSpec `json:"name_placeholder"`
	CodePlaceholder *types.PlaceholderSpec `json:"code_placeholder"`
}

type TemplateService interface {
	// Save upserts the template keyed on (workshop, image URL): editing the
	// layout of an existing background updates it in place, a new background
	// creates a new template row.
	Save(ctx context.Context, workshopID uuid.UUID, input TemplateInput) (*types.CertificateTemplate, error)
	ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]*types.CertificateTemplate, error)
	Delete(ctx context.Context, workshopID, templateID uuid.UUID) error
}

type templateService struct {
	db           *gorm.DB
	log          *logger.Logger
	workshopRepo repos.WorkshopRepo
	templateRepo repos.TemplateRepo
}

func NewTemplateService(db *gorm.DB, log *logger.Logger, workshopRepo repos.WorkshopRepo, templateRepo repos.TemplateRepo) TemplateService {
	return &templateService{
		db:           db,
		log:          log.With("service", "TemplateService"),
		workshopRepo: workshopRepo,
		templateRepo: templateRepo,
	}
}

func (ts *templateService) Save(ctx context.Context, workshopID uuid.UUID, input TemplateInput) (*types.CertificateTemplate, error) {
	workshop, err := ts.workshopRepo.GetByID(ctx, nil, workshopID)
	if err != nil {
		return nil, fmt.Errorf("load workshop: %w", err)
	}
	if workshop == nil {
		return nil, ErrWorkshopNotFound
	}

	tpl, err := ts.templateRepo.GetByWorkshopAndImageURL(ctx, nil, workshopID, input.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}

	if tpl == nil {
		tpl = &types.CertificateTemplate{
			WorkshopID: workshopID,
			ImageURL:   input.ImageURL,
		}
		// Seed defaults before applying the payload so partial layouts keep
		// sensible values for the untouched placeholder.
		tpl.ApplyPlaceholders(defaultNamePlaceholder(), defaultCodePlaceholder())
	}

	name := tpl.NamePlaceholder()
	if input.NamePlaceholder != nil {
		name = *input.NamePlaceholder
	}
	code := tpl.CodePlaceholder()
	if input.CodePlaceholder != nil {
		code = *input.CodePlaceholder
	}
	tpl.ApplyPlaceholders(name, code)

	if tpl.ID == uuid.Nil {
		if err := ts.templateRepo.Create(ctx, nil, tpl); err != nil {
			return nil, fmt.Errorf("create template: %w", err)
		}
	} else {
		if err := ts.templateRepo.Save(ctx, nil, tpl); err != nil {
			return nil, fmt.Errorf("update template: %w", err)
		}
	}
	return tpl, nil
}

func (ts *templateService) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]*types.CertificateTemplate, error) {
	workshop, err := ts.workshopRepo.GetByID(ctx, nil, workshopID)
	if err != nil {
		return nil, err
	}
	if workshop == nil {
		return nil, ErrWorkshopNotFound
	}
	return ts.templateRepo.ListByWorkshop(ctx, nil, workshopID)
}

func (ts *templateService) Delete(ctx context.Context, workshopID, templateID uuid.UUID) error {
	deleted, err := ts.templateRepo.Delete(ctx, nil, workshopID, templateID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTemplateNotFound
	}
	return nil
}

func defaultNamePlaceholder() types.PlaceholderSpec {
	return types.PlaceholderSpec{X: 50, Y: 45, FontSize: 24, FontFamily: "Arial", Alignment: "center", Color: "#1a1a2e"}
}

func defaultCodePlaceholder() types.PlaceholderSpec {
	return types.PlaceholderSpec{X: 50, Y: 70, FontSize: 16, FontFamily: "Courier New", Alignment: "center", Color: "#333333"}
}
