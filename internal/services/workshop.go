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

type WorkshopInput struct {
	Title       string `json:"title" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Description string `json:"description"`
	Level       string `json:"level"`
	Instructor  string `json:"instructor" binding:"required"`
	Image       string `json:"image"`
}

type WorkshopUpdate struct {
	Title       *string `json:"title"`
	Date        *string `json:"date"`
	Description *string `json:"description"`
	Level       *string `json:"level"`
	Instructor  *string `json:"instructor"`
	Image       *string `json:"image"`
}

type WorkshopService interface {
	Create(ctx context.Context, input WorkshopInput) (*types.Workshop, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Workshop, error)
	List(ctx context.Context, offset, limit int) ([]*types.Workshop, error)
	Update(ctx context.Context, id uuid.UUID, update WorkshopUpdate) (*types.Workshop, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type workshopService struct {
	db           *gorm.DB
	log          *logger.Logger
	workshopRepo repos.WorkshopRepo
}

func NewWorkshopService(db *gorm.DB, log *logger.Logger, workshopRepo repos.WorkshopRepo) WorkshopService {
	return &workshopService{
		db:           db,
		log:          log.With("service", "WorkshopService"),
		workshopRepo: workshopRepo,
	}
}

func (ws *workshopService) Create(ctx context.Context, input WorkshopInput) (*types.Workshop, error) {
	level := input.Level
	if level == "" {
		level = "Beginner"
	}
	workshop := &types.Workshop{
		Title:       input.Title,
		Date:        input.Date,
		Description: input.Description,
		Level:       level,
		Instructor:  input.Instructor,
		Image:       input.Image,
	}
	if err := ws.workshopRepo.Create(ctx, nil, workshop); err != nil {
		return nil, fmt.Errorf("create workshop: %w", err)
	}
	return workshop, nil
}

func (ws *workshopService) GetByID(ctx context.Context, id uuid.UUID) (*types.Workshop, error) {
	workshop, err := ws.workshopRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if workshop == nil {
		return nil, ErrWorkshopNotFound
	}
	return workshop, nil
}

func (ws *workshopService) List(ctx context.Context, offset, limit int) ([]*types.Workshop, error) {
	return ws.workshopRepo.List(ctx, nil, offset, limit)
}

func (ws *workshopService) Update(ctx context.Context, id uuid.UUID, update WorkshopUpdate) (*types.Workshop, error) {
	workshop, err := ws.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		// Certificates reference workshops by title, so a rename detaches any
		// already issued certificates from this workshop.
		if *update.Title != workshop.Title {
			ws.log.Warn("Workshop title changed, existing certificates keep the old title",
				"workshop_id", workshop.ID, "old", workshop.Title, "new", *update.Title)
		}
		workshop.Title = *update.Title
	}
	if update.Date != nil {
		workshop.Date = *update.Date
	}
	if update.Description != nil {
		workshop.Description = *update.Description
	}
	if update.Level != nil {
		workshop.Level = *update.Level
	}
	if update.Instructor != nil {
		workshop.Instructor = *update.Instructor
	}
	if update.Image != nil {
		workshop.Image = *update.Image
	}

	if err := ws.workshopRepo.Save(ctx, nil, workshop); err != nil {
		return nil, fmt.Errorf("update workshop: %w", err)
	}
	return workshop, nil
}

func (ws *workshopService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := ws.workshopRepo.Delete(ctx, nil, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrWorkshopNotFound
	}
	return nil
}
