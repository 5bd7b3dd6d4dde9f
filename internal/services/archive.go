package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/repos"
	"github.com/acmclub/certhub/internal/storage"
	"github.com/acmclub/certhub/internal/types"
)

type ArchiveService interface {
	// WorkshopArchive bundles every generated certificate PNG of the
	// workshop into a zip, one entry per certificate named
	// "<recipient> - <code>.png". Returns (nil, nil) when there is nothing
	// to package — callers must not serve an empty archive.
	WorkshopArchive(ctx context.Context, workshopID uuid.UUID) (*bytes.Buffer, error)
}

type archiveService struct {
	db           *gorm.DB
	log          *logger.Logger
	certRepo     repos.CertificateRepo
	workshopRepo repos.WorkshopRepo
	media        *storage.MediaStore
}

func NewArchiveService(
	db *gorm.DB,
	log *logger.Logger,
	certRepo repos.CertificateRepo,
	workshopRepo repos.WorkshopRepo,
	media *storage.MediaStore,
) ArchiveService {
	return &archiveService{
		db:           db,
		log:          log.With("service", "ArchiveService"),
		certRepo:     certRepo,
		workshopRepo: workshopRepo,
		media:        media,
	}
}

func (as *archiveService) WorkshopArchive(ctx context.Context, workshopID uuid.UUID) (*bytes.Buffer, error) {
	workshop, err := as.workshopRepo.GetByID(ctx, nil, workshopID)
	if err != nil {
		return nil, fmt.Errorf("load workshop: %w", err)
	}
	if workshop == nil {
		return nil, ErrWorkshopNotFound
	}

	certs, err := as.certRepo.ListByWorkshopName(ctx, nil, workshop.Title)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}

	var generated []*types.Certificate
	for _, cert := range certs {
		if cert.Status == types.GenerationGenerated && cert.FilePath != "" {
			generated = append(generated, cert)
		}
	}
	if len(generated) == 0 {
		return nil, nil
	}

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	added := 0
	for _, cert := range generated {
		data, err := as.media.Read(cert.FilePath)
		if err != nil {
			as.log.Warn("Certificate file missing, skipping zip entry", "code", cert.Code, "path", cert.FilePath)
			continue
		}
		entry, err := zw.Create(fmt.Sprintf("%s - %s.png", cert.RecipientName, cert.Code))
		if err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("create zip entry: %w", err)
		}
		if _, err := entry.Write(data); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("write zip entry: %w", err)
		}
		added++
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	if added == 0 {
		return nil, nil
	}
	return buf, nil
}
