package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"path"
	"time"

	_ "image/jpeg"

	"github.com/fogleman/gg"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/repos"
	"github.com/acmclub/certhub/internal/storage"
	"github.com/acmclub/certhub/internal/types"
)

var (
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrWorkshopNotFound    = errors.New("workshop not found")
	ErrTemplateNotFound    = errors.New("template not found")
)

type BulkGenerateResult struct {
	Total     int `json:"total"`
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

type GenerationService interface {
	// GenerateOne renders the PNG for a certificate and returns its relative
	// file path. Rendering is idempotent: an already generated certificate
	// whose file still exists is returned as-is without refetching anything.
	GenerateOne(ctx context.Context, certificateID uuid.UUID) (string, error)
	// GenerateForWorkshop renders every certificate carrying the workshop's
	// title. One record failing never aborts the batch.
	GenerateForWorkshop(ctx context.Context, workshopID uuid.UUID) (BulkGenerateResult, error)
}

type generationService struct {
	db           *gorm.DB
	log          *logger.Logger
	certRepo     repos.CertificateRepo
	workshopRepo repos.WorkshopRepo
	templateRepo repos.TemplateRepo
	media        *storage.MediaStore
	fonts        *FontResolver
	httpClient   *http.Client
}

// NewGenerationService wires the rendering pipeline. httpClient may be nil,
// in which case a client with a 30s timeout is used for template fetches.
func NewGenerationService(
	db *gorm.DB,
	log *logger.Logger,
	certRepo repos.CertificateRepo,
	workshopRepo repos.WorkshopRepo,
	templateRepo repos.TemplateRepo,
	media *storage.MediaStore,
	fonts *FontResolver,
	httpClient *http.Client,
) GenerationService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &generationService{
		db:           db,
		log:          log.With("service", "GenerationService"),
		certRepo:     certRepo,
		workshopRepo: workshopRepo,
		templateRepo: templateRepo,
		media:        media,
		fonts:        fonts,
		httpClient:   httpClient,
	}
}

func (gs *generationService) GenerateOne(ctx context.Context, certificateID uuid.UUID) (string, error) {
	cert, err := gs.certRepo.GetByID(ctx, nil, certificateID)
	if err != nil {
		return "", fmt.Errorf("load certificate: %w", err)
	}
	if cert == nil {
		return "", ErrCertificateNotFound
	}

	if cert.Status == types.GenerationGenerated && cert.FilePath != "" && gs.media.Exists(cert.FilePath) {
		return cert.FilePath, nil
	}

	workshop, err := gs.workshopRepo.GetByTitle(ctx, nil, cert.WorkshopName)
	if err != nil {
		return "", fmt.Errorf("load workshop: %w", err)
	}
	if workshop == nil {
		return "", fmt.Errorf("no workshop titled %q: %w", cert.WorkshopName, ErrWorkshopNotFound)
	}

	tpl, err := gs.templateRepo.GetNewestByWorkshop(ctx, nil, workshop.ID)
	if err != nil {
		return "", fmt.Errorf("load template: %w", err)
	}
	if tpl == nil {
		return "", fmt.Errorf("workshop %s has no template: %w", workshop.ID, ErrTemplateNotFound)
	}

	return gs.render(ctx, cert, tpl)
}

// render downloads the template image, draws both labels, writes the PNG and
// flips the record to GENERATED. The file write and the state update form one
// logical unit: a crash in between is recovered by re-rendering, which is
// deterministic and overwrites the same path.
func (gs *generationService) render(ctx context.Context, cert *types.Certificate, tpl *types.CertificateTemplate) (string, error) {
	img, err := gs.fetchTemplateImage(ctx, tpl.ImageURL)
	if err != nil {
		return "", err
	}

	dc := gg.NewContextForImage(img)
	w, h := dc.Width(), dc.Height()

	gs.drawLabel(dc, tpl.NamePlaceholder(), cert.RecipientName, w, h)
	gs.drawLabel(dc, tpl.CodePlaceholder(), cert.Code, w, h)

	var buf bytes.Buffer
	if err := png.Encode(&buf, flattenOpaque(dc.Image())); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}

	relPath := path.Join(storage.CertificatesDir, cert.Code+".png")
	if err := gs.media.Save(relPath, buf.Bytes()); err != nil {
		return "", fmt.Errorf("save certificate image: %w", err)
	}

	cert.FilePath = relPath
	cert.Status = types.GenerationGenerated
	if err := gs.certRepo.Save(ctx, nil, cert); err != nil {
		return "", fmt.Errorf("update certificate record: %w", err)
	}

	gs.log.Info("Generated certificate", "code", cert.Code, "path", relPath, "width", w, "height", h)
	return relPath, nil
}

func (gs *generationService) drawLabel(dc *gg.Context, spec types.PlaceholderSpec, text string, w, h int) {
	p := placePlaceholder(spec, w, h)
	dc.SetFontFace(gs.fonts.Resolve(spec.FontFamily, p.FontSize))
	dc.SetHexColor(spec.Color)
	dc.DrawStringAnchored(text, p.X, p.Y, p.AnchorX, 0.5)
}

func (gs *generationService) fetchTemplateImage(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build template request: %w", err)
	}
	resp, err := gs.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch template image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch template image: unexpected status %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read template image: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode template image: %w", err)
	}
	return img, nil
}

// flattenOpaque drops the alpha channel so the stored PNG is fully opaque.
func flattenOpaque(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			c.A = 0xff
			dst.SetNRGBA(x, y, c)
		}
	}
	return dst
}

func (gs *generationService) GenerateForWorkshop(ctx context.Context, workshopID uuid.UUID) (BulkGenerateResult, error) {
	workshop, err := gs.workshopRepo.GetByID(ctx, nil, workshopID)
	if err != nil {
		return BulkGenerateResult{}, fmt.Errorf("load workshop: %w", err)
	}
	if workshop == nil {
		gs.log.Error("Workshop not found for bulk generation", "workshop_id", workshopID)
		return BulkGenerateResult{}, nil
	}

	certs, err := gs.certRepo.ListByWorkshopName(ctx, nil, workshop.Title)
	if err != nil {
		return BulkGenerateResult{}, fmt.Errorf("list certificates: %w", err)
	}

	result := BulkGenerateResult{Total: len(certs)}
	for _, cert := range certs {
		if cert.Status == types.GenerationGenerated && cert.FilePath != "" && gs.media.Exists(cert.FilePath) {
			result.Skipped++
			continue
		}
		if _, err := gs.GenerateOne(ctx, cert.ID); err != nil {
			gs.log.Error("Certificate generation failed", "code", cert.Code, "error", err)
			result.Failed++
			continue
		}
		result.Generated++
	}

	gs.log.Info("Bulk generation finished",
		"workshop_id", workshopID,
		"total", result.Total,
		"generated", result.Generated,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}
