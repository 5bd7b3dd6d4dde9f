package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/repos"
	"github.com/acmclub/certhub/internal/storage"
	"github.com/acmclub/certhub/internal/types"
)

// CertificateInput is one certificate to issue. Code is optional; when empty
// an ACM-<year>-<random> code is generated.
type CertificateInput struct {
	Code          string   `json:"code"`
	RecipientName string   `json:"recipient_name" binding:"required"`
	Email         string   `json:"email" binding:"required,email"`
	WorkshopName  string   `json:"workshop_name" binding:"required"`
	IssueDate     string   `json:"issue_date" binding:"required"`
	Skills        []string `json:"skills"`
	Instructor    string   `json:"instructor" binding:"required"`
}

// CertificateUpdate carries the patchable fields; nil means unchanged.
type CertificateUpdate struct {
	RecipientName *string   `json:"recipient_name"`
	Email         *string   `json:"email"`
	WorkshopName  *string   `json:"workshop_name"`
	IssueDate     *string   `json:"issue_date"`
	Skills        *[]string `json:"skills"`
	Instructor    *string   `json:"instructor"`
	IsVerified    *bool     `json:"is_verified"`
}

// BulkCreateError reports one rejected row of a bulk creation.
type BulkCreateError struct {
	Row   int    `json:"row"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// VerifiedCertificate is the public view returned by verification lookups.
type VerifiedCertificate struct {
	ID             uuid.UUID `json:"id"`
	Code           string    `json:"code"`
	RecipientName  string    `json:"recipient_name"`
	WorkshopName   string    `json:"workshop_name"`
	IssueDate      string    `json:"issue_date"`
	Skills         []string  `json:"skills"`
	Instructor     string    `json:"instructor"`
	IsVerified     bool      `json:"is_verified"`
	CertificateURL string    `json:"certificate_url,omitempty"`
}

type CertificateService interface {
	Create(ctx context.Context, input CertificateInput) (*types.Certificate, error)
	BulkCreate(ctx context.Context, inputs []CertificateInput) ([]*types.Certificate, []BulkCreateError)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Certificate, error)
	List(ctx context.Context, offset, limit int) ([]*types.Certificate, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id uuid.UUID, update CertificateUpdate) (*types.Certificate, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Verify(ctx context.Context, code string) (*VerifiedCertificate, error)
	SearchByEmail(ctx context.Context, email string) ([]*VerifiedCertificate, error)
	// CertificateFile returns the PNG bytes for a generated certificate code.
	CertificateFile(ctx context.Context, code string) (*types.Certificate, []byte, error)
}

// ErrCertificateInvalid marks a certificate that exists but has been revoked.
var ErrCertificateInvalid = fmt.Errorf("certificate is not valid")

type certificateService struct {
	db       *gorm.DB
	log      *logger.Logger
	certRepo repos.CertificateRepo
	media    *storage.MediaStore
}

func NewCertificateService(db *gorm.DB, log *logger.Logger, certRepo repos.CertificateRepo, media *storage.MediaStore) CertificateService {
	return &certificateService{
		db:       db,
		log:      log.With("service", "CertificateService"),
		certRepo: certRepo,
		media:    media,
	}
}

func (cs *certificateService) Create(ctx context.Context, input CertificateInput) (*types.Certificate, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code != "" {
		exists, err := cs.certRepo.CodeExists(ctx, nil, code)
		if err != nil {
			return nil, fmt.Errorf("check certificate code: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("certificate code %q already exists", code)
		}
	} else {
		code = newCertificateCode()
	}

	cert := &types.Certificate{
		Code:             code,
		RecipientName:    input.RecipientName,
		Email:            strings.ToLower(strings.TrimSpace(input.Email)),
		WorkshopName:     input.WorkshopName,
		IssueDate:        input.IssueDate,
		Skills:           input.Skills,
		Instructor:       input.Instructor,
		IsVerified:       true,
		VerificationCode: uuid.NewString(),
		Status:           types.GenerationPending,
		EmailStatus:      types.EmailNotSent,
	}
	if err := cs.certRepo.Create(ctx, nil, cert); err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}
	return cert, nil
}

// BulkCreate keeps going past individual bad rows and reports them by index.
func (cs *certificateService) BulkCreate(ctx context.Context, inputs []CertificateInput) ([]*types.Certificate, []BulkCreateError) {
	var created []*types.Certificate
	var failures []BulkCreateError
	for i, input := range inputs {
		cert, err := cs.Create(ctx, input)
		if err != nil {
			failures = append(failures, BulkCreateError{
				Row:   i + 1,
				Name:  input.RecipientName,
				Error: err.Error(),
			})
			continue
		}
		created = append(created, cert)
	}
	return created, failures
}

func (cs *certificateService) GetByID(ctx context.Context, id uuid.UUID) (*types.Certificate, error) {
	cert, err := cs.certRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, ErrCertificateNotFound
	}
	return cert, nil
}

func (cs *certificateService) List(ctx context.Context, offset, limit int) ([]*types.Certificate, error) {
	return cs.certRepo.List(ctx, nil, offset, limit)
}

func (cs *certificateService) Count(ctx context.Context) (int64, error) {
	return cs.certRepo.Count(ctx, nil)
}

func (cs *certificateService) Update(ctx context.Context, id uuid.UUID, update CertificateUpdate) (*types.Certificate, error) {
	cert, err := cs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.RecipientName != nil {
		cert.RecipientName = *update.RecipientName
	}
	if update.Email != nil {
		cert.Email = strings.ToLower(strings.TrimSpace(*update.Email))
	}
	if update.WorkshopName != nil {
		cert.WorkshopName = *update.WorkshopName
	}
	if update.IssueDate != nil {
		cert.IssueDate = *update.IssueDate
	}
	if update.Skills != nil {
		cert.Skills = *update.Skills
	}
	if update.Instructor != nil {
		cert.Instructor = *update.Instructor
	}
	if update.IsVerified != nil {
		cert.IsVerified = *update.IsVerified
	}

	if err := cs.certRepo.Save(ctx, nil, cert); err != nil {
		return nil, fmt.Errorf("update certificate: %w", err)
	}
	return cert, nil
}

func (cs *certificateService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := cs.certRepo.Delete(ctx, nil, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrCertificateNotFound
	}
	return nil
}

func (cs *certificateService) Verify(ctx context.Context, code string) (*VerifiedCertificate, error) {
	cert, err := cs.certRepo.GetByCode(ctx, nil, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, ErrCertificateNotFound
	}
	if !cert.IsVerified {
		return nil, ErrCertificateInvalid
	}
	return cs.publicView(cert), nil
}

func (cs *certificateService) SearchByEmail(ctx context.Context, email string) ([]*VerifiedCertificate, error) {
	certs, err := cs.certRepo.ListByEmail(ctx, nil, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	results := make([]*VerifiedCertificate, 0, len(certs))
	for _, cert := range certs {
		results = append(results, cs.publicView(cert))
	}
	return results, nil
}

func (cs *certificateService) CertificateFile(ctx context.Context, code string) (*types.Certificate, []byte, error) {
	cert, err := cs.certRepo.GetByCode(ctx, nil, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, nil, err
	}
	if cert == nil || cert.FilePath == "" || !cs.media.Exists(cert.FilePath) {
		return nil, nil, ErrCertificateNotFound
	}
	data, err := cs.media.Read(cert.FilePath)
	if err != nil {
		return nil, nil, err
	}
	return cert, data, nil
}

func (cs *certificateService) publicView(cert *types.Certificate) *VerifiedCertificate {
	view := &VerifiedCertificate{
		ID:            cert.ID,
		Code:          cert.Code,
		RecipientName: cert.RecipientName,
		WorkshopName:  cert.WorkshopName,
		IssueDate:     cert.IssueDate,
		Skills:        cert.Skills,
		Instructor:    cert.Instructor,
		IsVerified:    cert.IsVerified,
	}
	if cert.FilePath != "" && cs.media.Exists(cert.FilePath) {
		view.CertificateURL = "/media/" + cert.FilePath
	}
	return view
}

func newCertificateCode() string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ACM-%d-%s", time.Now().Year(), random)
}
