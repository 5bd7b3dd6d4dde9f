package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/acmclub/certhub/internal/config"
	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/mail"
	"github.com/acmclub/certhub/internal/repos"
	"github.com/acmclub/certhub/internal/storage"
	"github.com/acmclub/certhub/internal/types"
)

const (
	// Hard cap per bulk run; bounds worst-case run time.
	maxEmailBatchSize = 1000
	// Pause between consecutive sends to respect transport rate limits.
	emailSendDelay = 300 * time.Millisecond
	// Stored delivery errors are truncated to this many characters.
	maxEmailErrorLen = 2000
)

type BulkEmailResult struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type EmailStatusSummary struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

type EmailService interface {
	// SendOne delivers the certificate email for one record. It never
	// returns an error: every failure is classified and stored on the
	// record's delivery state. True means confirmed transport success or an
	// idempotent skip of an already sent certificate.
	SendOne(ctx context.Context, certificateID uuid.UUID, force bool) bool
	// SendForWorkshop sends sequentially for every eligible certificate in
	// the workshop; sent+skipped+failed always equals total.
	SendForWorkshop(ctx context.Context, workshopID uuid.UUID, force bool) BulkEmailResult
	// CountEligible reports how many GENERATED certificates the workshop has.
	CountEligible(ctx context.Context, workshopID uuid.UUID) (int, error)
	// Status summarizes delivery state over all certificates of the workshop.
	Status(ctx context.Context, workshopID uuid.UUID) (EmailStatusSummary, error)
}

type emailService struct {
	db            *gorm.DB
	log           *logger.Logger
	certRepo      repos.CertificateRepo
	workshopRepo  repos.WorkshopRepo
	media         *storage.MediaStore
	mailer        mail.Mailer
	mailCfg       config.MailConfig
	verifyURLBase string
	sendDelay     time.Duration
}

func NewEmailService(
	db *gorm.DB,
	log *logger.Logger,
	certRepo repos.CertificateRepo,
	workshopRepo repos.WorkshopRepo,
	media *storage.MediaStore,
	mailer mail.Mailer,
	mailCfg config.MailConfig,
	verifyURLBase string,
) EmailService {
	return &emailService{
		db:            db,
		log:           log.With("service", "EmailService"),
		certRepo:      certRepo,
		workshopRepo:  workshopRepo,
		media:         media,
		mailer:        mailer,
		mailCfg:       mailCfg,
		verifyURLBase: verifyURLBase,
		sendDelay:     emailSendDelay,
	}
}

func (es *emailService) SendOne(ctx context.Context, certificateID uuid.UUID, force bool) bool {
	cert, err := es.certRepo.GetByID(ctx, nil, certificateID)
	if err != nil {
		es.log.Error("Failed to load certificate", "certificate_id", certificateID, "error", err)
		return false
	}
	if cert == nil {
		es.log.Error("Certificate not found", "certificate_id", certificateID)
		return false
	}

	if cert.Status != types.GenerationGenerated {
		es.log.Warn("Certificate not generated yet", "code", cert.Code, "status", cert.Status)
		return false
	}
	if cert.FilePath == "" {
		es.log.Warn("Certificate has no file path", "code", cert.Code)
		return false
	}
	if !es.media.Exists(cert.FilePath) {
		es.markFailed(ctx, cert, "File not found: "+cert.FilePath)
		return false
	}

	if cert.EmailStatus == types.EmailSent && !force {
		es.log.Info("Certificate already sent, skipping", "code", cert.Code)
		return true
	}

	if !es.mailCfg.Configured() {
		es.markFailed(ctx, cert, "SMTP not configured (EMAIL_HOST / EMAIL_USERNAME / EMAIL_PASSWORD missing)")
		return false
	}

	pngBytes, err := es.media.Read(cert.FilePath)
	if err != nil {
		es.markFailed(ctx, cert, classifySendError(err))
		return false
	}

	msg := es.composeMessage(cert, cert.WorkshopName, pngBytes)
	if err := es.mailer.Send(ctx, msg); err != nil {
		es.markFailed(ctx, cert, classifySendError(err))
		return false
	}

	now := time.Now().UTC()
	cert.EmailStatus = types.EmailSent
	cert.EmailSentAt = &now
	cert.EmailError = ""
	if err := es.certRepo.Save(ctx, nil, cert); err != nil {
		// The message already went out; the stale record stays eligible for
		// an idempotent resend.
		es.log.Error("Failed to record sent state", "code", cert.Code, "error", err)
	}

	es.log.Info("Email sent", "code", cert.Code, "to", cert.Email)
	return true
}

// composeMessage builds the delivery payload: plaintext body with the
// verification link and the PNG attached as certificate-<code>.png.
func (es *emailService) composeMessage(cert *types.Certificate, workshopName string, pngBytes []byte) mail.Message {
	verifyURL := strings.TrimRight(es.verifyURLBase, "/") + "/" + cert.VerificationCode

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Congratulations on participating in %s.\n"+
			"Please find your certificate attached.\n\n"+
			"You can verify your certificate here:\n%s\n\n"+
			"Regards,\nACM Team",
		cert.RecipientName, workshopName, verifyURL,
	)

	return mail.Message{
		From:    es.mailCfg.FromAddress(),
		To:      cert.Email,
		Subject: "Your ACM Certificate - " + workshopName,
		Body:    body,
		Attachments: []mail.Attachment{{
			Filename: "certificate-" + cert.Code + ".png",
			MIMEType: "image/png",
			Content:  pngBytes,
		}},
	}
}

func (es *emailService) SendForWorkshop(ctx context.Context, workshopID uuid.UUID, force bool) BulkEmailResult {
	workshop, err := es.workshopRepo.GetByID(ctx, nil, workshopID)
	if err != nil || workshop == nil {
		es.log.Error("Workshop not found for bulk email", "workshop_id", workshopID, "error", err)
		return BulkEmailResult{}
	}

	certs, err := es.certRepo.ListEligibleForEmail(ctx, nil, workshop.Title, force, maxEmailBatchSize)
	if err != nil {
		es.log.Error("Failed to list certificates for bulk email", "workshop_id", workshopID, "error", err)
		return BulkEmailResult{}
	}

	result := BulkEmailResult{Total: len(certs)}
	for _, cert := range certs {
		if cert.EmailStatus == types.EmailSent && !force {
			result.Skipped++
			continue
		}

		if es.SendOne(ctx, cert.ID, force) {
			result.Sent++
		} else {
			// A concurrent dispatcher may have sent it between the listing
			// and our attempt; re-read before deciding skipped vs failed.
			fresh, rErr := es.certRepo.GetByID(ctx, nil, cert.ID)
			if rErr == nil && fresh != nil && fresh.EmailStatus == types.EmailSent {
				result.Skipped++
			} else {
				result.Failed++
			}
		}

		time.Sleep(es.sendDelay)
	}

	es.log.Info("Bulk email finished",
		"workshop_id", workshopID,
		"total", result.Total,
		"sent", result.Sent,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result
}

func (es *emailService) CountEligible(ctx context.Context, workshopID uuid.UUID) (int, error) {
	workshop, err := es.workshopRepo.GetByID(ctx, nil, workshopID)
	if err != nil {
		return 0, err
	}
	if workshop == nil {
		return 0, ErrWorkshopNotFound
	}
	certs, err := es.certRepo.ListByWorkshopName(ctx, nil, workshop.Title)
	if err != nil {
		return 0, err
	}
	eligible := 0
	for _, cert := range certs {
		if cert.Status == types.GenerationGenerated {
			eligible++
		}
	}
	return eligible, nil
}

func (es *emailService) Status(ctx context.Context, workshopID uuid.UUID) (EmailStatusSummary, error) {
	workshop, err := es.workshopRepo.GetByID(ctx, nil, workshopID)
	if err != nil {
		return EmailStatusSummary{}, err
	}
	if workshop == nil {
		return EmailStatusSummary{}, ErrWorkshopNotFound
	}

	certs, err := es.certRepo.ListByWorkshopName(ctx, nil, workshop.Title)
	if err != nil {
		return EmailStatusSummary{}, err
	}

	summary := EmailStatusSummary{Total: len(certs)}
	for _, cert := range certs {
		switch cert.EmailStatus {
		case types.EmailSent:
			summary.Sent++
		case types.EmailFailed:
			summary.Failed++
		}
	}
	summary.Pending = summary.Total - summary.Sent - summary.Failed
	return summary, nil
}

// markFailed records a classified delivery failure on the certificate.
func (es *emailService) markFailed(ctx context.Context, cert *types.Certificate, errMsg string) {
	es.log.Error("Email delivery failed", "code", cert.Code, "error", errMsg)
	cert.EmailStatus = types.EmailFailed
	cert.EmailError = truncateError(errMsg)
	if err := es.certRepo.Save(ctx, nil, cert); err != nil {
		es.log.Error("Failed to record delivery failure", "code", cert.Code, "error", err)
	}
}

// classifySendError maps a transport failure to the stored error string.
func classifySendError(err error) string {
	var authErr *mail.AuthError
	switch {
	case errors.As(err, &authErr):
		return fmt.Sprintf("SMTP authentication failed: %v", authErr.Err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Sprintf("File not found: %v", err)
	default:
		return fmt.Sprintf("SMTP error: %v", err)
	}
}

func truncateError(msg string) string {
	if len(msg) > maxEmailErrorLen {
		return msg[:maxEmailErrorLen]
	}
	return msg
}
