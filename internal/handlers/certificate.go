package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/services"
)

type CertificateHandler struct {
	log         *logger.Logger
	certService services.CertificateService
	genService  services.GenerationService
	emailSvc    services.EmailService
	archiveSvc  services.ArchiveService
}

func NewCertificateHandler(
	log *logger.Logger,
	certService services.CertificateService,
	genService services.GenerationService,
	emailSvc services.EmailService,
	archiveSvc services.ArchiveService,
) *CertificateHandler {
	return &CertificateHandler{
		log:         log.With("handler", "CertificateHandler"),
		certService: certService,
		genService:  genService,
		emailSvc:    emailSvc,
		archiveSvc:  archiveSvc,
	}
}

// Verify is the public lookup behind the QR/link on every certificate.
func (ch *CertificateHandler) Verify(c *gin.Context) {
	cert, err := ch.certService.Verify(c.Request.Context(), c.Param("code"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCertificateNotFound):
			RespondError(c, http.StatusNotFound, "CERTIFICATE_NOT_FOUND", err)
		case errors.Is(err, services.ErrCertificateInvalid):
			RespondError(c, http.StatusGone, "CERTIFICATE_REVOKED", err)
		default:
			RespondError(c, http.StatusInternalServerError, "VERIFY_FAILED", err)
		}
		return
	}
	RespondOK(c, cert)
}

func (ch *CertificateHandler) Search(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		RespondError(c, http.StatusBadRequest, "MISSING_EMAIL", errors.New("email query parameter is required"))
		return
	}
	certs, err := ch.certService.SearchByEmail(c.Request.Context(), email)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "SEARCH_FAILED", err)
		return
	}
	RespondOK(c, certs)
}

func (ch *CertificateHandler) Create(c *gin.Context) {
	var input services.CertificateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	cert, err := ch.certService.Create(c.Request.Context(), input)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "CREATE_FAILED", err)
		return
	}
	RespondCreated(c, cert)
}

func (ch *CertificateHandler) BulkCreate(c *gin.Context) {
	var inputs []services.CertificateInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	created, failures := ch.certService.BulkCreate(c.Request.Context(), inputs)
	RespondCreated(c, gin.H{
		"created": created,
		"errors":  failures,
		"total":   len(inputs),
	})
}

func (ch *CertificateHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	certs, err := ch.certService.List(c.Request.Context(), offset, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "LIST_FAILED", err)
		return
	}
	total, err := ch.certService.Count(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "LIST_FAILED", err)
		return
	}
	RespondOK(c, gin.H{
		"items":  certs,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}

func (ch *CertificateHandler) Stats(c *gin.Context) {
	total, err := ch.certService.Count(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "STATS_FAILED", err)
		return
	}
	RespondOK(c, gin.H{"total": total})
}

func (ch *CertificateHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	cert, err := ch.certService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrCertificateNotFound) {
			RespondError(c, http.StatusNotFound, "CERTIFICATE_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "GET_FAILED", err)
		return
	}
	RespondOK(c, cert)
}

func (ch *CertificateHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	var update services.CertificateUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	cert, err := ch.certService.Update(c.Request.Context(), id, update)
	if err != nil {
		if errors.Is(err, services.ErrCertificateNotFound) {
			RespondError(c, http.StatusNotFound, "CERTIFICATE_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "UPDATE_FAILED", err)
		return
	}
	RespondOK(c, cert)
}

func (ch *CertificateHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	if err := ch.certService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrCertificateNotFound) {
			RespondError(c, http.StatusNotFound, "CERTIFICATE_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "DELETE_FAILED", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (ch *CertificateHandler) Generate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	filePath, err := ch.genService.GenerateOne(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCertificateNotFound):
			RespondError(c, http.StatusNotFound, "CERTIFICATE_NOT_FOUND", err)
		case errors.Is(err, services.ErrWorkshopNotFound), errors.Is(err, services.ErrTemplateNotFound):
			RespondError(c, http.StatusUnprocessableEntity, "GENERATION_BLOCKED", err)
		default:
			RespondError(c, http.StatusInternalServerError, "GENERATION_FAILED", err)
		}
		return
	}
	RespondOK(c, gin.H{"file_path": filePath})
}

func (ch *CertificateHandler) GenerateWorkshop(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	result, err := ch.genService.GenerateForWorkshop(c.Request.Context(), workshopID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "GENERATION_FAILED", err)
		return
	}
	RespondOK(c, result)
}

// DownloadByCode streams a single generated PNG.
func (ch *CertificateHandler) DownloadByCode(c *gin.Context) {
	cert, data, err := ch.certService.CertificateFile(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, services.ErrCertificateNotFound) {
			RespondError(c, http.StatusNotFound, "CERTIFICATE_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "DOWNLOAD_FAILED", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cert.Code+".png"))
	c.Data(http.StatusOK, "image/png", data)
}

// DownloadZip streams every generated certificate of a workshop as one zip.
func (ch *CertificateHandler) DownloadZip(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	buf, err := ch.archiveSvc.WorkshopArchive(c.Request.Context(), workshopID)
	if err != nil {
		if errors.Is(err, services.ErrWorkshopNotFound) {
			RespondError(c, http.StatusNotFound, "WORKSHOP_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "ARCHIVE_FAILED", err)
		return
	}
	if buf == nil {
		RespondError(c, http.StatusNotFound, "NO_CERTIFICATES", errors.New("no generated certificates for this workshop"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "certificates-"+workshopID.String()+".zip"))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// SendEmail queues one delivery in the background. The outcome lands on the
// record's delivery state rather than this response.
func (ch *CertificateHandler) SendEmail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	force := c.Query("force") == "true"

	if _, err := ch.certService.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrCertificateNotFound) {
			RespondError(c, http.StatusNotFound, "CERTIFICATE_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "EMAIL_DISPATCH_FAILED", err)
		return
	}

	go func() {
		ch.emailSvc.SendOne(context.Background(), id, force)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status": "dispatching",
		"force":  force,
	})
}

// SendWorkshopEmails kicks off the bulk dispatch in the background and
// returns immediately with the eligible count. The per-certificate outcome
// lands on each record; EmailStatus exposes the aggregate.
func (ch *CertificateHandler) SendWorkshopEmails(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	force := c.Query("force") == "true"

	eligible, err := ch.emailSvc.CountEligible(c.Request.Context(), workshopID)
	if err != nil {
		if errors.Is(err, services.ErrWorkshopNotFound) {
			RespondError(c, http.StatusNotFound, "WORKSHOP_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "EMAIL_DISPATCH_FAILED", err)
		return
	}

	go func() {
		// Detached from the request: the dispatch outlives the HTTP response.
		result := ch.emailSvc.SendForWorkshop(context.Background(), workshopID, force)
		ch.log.Info("Background email dispatch finished",
			"workshop_id", workshopID,
			"sent", result.Sent,
			"skipped", result.Skipped,
			"failed", result.Failed,
		)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status":   "dispatching",
		"eligible": eligible,
		"force":    force,
	})
}

func (ch *CertificateHandler) EmailStatus(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	summary, err := ch.emailSvc.Status(c.Request.Context(), workshopID)
	if err != nil {
		if errors.Is(err, services.ErrWorkshopNotFound) {
			RespondError(c, http.StatusNotFound, "WORKSHOP_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "EMAIL_STATUS_FAILED", err)
		return
	}
	RespondOK(c, summary)
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}
