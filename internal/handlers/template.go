package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/services"
)

type TemplateHandler struct {
	log             *logger.Logger
	templateService services.TemplateService
}

func NewTemplateHandler(log *logger.Logger, templateService services.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		log:             log.With("handler", "TemplateHandler"),
		templateService: templateService,
	}
}

func (th *TemplateHandler) Save(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	var input services.TemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	tpl, err := th.templateService.Save(c.Request.Context(), workshopID, input)
	if err != nil {
		if errors.Is(err, services.ErrWorkshopNotFound) {
			RespondError(c, http.StatusNotFound, "WORKSHOP_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "TEMPLATE_SAVE_FAILED", err)
		return
	}
	RespondOK(c, tpl)
}

func (th *TemplateHandler) ListByWorkshop(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	templates, err := th.templateService.ListByWorkshop(c.Request.Context(), workshopID)
	if err != nil {
		if errors.Is(err, services.ErrWorkshopNotFound) {
			RespondError(c, http.StatusNotFound, "WORKSHOP_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "TEMPLATE_LIST_FAILED", err)
		return
	}
	RespondOK(c, templates)
}

func (th *TemplateHandler) Delete(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	templateID, err := uuid.Parse(c.Param("templateId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	if err := th.templateService.Delete(c.Request.Context(), workshopID, templateID); err != nil {
		if errors.Is(err, services.ErrTemplateNotFound) {
			RespondError(c, http.StatusNotFound, "TEMPLATE_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "TEMPLATE_DELETE_FAILED", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
