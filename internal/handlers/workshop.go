package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/services"
)

type WorkshopHandler struct {
	log             *logger.Logger
	workshopService services.WorkshopService
}

func NewWorkshopHandler(log *logger.Logger, workshopService services.WorkshopService) *WorkshopHandler {
	return &WorkshopHandler{
		log:             log.With("handler", "WorkshopHandler"),
		workshopService: workshopService,
	}
}

func (wh *WorkshopHandler) Create(c *gin.Context) {
	var input services.WorkshopInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	workshop, err := wh.workshopService.Create(c.Request.Context(), input)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "CREATE_FAILED", err)
		return
	}
	RespondCreated(c, workshop)
}

func (wh *WorkshopHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	workshops, err := wh.workshopService.List(c.Request.Context(), offset, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "LIST_FAILED", err)
		return
	}
	RespondOK(c, workshops)
}

func (wh *WorkshopHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	workshop, err := wh.workshopService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrWorkshopNotFound) {
			RespondError(c, http.StatusNotFound, "WORKSHOP_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "GET_FAILED", err)
		return
	}
	RespondOK(c, workshop)
}

func (wh *WorkshopHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	var update services.WorkshopUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	workshop, err := wh.workshopService.Update(c.Request.Context(), id, update)
	if err != nil {
		if errors.Is(err, services.ErrWorkshopNotFound) {
			RespondError(c, http.StatusNotFound, "WORKSHOP_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "UPDATE_FAILED", err)
		return
	}
	RespondOK(c, workshop)
}

func (wh *WorkshopHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err)
		return
	}
	if err := wh.workshopService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrWorkshopNotFound) {
			RespondError(c, http.StatusNotFound, "WORKSHOP_NOT_FOUND", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "DELETE_FAILED", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
