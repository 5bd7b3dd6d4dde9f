package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/services"
	"github.com/acmclub/certhub/internal/types"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		log:         log.With("handler", "AuthHandler"),
		authService: authService,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}

	token, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			RespondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", err)
			return
		}
		ah.log.Error("Login failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "LOGIN_FAILED", err)
		return
	}

	RespondOK(c, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(ah.authService.AccessTTL().Seconds()),
	})
}

// Me returns the authenticated admin set by the auth middleware.
func (ah *AuthHandler) Me(c *gin.Context) {
	value, ok := c.Get("admin")
	if !ok {
		RespondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", errors.New("not authenticated"))
		return
	}
	admin, ok := value.(*types.Admin)
	if !ok {
		RespondError(c, http.StatusInternalServerError, "BAD_CONTEXT", errors.New("invalid admin context"))
		return
	}
	RespondOK(c, admin)
}
