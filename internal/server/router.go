package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/acmclub/certhub/internal/config"
	"github.com/acmclub/certhub/internal/handlers"
	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/middleware"
)

type RouterConfig struct {
	Log                *logger.Logger
	Cfg                config.Config
	AuthMiddleware     *middleware.AuthMiddleware
	AuthHandler        *handlers.AuthHandler
	CertificateHandler *handlers.CertificateHandler
	WorkshopHandler    *handlers.WorkshopHandler
	TemplateHandler    *handlers.TemplateHandler
}

func NewRouter(rc RouterConfig) *gin.Engine {
	if rc.Cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     rc.Cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Generated PNGs are served straight off the media root.
	router.Static("/media", rc.Cfg.MediaRoot)

	api := router.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.POST("/auth/login", rc.AuthHandler.Login)

		// Public certificate surface: verification, search, download.
		api.GET("/certificates/verify/:code", rc.CertificateHandler.Verify)
		api.GET("/certificates/search", rc.CertificateHandler.Search)
		api.GET("/certificates/download/:code", rc.CertificateHandler.DownloadByCode)

		api.GET("/workshops", rc.WorkshopHandler.List)
		api.GET("/workshops/:id", rc.WorkshopHandler.Get)
		api.GET("/workshops/:id/templates", rc.TemplateHandler.ListByWorkshop)

		admin := api.Group("", rc.AuthMiddleware.RequireAdmin())
		{
			admin.GET("/auth/me", rc.AuthHandler.Me)

			admin.POST("/certificates", rc.CertificateHandler.Create)
			admin.POST("/certificates/bulk", rc.CertificateHandler.BulkCreate)
			admin.GET("/certificates", rc.CertificateHandler.List)
			admin.GET("/certificates/stats", rc.CertificateHandler.Stats)
			admin.GET("/certificates/id/:id", rc.CertificateHandler.Get)
			admin.PATCH("/certificates/id/:id", rc.CertificateHandler.Update)
			admin.DELETE("/certificates/id/:id", rc.CertificateHandler.Delete)
			admin.POST("/certificates/id/:id/generate", rc.CertificateHandler.Generate)
			admin.POST("/certificates/id/:id/send-email", rc.CertificateHandler.SendEmail)

			admin.POST("/workshops", rc.WorkshopHandler.Create)
			admin.PUT("/workshops/:id", rc.WorkshopHandler.Update)
			admin.DELETE("/workshops/:id", rc.WorkshopHandler.Delete)

			admin.POST("/workshops/:id/generate-certificates", rc.CertificateHandler.GenerateWorkshop)
			admin.GET("/workshops/:id/certificates/download", rc.CertificateHandler.DownloadZip)
			admin.POST("/workshops/:id/send-emails", rc.CertificateHandler.SendWorkshopEmails)
			admin.GET("/workshops/:id/email-status", rc.CertificateHandler.EmailStatus)

			admin.POST("/workshops/:id/templates", rc.TemplateHandler.Save)
			admin.DELETE("/workshops/:id/templates/:templateId", rc.TemplateHandler.Delete)
		}
	}

	return router
}
