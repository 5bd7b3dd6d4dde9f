package main

import (
	"context"
	"os"

	"github.com/acmclub/certhub/internal/config"
	"github.com/acmclub/certhub/internal/db"
	"github.com/acmclub/certhub/internal/handlers"
	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/mail"
	"github.com/acmclub/certhub/internal/middleware"
	"github.com/acmclub/certhub/internal/repos"
	"github.com/acmclub/certhub/internal/server"
	"github.com/acmclub/certhub/internal/services"
	"github.com/acmclub/certhub/internal/storage"
)

func main() {
	log, err := logger.New(os.Getenv("ENV"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.Load(log)

	database, err := db.New(log)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.AutoMigrateAll(); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	adminRepo := repos.NewAdminRepo(database.DB(), log)
	workshopRepo := repos.NewWorkshopRepo(database.DB(), log)
	certRepo := repos.NewCertificateRepo(database.DB(), log)
	templateRepo := repos.NewTemplateRepo(database.DB(), log)

	media, err := storage.NewMediaStore(log, cfg.MediaRoot)
	if err != nil {
		log.Fatal("Failed to prepare media root", "error", err)
	}
	fonts := services.NewFontResolver(log, cfg.FontsDir)

	mailer := mail.NewSMTPMailer(log, mail.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		UseTLS:   cfg.Mail.UseTLS,
		Timeout:  cfg.Mail.Timeout,
	})

	authService := services.NewAuthService(database.DB(), log, adminRepo,
		cfg.JWTSecret, cfg.AccessTokenTTL, cfg.AdminEmail, cfg.AdminPassword)
	workshopService := services.NewWorkshopService(database.DB(), log, workshopRepo)
	templateService := services.NewTemplateService(database.DB(), log, workshopRepo, templateRepo)
	certService := services.NewCertificateService(database.DB(), log, certRepo, media)
	genService := services.NewGenerationService(database.DB(), log, certRepo, workshopRepo, templateRepo, media, fonts, nil)
	emailService := services.NewEmailService(database.DB(), log, certRepo, workshopRepo, media, mailer, cfg.Mail, cfg.VerifyURLBase)
	archiveService := services.NewArchiveService(database.DB(), log, certRepo, workshopRepo, media)

	if err := authService.EnsureDefaultAdmin(context.Background()); err != nil {
		log.Fatal("Failed to seed default admin", "error", err)
	}

	authHandler := handlers.NewAuthHandler(log, authService)
	certHandler := handlers.NewCertificateHandler(log, certService, genService, emailService, archiveService)
	workshopHandler := handlers.NewWorkshopHandler(log, workshopService)
	templateHandler := handlers.NewTemplateHandler(log, templateService)

	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	router := server.NewRouter(server.RouterConfig{
		Log:                log,
		Cfg:                cfg,
		AuthMiddleware:     authMiddleware,
		AuthHandler:        authHandler,
		CertificateHandler: certHandler,
		WorkshopHandler:    workshopHandler,
		TemplateHandler:    templateHandler,
	})

	log.Info("Starting server", "port", cfg.Port, "env", cfg.Env)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
