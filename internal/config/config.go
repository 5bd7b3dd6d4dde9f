package config

import (
	"strings"
	"time"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/utils"
)

// Config carries every process-wide setting. It is assembled once in main
// and handed to constructors; nothing reads the environment after startup.
type Config struct {
	Env  string
	Port string

	JWTSecret      string
	AccessTokenTTL time.Duration

	AdminEmail    string
	AdminPassword string

	MediaRoot string
	FontsDir  string

	VerifyURLBase string
	CORSOrigins   []string

	Mail MailConfig
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
	Timeout  time.Duration
}

// Configured reports whether the transport can be used at all. Host, username
// and password must all be present; everything else has a default.
func (m MailConfig) Configured() bool {
	return strings.TrimSpace(m.Host) != "" &&
		strings.TrimSpace(m.Username) != "" &&
		strings.TrimSpace(m.Password) != ""
}

// FromAddress is the sender, falling back to the SMTP username like the
// original deployment did.
func (m MailConfig) FromAddress() string {
	if strings.TrimSpace(m.From) != "" {
		return m.From
	}
	return m.Username
}

func Load(log *logger.Logger) Config {
	origins := strings.Split(utils.GetEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000", log), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return Config{
		Env:  utils.GetEnv("ENV", "development", log),
		Port: utils.GetEnv("PORT", "8000", log),

		JWTSecret:      utils.GetEnv("JWT_SECRET_KEY", "change-me-in-production", log),
		AccessTokenTTL: time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL_MINUTES", 30, log)) * time.Minute,

		AdminEmail:    utils.GetEnv("ADMIN_EMAIL", "admin@acmclub.com", log),
		AdminPassword: utils.GetEnv("ADMIN_PASSWORD", "admin123", log),

		MediaRoot: utils.GetEnv("MEDIA_ROOT", "media", log),
		FontsDir:  utils.GetEnv("FONTS_DIR", "assets/fonts", log),

		VerifyURLBase: utils.GetEnv("FRONTEND_VERIFY_URL", "http://localhost:5173/verify", log),
		CORSOrigins:   origins,

		Mail: MailConfig{
			Host:     utils.GetEnv("EMAIL_HOST", "", log),
			Port:     utils.GetEnvAsInt("EMAIL_PORT", 587, log),
			Username: utils.GetEnv("EMAIL_USERNAME", "", log),
			Password: utils.GetEnv("EMAIL_PASSWORD", "", log),
			From:     utils.GetEnv("EMAIL_FROM", "", log),
			UseTLS:   utils.GetEnvAsBool("EMAIL_USE_TLS", true, log),
			Timeout:  time.Duration(utils.GetEnvAsInt("EMAIL_TIMEOUT_SECONDS", 30, log)) * time.Second,
		},
	}
}
