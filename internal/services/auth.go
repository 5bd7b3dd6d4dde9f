package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/repos"
	"github.com/acmclub/certhub/internal/types"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	// Authenticate resolves a bearer token to an active admin.
	Authenticate(ctx context.Context, tokenString string) (*types.Admin, error)
	// EnsureDefaultAdmin seeds the configured admin account if missing.
	EnsureDefaultAdmin(ctx context.Context) error
	AccessTTL() time.Duration
}

type authService struct {
	db        *gorm.DB
	log       *logger.Logger
	adminRepo repos.AdminRepo

	jwtSecret     string
	accessTTL     time.Duration
	adminEmail    string
	adminPassword string
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	adminRepo repos.AdminRepo,
	jwtSecret string,
	accessTTL time.Duration,
	adminEmail string,
	adminPassword string,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		adminRepo:     adminRepo,
		jwtSecret:     jwtSecret,
		accessTTL:     accessTTL,
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
	}
}

func (as *authService) Login(ctx context.Context, email, password string) (string, error) {
	admin, err := as.adminRepo.GetByEmail(ctx, nil, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", fmt.Errorf("load admin: %w", err)
	}
	if admin == nil || !admin.IsActive {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.HashedPassword), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   admin.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (as *authService) Authenticate(ctx context.Context, tokenString string) (*types.Admin, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	adminID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid token subject")
	}

	admin, err := as.adminRepo.GetByID(ctx, nil, adminID)
	if err != nil {
		return nil, fmt.Errorf("load admin: %w", err)
	}
	if admin == nil || !admin.IsActive {
		return nil, fmt.Errorf("admin not found or inactive")
	}
	return admin, nil
}

func (as *authService) EnsureDefaultAdmin(ctx context.Context) error {
	email := strings.ToLower(strings.TrimSpace(as.adminEmail))
	if email == "" {
		return nil
	}
	existing, err := as.adminRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return fmt.Errorf("check default admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(as.adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}
	admin := &types.Admin{
		Email:          email,
		HashedPassword: string(hashed),
		IsActive:       true,
	}
	if err := as.adminRepo.Create(ctx, nil, admin); err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}
	as.log.Info("Seeded default admin", "email", email)
	return nil
}

func (as *authService) AccessTTL() time.Duration {
	return as.accessTTL
}
