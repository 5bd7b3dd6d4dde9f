package repos

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/types"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.Certificate{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func seedCertificate(t *testing.T, repo CertificateRepo, cert *types.Certificate) *types.Certificate {
	t.Helper()
	if err := repo.Create(context.Background(), nil, cert); err != nil {
		t.Fatalf("seed certificate %s: %v", cert.Code, err)
	}
	return cert
}

func TestCertificateRepoCreateAndLookup(t *testing.T) {
	repo := NewCertificateRepo(testDB(t), testLogger())
	ctx := context.Background()

	cert := seedCertificate(t, repo, &types.Certificate{
		Code:             "ACM-2024-AB12",
		RecipientName:    "Jordan Li",
		Email:            "jordan@example.com",
		WorkshopName:     "Go Workshop",
		IssueDate:        "2024-06-01",
		Skills:           []string{"Go", "Testing"},
		Instructor:       "A. Bell",
		VerificationCode: uuid.NewString(),
		Status:           types.GenerationPending,
		EmailStatus:      types.EmailNotSent,
	})
	if cert.ID == uuid.Nil {
		t.Fatalf("Create should assign an ID")
	}

	byCode, err := repo.GetByCode(ctx, nil, "ACM-2024-AB12")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if byCode == nil || byCode.ID != cert.ID {
		t.Fatalf("GetByCode: want id=%s got=%+v", cert.ID, byCode)
	}
	if len(byCode.Skills) != 2 || byCode.Skills[0] != "Go" {
		t.Fatalf("skills roundtrip: got %v", byCode.Skills)
	}

	missing, err := repo.GetByCode(ctx, nil, "ACM-0000-NONE")
	if err != nil {
		t.Fatalf("GetByCode missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing code: want nil, got %+v", missing)
	}

	exists, err := repo.CodeExists(ctx, nil, "ACM-2024-AB12")
	if err != nil {
		t.Fatalf("CodeExists: %v", err)
	}
	if !exists {
		t.Fatalf("CodeExists: want=true got=false")
	}
}

func TestCertificateRepoListEligibleForEmail(t *testing.T) {
	repo := NewCertificateRepo(testDB(t), testLogger())
	ctx := context.Background()

	seedCertificate(t, repo, &types.Certificate{
		Code: "ACM-2024-E001", WorkshopName: "Go Workshop", VerificationCode: uuid.NewString(),
		Status: types.GenerationGenerated, EmailStatus: types.EmailNotSent,
	})
	seedCertificate(t, repo, &types.Certificate{
		Code: "ACM-2024-E002", WorkshopName: "Go Workshop", VerificationCode: uuid.NewString(),
		Status: types.GenerationGenerated, EmailStatus: types.EmailSent,
	})
	seedCertificate(t, repo, &types.Certificate{
		Code: "ACM-2024-E003", WorkshopName: "Go Workshop", VerificationCode: uuid.NewString(),
		Status: types.GenerationPending, EmailStatus: types.EmailNotSent,
	})
	seedCertificate(t, repo, &types.Certificate{
		Code: "ACM-2024-E004", WorkshopName: "Other Workshop", VerificationCode: uuid.NewString(),
		Status: types.GenerationGenerated, EmailStatus: types.EmailNotSent,
	})

	unsent, err := repo.ListEligibleForEmail(ctx, nil, "Go Workshop", false, 100)
	if err != nil {
		t.Fatalf("ListEligibleForEmail: %v", err)
	}
	if len(unsent) != 1 || unsent[0].Code != "ACM-2024-E001" {
		t.Fatalf("unsent only: got %d records", len(unsent))
	}

	all, err := repo.ListEligibleForEmail(ctx, nil, "Go Workshop", true, 100)
	if err != nil {
		t.Fatalf("ListEligibleForEmail includeSent: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("includeSent: want=2 got=%d", len(all))
	}

	capped, err := repo.ListEligibleForEmail(ctx, nil, "Go Workshop", true, 1)
	if err != nil {
		t.Fatalf("ListEligibleForEmail capped: %v", err)
	}
	if len(capped) != 1 {
		t.Fatalf("limit: want=1 got=%d", len(capped))
	}
}

func TestCertificateRepoDelete(t *testing.T) {
	repo := NewCertificateRepo(testDB(t), testLogger())
	ctx := context.Background()

	cert := seedCertificate(t, repo, &types.Certificate{Code: "ACM-2024-D001", WorkshopName: "Go Workshop"})

	deleted, err := repo.Delete(ctx, nil, cert.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Fatalf("Delete: want=true got=false")
	}

	again, err := repo.Delete(ctx, nil, cert.ID)
	if err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if again {
		t.Fatalf("second Delete: want=false got=true")
	}
}
