package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/acmclub/certhub/internal/storage"
	"github.com/acmclub/certhub/internal/types"
)

func templateImageServer(t *testing.T, width, height int, fetches *int32) *httptest.Server {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 240, G: 240, B: 230, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode template png: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(fetches, 1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

type generateFixture struct {
	certRepo     *fakeCertificateRepo
	workshopRepo *fakeWorkshopRepo
	templateRepo *fakeTemplateRepo
	svc          GenerationService
	media        *storage.MediaStore
}

func newGenerateFixture(t *testing.T) (*generateFixture, *types.Workshop) {
	t.Helper()
	certRepo := newFakeCertificateRepo()
	workshopRepo := newFakeWorkshopRepo()
	templateRepo := newFakeTemplateRepo()
	media := testMediaStore(t)
	fonts := NewFontResolver(testLogger(), "")

	svc := NewGenerationService(nil, testLogger(), certRepo, workshopRepo, templateRepo, media, fonts, nil)

	workshop := workshopRepo.add(&types.Workshop{Title: "Go Workshop", Date: "2024-06-01", Instructor: "A. Bell"})

	return &generateFixture{
		certRepo:     certRepo,
		workshopRepo: workshopRepo,
		templateRepo: templateRepo,
		svc:          svc,
		media:        media,
	}, workshop
}

func TestGenerateOneRendersAndPersists(t *testing.T) {
	fix, workshop := newGenerateFixture(t)

	var fetches int32
	srv := templateImageServer(t, 1200, 800, &fetches)
	fix.templateRepo.add(&types.CertificateTemplate{WorkshopID: workshop.ID, ImageURL: srv.URL})

	cert := fix.certRepo.add(&types.Certificate{
		Code:          "ACM-2024-AB12",
		RecipientName: "Jordan Li",
		Email:         "jordan@example.com",
		WorkshopName:  "Go Workshop",
		Status:        types.GenerationPending,
	})

	path, err := fix.svc.GenerateOne(context.Background(), cert.ID)
	if err != nil {
		t.Fatalf("GenerateOne: %v", err)
	}
	if path != "certificates/ACM-2024-AB12.png" {
		t.Fatalf("file path: want=%q got=%q", "certificates/ACM-2024-AB12.png", path)
	}
	if !fix.media.Exists(path) {
		t.Fatalf("expected rendered file at %q", path)
	}

	stored, _ := fix.certRepo.GetByID(context.Background(), nil, cert.ID)
	if stored.Status != types.GenerationGenerated {
		t.Fatalf("status: want=%q got=%q", types.GenerationGenerated, stored.Status)
	}
	if stored.FilePath != path {
		t.Fatalf("stored path: want=%q got=%q", path, stored.FilePath)
	}

	data, err := fix.media.Read(path)
	if err != nil {
		t.Fatalf("read rendered file: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode rendered file: %v", err)
	}
	if img.Bounds().Dx() != 1200 || img.Bounds().Dy() != 800 {
		t.Fatalf("dimensions: want=1200x800 got=%dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0xffff {
		t.Fatalf("output should be fully opaque, alpha=%v", a)
	}
}

func TestGenerateOneIsIdempotent(t *testing.T) {
	fix, workshop := newGenerateFixture(t)

	var fetches int32
	srv := templateImageServer(t, 600, 400, &fetches)
	fix.templateRepo.add(&types.CertificateTemplate{WorkshopID: workshop.ID, ImageURL: srv.URL})

	cert := fix.certRepo.add(&types.Certificate{
		Code:         "ACM-2024-CD34",
		WorkshopName: "Go Workshop",
		Status:       types.GenerationPending,
	})

	first, err := fix.svc.GenerateOne(context.Background(), cert.ID)
	if err != nil {
		t.Fatalf("first GenerateOne: %v", err)
	}
	second, err := fix.svc.GenerateOne(context.Background(), cert.ID)
	if err != nil {
		t.Fatalf("second GenerateOne: %v", err)
	}
	if first != second {
		t.Fatalf("paths differ: first=%q second=%q", first, second)
	}
	if got := atomic.LoadInt32(&fetches); got != 1 {
		t.Fatalf("template fetches: want=1 got=%d", got)
	}
}

func TestGenerateOneMissingPieces(t *testing.T) {
	fix, workshop := newGenerateFixture(t)

	if _, err := fix.svc.GenerateOne(context.Background(), uuid.New()); !errors.Is(err, ErrCertificateNotFound) {
		t.Fatalf("missing certificate: want ErrCertificateNotFound, got %v", err)
	}

	orphan := fix.certRepo.add(&types.Certificate{Code: "ACM-2024-EF56", WorkshopName: "Nonexistent Workshop"})
	if _, err := fix.svc.GenerateOne(context.Background(), orphan.ID); !errors.Is(err, ErrWorkshopNotFound) {
		t.Fatalf("missing workshop: want ErrWorkshopNotFound, got %v", err)
	}

	noTpl := fix.certRepo.add(&types.Certificate{Code: "ACM-2024-GH78", WorkshopName: workshop.Title})
	if _, err := fix.svc.GenerateOne(context.Background(), noTpl.ID); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("missing template: want ErrTemplateNotFound, got %v", err)
	}
}

func TestGenerateForWorkshopCountsAddUp(t *testing.T) {
	fix, workshop := newGenerateFixture(t)

	var fetches int32
	srv := templateImageServer(t, 400, 300, &fetches)
	fix.templateRepo.add(&types.CertificateTemplate{WorkshopID: workshop.ID, ImageURL: srv.URL})

	a := fix.certRepo.add(&types.Certificate{Code: "ACM-2024-A001", WorkshopName: workshop.Title})
	fix.certRepo.add(&types.Certificate{Code: "ACM-2024-A002", WorkshopName: workshop.Title})
	fix.certRepo.add(&types.Certificate{Code: "ACM-2024-A003", WorkshopName: workshop.Title})

	// Pre-generate one so the bulk run skips it.
	if _, err := fix.svc.GenerateOne(context.Background(), a.ID); err != nil {
		t.Fatalf("pre-generate: %v", err)
	}

	result, err := fix.svc.GenerateForWorkshop(context.Background(), workshop.ID)
	if err != nil {
		t.Fatalf("GenerateForWorkshop: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("total: want=3 got=%d", result.Total)
	}
	if result.Skipped != 1 {
		t.Fatalf("skipped: want=1 got=%d", result.Skipped)
	}
	if result.Generated != 2 {
		t.Fatalf("generated: want=2 got=%d", result.Generated)
	}
	if result.Generated+result.Skipped+result.Failed != result.Total {
		t.Fatalf("counts do not add up: %+v", result)
	}
}

func TestGenerateForWorkshopRecordsFailures(t *testing.T) {
	fix, workshop := newGenerateFixture(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	fix.templateRepo.add(&types.CertificateTemplate{WorkshopID: workshop.ID, ImageURL: srv.URL})

	fix.certRepo.add(&types.Certificate{Code: "ACM-2024-B001", WorkshopName: workshop.Title})
	fix.certRepo.add(&types.Certificate{Code: "ACM-2024-B002", WorkshopName: workshop.Title})

	result, err := fix.svc.GenerateForWorkshop(context.Background(), workshop.ID)
	if err != nil {
		t.Fatalf("GenerateForWorkshop: %v", err)
	}
	if result.Failed != 2 {
		t.Fatalf("failed: want=2 got=%d", result.Failed)
	}
	if result.Generated+result.Skipped+result.Failed != result.Total {
		t.Fatalf("counts do not add up: %+v", result)
	}
}

func TestGenerateForWorkshopUnknownWorkshop(t *testing.T) {
	fix, _ := newGenerateFixture(t)

	result, err := fix.svc.GenerateForWorkshop(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GenerateForWorkshop: %v", err)
	}
	if result.Total != 0 || result.Generated != 0 || result.Skipped != 0 || result.Failed != 0 {
		t.Fatalf("want zero result for unknown workshop, got %+v", result)
	}
}
