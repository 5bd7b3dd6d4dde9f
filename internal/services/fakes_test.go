package services

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/acmclub/certhub/internal/logger"
	"github.com/acmclub/certhub/internal/mail"
	"github.com/acmclub/certhub/internal/storage"
	"github.com/acmclub/certhub/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func testMediaStore(t *testing.T) *storage.MediaStore {
	t.Helper()
	media, err := storage.NewMediaStore(testLogger(), t.TempDir())
	if err != nil {
		t.Fatalf("NewMediaStore: %v", err)
	}
	return media
}

type fakeCertificateRepo struct {
	mu    sync.Mutex
	certs map[uuid.UUID]*types.Certificate

	saveErr error
}

func newFakeCertificateRepo() *fakeCertificateRepo {
	return &fakeCertificateRepo{certs: map[uuid.UUID]*types.Certificate{}}
}

func (f *fakeCertificateRepo) add(cert *types.Certificate) *types.Certificate {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cert.ID == uuid.Nil {
		cert.ID = uuid.New()
	}
	cp := *cert
	f.certs[cert.ID] = &cp
	return cert
}

func (f *fakeCertificateRepo) Create(ctx context.Context, tx *gorm.DB, cert *types.Certificate) error {
	f.add(cert)
	return nil
}

func (f *fakeCertificateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cert, ok := f.certs[id]
	if !ok {
		return nil, nil
	}
	cp := *cert
	return &cp, nil
}

func (f *fakeCertificateRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cert := range f.certs {
		if cert.Code == code {
			cp := *cert
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCertificateRepo) ListByEmail(ctx context.Context, tx *gorm.DB, email string) ([]*types.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Certificate
	for _, cert := range f.certs {
		if cert.Email == email {
			cp := *cert
			out = append(out, &cp)
		}
	}
	sortByCode(out)
	return out, nil
}

func (f *fakeCertificateRepo) ListByWorkshopName(ctx context.Context, tx *gorm.DB, workshopName string) ([]*types.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Certificate
	for _, cert := range f.certs {
		if cert.WorkshopName == workshopName {
			cp := *cert
			out = append(out, &cp)
		}
	}
	sortByCode(out)
	return out, nil
}

func (f *fakeCertificateRepo) ListEligibleForEmail(ctx context.Context, tx *gorm.DB, workshopName string, includeSent bool, limit int) ([]*types.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Certificate
	for _, cert := range f.certs {
		if cert.WorkshopName != workshopName || cert.Status != types.GenerationGenerated {
			continue
		}
		if !includeSent && cert.EmailStatus == types.EmailSent {
			continue
		}
		cp := *cert
		out = append(out, &cp)
	}
	sortByCode(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCertificateRepo) List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Certificate
	for _, cert := range f.certs {
		cp := *cert
		out = append(out, &cp)
	}
	sortByCode(out)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCertificateRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.certs)), nil
}

func (f *fakeCertificateRepo) CodeExists(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	cert, _ := f.GetByCode(ctx, tx, code)
	return cert != nil, nil
}

func (f *fakeCertificateRepo) Save(ctx context.Context, tx *gorm.DB, cert *types.Certificate) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *cert
	f.certs[cert.ID] = &cp
	return nil
}

func (f *fakeCertificateRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.certs[id]; !ok {
		return false, nil
	}
	delete(f.certs, id)
	return true, nil
}

func sortByCode(certs []*types.Certificate) {
	sort.Slice(certs, func(i, j int) bool { return certs[i].Code < certs[j].Code })
}

type fakeWorkshopRepo struct {
	mu        sync.Mutex
	workshops map[uuid.UUID]*types.Workshop
}

func newFakeWorkshopRepo() *fakeWorkshopRepo {
	return &fakeWorkshopRepo{workshops: map[uuid.UUID]*types.Workshop{}}
}

func (f *fakeWorkshopRepo) add(w *types.Workshop) *types.Workshop {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	cp := *w
	f.workshops[w.ID] = &cp
	return w
}

func (f *fakeWorkshopRepo) Create(ctx context.Context, tx *gorm.DB, w *types.Workshop) error {
	f.add(w)
	return nil
}

func (f *fakeWorkshopRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Workshop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.workshops[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWorkshopRepo) GetByTitle(ctx context.Context, tx *gorm.DB, title string) (*types.Workshop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.workshops {
		if w.Title == title {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeWorkshopRepo) List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.Workshop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Workshop
	for _, w := range f.workshops {
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeWorkshopRepo) Save(ctx context.Context, tx *gorm.DB, w *types.Workshop) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *w
	f.workshops[w.ID] = &cp
	return nil
}

func (f *fakeWorkshopRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.workshops[id]; !ok {
		return false, nil
	}
	delete(f.workshops, id)
	return true, nil
}

type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*types.CertificateTemplate
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: map[uuid.UUID]*types.CertificateTemplate{}}
}

func (f *fakeTemplateRepo) add(tpl *types.CertificateTemplate) *types.CertificateTemplate {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	cp := *tpl
	f.templates[tpl.ID] = &cp
	return tpl
}

func (f *fakeTemplateRepo) Create(ctx context.Context, tx *gorm.DB, tpl *types.CertificateTemplate) error {
	f.add(tpl)
	return nil
}

func (f *fakeTemplateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CertificateTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tpl, ok := f.templates[id]
	if !ok {
		return nil, nil
	}
	cp := *tpl
	return &cp, nil
}

func (f *fakeTemplateRepo) ListByWorkshop(ctx context.Context, tx *gorm.DB, workshopID uuid.UUID) ([]*types.CertificateTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.CertificateTemplate
	for _, tpl := range f.templates {
		if tpl.WorkshopID == workshopID {
			cp := *tpl
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTemplateRepo) GetNewestByWorkshop(ctx context.Context, tx *gorm.DB, workshopID uuid.UUID) (*types.CertificateTemplate, error) {
	out, _ := f.ListByWorkshop(ctx, tx, workshopID)
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (f *fakeTemplateRepo) GetByWorkshopAndImageURL(ctx context.Context, tx *gorm.DB, workshopID uuid.UUID, imageURL string) (*types.CertificateTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tpl := range f.templates {
		if tpl.WorkshopID == workshopID && tpl.ImageURL == imageURL {
			cp := *tpl
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTemplateRepo) Save(ctx context.Context, tx *gorm.DB, tpl *types.CertificateTemplate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *tpl
	f.templates[tpl.ID] = &cp
	return nil
}

func (f *fakeTemplateRepo) Delete(ctx context.Context, tx *gorm.DB, workshopID, templateID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tpl, ok := f.templates[templateID]
	if !ok || tpl.WorkshopID != workshopID {
		return false, nil
	}
	delete(f.templates, templateID)
	return true, nil
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []mail.Message
	sendErr error
}

func (f *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
