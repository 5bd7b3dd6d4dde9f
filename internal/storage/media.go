package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/acmclub/certhub/internal/logger"
)

// CertificatesDir is where rendered PNGs live, relative to the media root.
const CertificatesDir = "certificates"

// MediaStore is a filesystem namespace for generated files. Records persist
// paths relative to the root (e.g. certificates/ACM-2024-AB12.png) so the
// root can move between deployments.
type MediaStore struct {
	root string
	log  *logger.Logger
}

func NewMediaStore(log *logger.Logger, root string) (*MediaStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("media root required")
	}
	if err := os.MkdirAll(filepath.Join(root, CertificatesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create media directories: %w", err)
	}
	return &MediaStore{root: root, log: log.With("service", "MediaStore")}, nil
}

func (s *MediaStore) Root() string {
	return s.root
}

// AbsPath resolves a stored relative path, rejecting anything that would
// escape the root.
func (s *MediaStore) AbsPath(relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid media path %q", relPath)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *MediaStore) Exists(relPath string) bool {
	abs, err := s.AbsPath(relPath)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

func (s *MediaStore) Save(relPath string, data []byte) error {
	abs, err := s.AbsPath(relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("create media directory: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return fmt.Errorf("write media file: %w", err)
	}
	return nil
}

func (s *MediaStore) Read(relPath string) ([]byte, error) {
	abs, err := s.AbsPath(relPath)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}
