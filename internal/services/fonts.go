package services

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/acmclub/certhub/internal/logger"
)

// Friendly family names mapped to bundled TTF filenames. Families not listed
// here are probed as "<family>.ttf".
var fontFiles = map[string]string{
	"Arial":           "Arial.ttf",
	"Courier New":     "cour.ttf",
	"Times New Roman": "times.ttf",
	"Roboto":          "Roboto-Regular.ttf",
	"Inter":           "Inter-Regular.ttf",
}

func systemFontDirs() []string {
	dirs := []string{
		"/usr/share/fonts",
		"/usr/local/share/fonts",
		"/System/Library/Fonts",
	}
	if runtime.GOOS == "windows" {
		winDir := os.Getenv("WINDIR")
		if winDir == "" {
			winDir = `C:\Windows`
		}
		dirs = append([]string{filepath.Join(winDir, "Fonts")}, dirs...)
	}
	return dirs
}

// FontResolver maps a font family name to a sized glyph face. Resolve never
// fails: after the bundled assets, the system font directories and a direct
// probe of the family name, it falls back to the embedded Go Regular face.
type FontResolver struct {
	log        *logger.Logger
	assetDir   string
	systemDirs []string

	defaultFont *truetype.Font
}

func NewFontResolver(log *logger.Logger, assetDir string) *FontResolver {
	fr := &FontResolver{
		log:        log.With("service", "FontResolver"),
		assetDir:   assetDir,
		systemDirs: systemFontDirs(),
	}
	// goregular is a known-good TTF; a parse failure here means a broken
	// toolchain, and Resolve still has the bitmap face to fall back on.
	if f, err := truetype.Parse(goregular.TTF); err == nil {
		fr.defaultFont = f
	} else {
		fr.log.Warn("Could not parse embedded default font", "error", err)
	}
	return fr
}

// Resolve returns a face for the family at the given pixel size.
func (fr *FontResolver) Resolve(family string, size float64) font.Face {
	ttfName, ok := fontFiles[family]
	if !ok {
		ttfName = family + ".ttf"
	}

	if fr.assetDir != "" {
		if face, err := loadFontFace(filepath.Join(fr.assetDir, ttfName), size); err == nil {
			return face
		}
	}

	for _, dir := range fr.systemDirs {
		if face, err := loadFontFace(filepath.Join(dir, ttfName), size); err == nil {
			return face
		}
	}

	// The family string itself may already be a font path.
	if face, err := loadFontFace(family, size); err == nil {
		return face
	}

	fr.log.Warn("Font not found anywhere, using default", "family", family, "size", size)
	if fr.defaultFont != nil {
		return truetype.NewFace(fr.defaultFont, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingNone,
		})
	}
	return basicfont.Face7x13
}

func loadFontFace(path string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
